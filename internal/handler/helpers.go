package handler

import (
	"errors"
	"net/http"
	"reflect"

	"labcaixa/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewFields(fields))
		return false
	}
	return true
}

// respondError maps service-layer errors onto HTTP statuses. Integrity faults
// are pushed to the Gin error chain so the ErrorHandler middleware logs them
// with request context and writes a safe 500.
func respondError(c *gin.Context, err error) {
	var (
		vErr  *apierror.ValidationError
		cErr  *apierror.ConflictError
		aErr  *apierror.AlreadyIssuedError
		fault *apierror.IntegrityFault
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, apierror.New(vErr.Error()))
	case errors.As(err, &cErr):
		c.JSON(http.StatusConflict, apierror.New(cErr.Error()))
	case errors.As(err, &aErr):
		c.JSON(http.StatusConflict, apierror.New(aErr.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Recurso não encontrado"))
	case errors.As(err, &fault):
		_ = c.Error(err)
		c.Abort()
	default:
		_ = c.Error(err)
		c.Abort()
	}
}
