package handler

import (
	"net/http"
	"strconv"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/middleware"
	"labcaixa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Reconcile godoc
// @Summary Concilia registros do LIS contra lançamentos bancários no período
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param from query string true "Data inicial (YYYY-MM-DD)"
// @Param to query string true "Data final (YYYY-MM-DD)"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/reconciliation [get]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetro from inválido, use YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetro to inválido, use YYYY-MM-DD"))
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, apierror.New("Período inválido: to anterior a from"))
		return
	}

	claims := middleware.GetClaims(c)
	resp, err := h.svc.Reconcile(c.Request.Context(), claims.UnitID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Link godoc
// @Summary Vincula manualmente um código de correlação a um lançamento sem código
// @Tags reconciliation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.LinkRequest true "Vínculo manual"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/reconciliation/link [post]
func (h *ReconciliationHandler) Link(c *gin.Context) {
	var req dto.LinkRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	if err := h.svc.LinkManually(c.Request.Context(), claims.UnitID, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LogResolution godoc
// @Summary Registra o desfecho da análise de uma divergência
// @Tags reconciliation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ResolutionRequest true "Desfecho da análise"
// @Success 201 {object} dto.ResolutionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/reconciliation/resolutions [post]
func (h *ReconciliationHandler) LogResolution(c *gin.Context) {
	var req dto.ResolutionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuário inválido"))
		return
	}

	resp, err := h.svc.LogResolution(c.Request.Context(), claims.UnitID, actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListResolutions godoc
// @Summary Lista o histórico de desfechos registrados
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param code query string false "Filtrar por código de correlação"
// @Param limit query int false "Máximo de entradas (default 50)"
// @Success 200 {array} dto.ResolutionResponse
// @Router /v1/reconciliation/resolutions [get]
func (h *ReconciliationHandler) ListResolutions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.ListResolutions(c.Request.Context(), claims.UnitID, c.Query("code"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
