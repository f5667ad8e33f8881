package handler

import (
	"net/http"
	"strconv"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/middleware"
	"labcaixa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct{ svc service.ReviewService }

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// List godoc
// @Summary Lista envelopes aguardando conferência do supervisor
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param from query string false "Data inicial (YYYY-MM-DD)"
// @Param to query string false "Data final (YYYY-MM-DD)"
// @Param only_diff query bool false "Somente envelopes com diferença"
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Itens por página (default 20)"
// @Success 200 {object} dto.ReviewListResponse
// @Router /v1/review/envelopes [get]
func (h *ReviewHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	onlyDiff, _ := strconv.ParseBool(c.DefaultQuery("only_diff", "false"))

	claims := middleware.GetClaims(c)
	filter := dto.ReviewFilter{
		UnitID:       claims.UnitID,
		From:         c.Query("from"),
		To:           c.Query("to"),
		OnlyWithDiff: onlyDiff,
		Page:         page,
		Limit:        limit,
	}

	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats godoc
// @Summary Estatísticas da fila de conferência da unidade
// @Tags review
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ReviewStatsResponse
// @Router /v1/review/stats [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Stats(c.Request.Context(), claims.UnitID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Review godoc
// @Summary Marca um envelope como conferido (idempotente)
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do envelope"
// @Success 200 {object} dto.EnvelopeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/review/envelopes/{id} [post]
func (h *ReviewHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Review(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Bulk godoc
// @Summary Confere vários envelopes em lote
// @Tags review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.BulkReviewRequest true "IDs dos envelopes"
// @Success 200 {object} dto.BulkReviewResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/review/bulk [post]
func (h *ReviewHandler) Bulk(c *gin.Context) {
	var req dto.BulkReviewRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	ids := make([]uuid.UUID, 0, len(req.EnvelopeIDs))
	for _, raw := range req.EnvelopeIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("ID de envelope inválido: "+raw))
			return
		}
		ids = append(ids, id)
	}

	resp, err := h.svc.ReviewBulk(c.Request.Context(), ids, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
