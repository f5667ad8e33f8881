package handler

import (
	"net/http"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/middleware"
	"labcaixa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClosingHandler struct{ svc service.ClosingService }

func NewClosingHandler(svc service.ClosingService) *ClosingHandler {
	return &ClosingHandler{svc: svc}
}

// Seal godoc
// @Summary Sela um envelope com os registros selecionados
// @Tags envelopes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SealRequest true "Dados do fechamento"
// @Success 201 {object} dto.EnvelopeResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/envelopes/seal [post]
func (h *ClosingHandler) Seal(c *gin.Context) {
	var req dto.SealRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuário inválido"))
		return
	}

	resp, err := h.svc.Seal(c.Request.Context(), claims.UnitID, actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// IssueLabel godoc
// @Summary Emite a etiqueta do envelope (via única)
// @Tags envelopes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do envelope"
// @Success 200 {object} dto.LabelResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/envelopes/{id}/label [post]
func (h *ClosingHandler) IssueLabel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.IssueLabel(c.Request.Context(), id, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Obtém o relatório completo de um envelope
// @Tags envelopes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do envelope"
// @Success 200 {object} dto.EnvelopeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/envelopes/{id} [get]
func (h *ClosingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.GetEnvelope(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddNote godoc
// @Summary Anexa uma observação ao envelope
// @Tags envelopes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do envelope"
// @Param body body dto.NoteRequest true "Observação"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/envelopes/{id}/notes [post]
func (h *ClosingHandler) AddNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.NoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.AddNote(c.Request.Context(), id, actorID, req.Body); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
