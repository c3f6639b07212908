package handlers

import (
	"net/http"

	"studiobook/middleware"
	"studiobook/services/booking"

	"github.com/gin-gonic/gin"
)

type FlowHandler struct {
	Flows *booking.FlowService
}

func NewFlowHandler(flows *booking.FlowService) *FlowHandler {
	return &FlowHandler{Flows: flows}
}

type selectSlotRequest struct {
	SlotID string `json:"slot_id" binding:"required"`
}

// StartFlow opens the slot selection for a session, sized to the caller's viewport.
func (h *FlowHandler) StartFlow(c *gin.Context) {
	view, err := h.Flows.Start(c.Request.Context(), c.Param("sessionID"), userID(c), middleware.ViewportWidth(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *FlowHandler) GetFlow(c *gin.Context) {
	view, err := h.Flows.Get(c.Request.Context(), c.Param("flowID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *FlowHandler) SelectSlot(c *gin.Context) {
	var req selectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot_id is required"})
		return
	}
	view, err := h.Flows.Select(c.Request.Context(), c.Param("flowID"), userID(c), req.SlotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *FlowHandler) Back(c *gin.Context) {
	view, err := h.Flows.Back(c.Request.Context(), c.Param("flowID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ConfirmFlow books the selected slot. A failed booking still answers 200 with the
// flow left on the confirm step and its error set, so the client can retry or go back.
func (h *FlowHandler) ConfirmFlow(c *gin.Context) {
	view, err := h.Flows.Confirm(c.Request.Context(), c.Param("flowID"), userID(c), c.GetHeader(IdempotencyHeader))
	if err != nil && view.Flow.Error == "" {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
