package handlers

import (
	"net/http"
	"strconv"

	"studiobook/models"
	"studiobook/services/session"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	Sessions session.SessionService
}

func NewSessionHandler(sessions session.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

type saveSessionRequest struct {
	DraftID string `json:"draft_id" binding:"required"`
	models.SessionDetails
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session data", "details": err.Error()})
		return
	}

	created, err := h.Sessions.CreateFromDraft(c.Request.Context(), userID(c), req.DraftID, req.SessionDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session data", "details": err.Error()})
		return
	}

	updated, err := h.Sessions.Update(c.Request.Context(), c.Param("sessionID"), userID(c), req.DraftID, req.SessionDetails)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// EditSession opens a slot draft seeded with the session's saved slots.
func (h *SessionHandler) EditSession(c *gin.Context) {
	state, err := h.Sessions.EditDraft(c.Request.Context(), c.Param("sessionID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *SessionHandler) PublishSession(c *gin.Context) {
	if err := h.Sessions.Publish(c.Request.Context(), c.Param("sessionID"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session published"})
}

func (h *SessionHandler) UnpublishSession(c *gin.Context) {
	if err := h.Sessions.Unpublish(c.Request.Context(), c.Param("sessionID"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session unpublished"})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.Sessions.Get(c.Request.Context(), c.Param("sessionID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// QuoteSession prices the slots named by repeated ?slot_id= as one purchase.
func (h *SessionHandler) QuoteSession(c *gin.Context) {
	q, err := h.Sessions.Quote(c.Request.Context(), c.Param("sessionID"), userID(c), c.QueryArray("slot_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ListSessions pages through published sessions with ?limit=&offset=.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	sessions, err := h.Sessions.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
