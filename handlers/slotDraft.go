package handlers

import (
	"net/http"
	"time"

	"studiobook/models"
	"studiobook/services/slot"
	"studiobook/utils"

	"github.com/gin-gonic/gin"
)

type SlotDraftHandler struct {
	Drafts *slot.DraftService
}

func NewSlotDraftHandler(drafts *slot.DraftService) *SlotDraftHandler {
	return &SlotDraftHandler{Drafts: drafts}
}

type manualScheduleRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type createDraftRequest struct {
	Manual *manualScheduleRequest `json:"manual_schedule"`
}

// CreateDraft opens an empty slot list for a new session.
func (h *SlotDraftHandler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	var manual models.ManualSchedule
	if req.Manual != nil {
		if !req.Manual.StartTime.Before(req.Manual.EndTime) {
			utils.JSONFieldError(c, "end_time", slot.ErrInvalidTimeRange.Error())
			return
		}
		manual = models.ManualSchedule{Start: req.Manual.StartTime, End: req.Manual.EndTime}
	}

	state, err := h.Drafts.Create(c.Request.Context(), userID(c), "", manual, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *SlotDraftHandler) GetDraft(c *gin.Context) {
	state, err := h.Drafts.Get(c.Request.Context(), c.Param("draftID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SaveSlot adds the posted slot, or replaces the one being edited.
func (h *SlotDraftHandler) SaveSlot(c *gin.Context) {
	var s models.PhotoSessionSlot
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slot data", "details": err.Error()})
		return
	}
	h.apply(c, slot.AddOrUpdate{Slot: s})
}

func (h *SlotDraftHandler) BeginEdit(c *gin.Context) {
	h.apply(c, slot.BeginEdit{SlotID: c.Param("slotID")})
}

func (h *SlotDraftHandler) CancelEdit(c *gin.Context) {
	h.apply(c, slot.CancelEdit{})
}

func (h *SlotDraftHandler) RemoveSlot(c *gin.Context) {
	h.apply(c, slot.Remove{SlotID: c.Param("slotID")})
}

func (h *SlotDraftHandler) SetSchedule(c *gin.Context) {
	var req manualScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule", "details": err.Error()})
		return
	}
	h.apply(c, slot.SetManualSchedule{Start: req.StartTime, End: req.EndTime})
}

// UploadCostumeImage expects a multipart "image" file.
func (h *SlotDraftHandler) UploadCostumeImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read image file"})
		return
	}
	defer file.Close()

	state, err := h.Drafts.AttachCostumeImage(c.Request.Context(), c.Param("draftID"), userID(c), file, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SlotDraftHandler) DiscardDraft(c *gin.Context) {
	if err := h.Drafts.Discard(c.Request.Context(), c.Param("draftID"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SlotDraftHandler) apply(c *gin.Context, action slot.Action) {
	state, err := h.Drafts.Apply(c.Request.Context(), c.Param("draftID"), userID(c), action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
