package handlers

import (
	"errors"
	"net/http"

	"travelstore/services/api"
	"travelstore/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DraftHandler drives booking drafts through the orchestrator.
type DraftHandler struct {
	Drafts DraftService
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(drafts DraftService) *DraftHandler {
	return &DraftHandler{Drafts: drafts}
}

type openDraftRequest struct {
	ItemID    string          `json:"itemId" binding:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OpenDraftHandler opens a draft when the booking dialog opens.
func (h *DraftHandler) OpenDraftHandler(c *gin.Context) {
	var req openDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": "validation"})
		return
	}
	q, err := h.Drafts.Open(req.ItemID, req.UnitPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// GetDraftHandler returns a draft with its current pricing.
func (h *DraftHandler) GetDraftHandler(c *gin.Context) {
	q, err := h.Drafts.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// UpdateDraftHandler applies {headcount?, promoCode?, hasPromoCode?}.
func (h *DraftHandler) UpdateDraftHandler(c *gin.Context) {
	var patch booking.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": "validation"})
		return
	}
	q, err := h.Drafts.Update(c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ValidatePromoHandler validates the draft's promo code. A rejected code is a
// normal answer. A failed call still answers with the draft, priced at its
// base total, plus a notification; only an auth failure is an error.
func (h *DraftHandler) ValidatePromoHandler(c *gin.Context) {
	id := c.Param("id")
	q, err := h.Drafts.ValidatePromo(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, q)
	case errors.Is(err, booking.ErrStaleValidation):
		getLogger(c).Debug("Promo result superseded", zap.String("draftID", id))
		c.JSON(http.StatusOK, gin.H{"draft": q.Draft, "baseTotal": q.BaseTotal, "discount": q.Discount, "total": q.Total, "promoApplied": q.PromoApplied, "stale": true})
	case api.IsNetwork(err) || api.IsServer(err):
		msg := err.Error()
		if v := q.Draft.Validation; v != nil && v.Result.Message != "" {
			msg = v.Result.Message
		}
		c.JSON(http.StatusOK, gin.H{
			"draft":        q.Draft,
			"baseTotal":    q.BaseTotal,
			"discount":     q.Discount,
			"total":        q.Total,
			"promoApplied": q.PromoApplied,
			"notification": notification{Kind: string(api.KindOf(err)), Message: msg},
		})
	default:
		respondError(c, err)
	}
}

// CancelDraftHandler discards a draft when the dialog is dismissed.
func (h *DraftHandler) CancelDraftHandler(c *gin.Context) {
	if err := h.Drafts.Cancel(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitDraftHandler books the draft.
func (h *DraftHandler) SubmitDraftHandler(c *gin.Context) {
	id := c.Param("id")
	b, err := h.Drafts.Submit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking submitted", zap.String("draftID", id), zap.String("bookingID", b.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created successfully", "booking": b})
}
