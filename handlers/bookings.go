package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the signed-in user's booking history.
type BookingHandler struct {
	History HistoryService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(history HistoryService) *BookingHandler {
	return &BookingHandler{History: history}
}

// ListBookingsHandler returns ?page=&limit=&status= of the user's bookings.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := h.History.ListBookings(c.Request.Context(), page, limit, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetBookingHandler returns one booking.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.History.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler cancels one booking.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	msg, err := h.History.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if msg == "" {
		msg = "Booking cancelled successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
