package handlers

import (
	"errors"
	"net/http"

	"travelstore/services/api"
	"travelstore/services/booking"
	"travelstore/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuardedKey marks a request that runs behind the protected action gate.
// Such requests leave an auth failure unanswered, stored under AuthFailureKey;
// the gate renders its prompt.
const (
	GuardedKey     = "guarded"
	AuthFailureKey = "authFailure"
)

// respondError maps a service error onto a status and the standard error body.
func respondError(c *gin.Context, err error) {
	var (
		ve *api.ValidationError
		ae *api.AuthError
		ne *api.NetworkError
		se *api.ServerError
		ip *booking.SubmitInProgressError
	)
	switch {
	case errors.As(err, &ve):
		utils.JSONError(c, http.StatusBadRequest, string(api.KindValidation), ve.Message, ve.Field)
	case errors.Is(err, booking.ErrDraftNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &ip):
		utils.JSONError(c, http.StatusConflict, "conflict", ip.Error())
	case errors.As(err, &ae):
		if c.GetBool(GuardedKey) {
			getLogger(c).Debug("auth failure left to the gate", zap.String("message", ae.Message))
			c.Set(AuthFailureKey, ae)
			return
		}
		utils.JSONError(c, http.StatusUnauthorized, string(api.KindAuth), ae.Message)
	case errors.As(err, &ne):
		utils.JSONError(c, http.StatusBadGateway, string(api.KindNetwork), "The service could not be reached. Please try again.", ne.Error())
	case errors.As(err, &se):
		status := se.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		utils.JSONError(c, status, string(api.KindServer), se.Message, se.Details...)
	default:
		getLogger(c).Error("unhandled error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, string(api.KindUnknown), "Internal Server Error")
	}
}

// notification is the non-fatal message attached to an otherwise successful answer.
type notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
