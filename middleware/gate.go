package middleware

import (
	"net/http"

	"travelstore/handlers"
	"travelstore/services/api"
	"travelstore/services/gate"
	"travelstore/services/session"
	"travelstore/utils"

	"github.com/gin-gonic/gin"
)

// gatePrompt is the body of an intercepted request.
type gatePrompt struct {
	State     string `json:"state"`
	Reason    string `json:"reason"`
	LoginURL  string `json:"loginUrl"`
	CancelURL string `json:"cancelUrl"`
}

// ProtectedAction guards a route with a login gate. The gate checks the
// session before the handler runs and stays subscribed to the
// "authorization required" signal while it runs: if the handler's calls are
// rejected for lack of a credential and it writes nothing, the prompt is
// rendered in its place.
func ProtectedAction(sessions session.StatusChecker, signal *api.AuthSignal, opts gate.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := gate.New(sessions, signal, opts)
		defer g.Close()

		view := g.Resolve(c.Request.Context(), c.Request.URL.RequestURI(), c.GetHeader("Referer"))
		if view.State != gate.StateAuthenticated {
			renderPrompt(c, view)
			c.Abort()
			return
		}

		c.Set(handlers.GuardedKey, true)
		c.Next()

		if c.Writer.Written() {
			return
		}
		if v := g.View(); v.State == gate.StatePromptShown {
			renderPrompt(c, v)
			return
		}
		if f, ok := c.Get(handlers.AuthFailureKey); ok {
			if ae, ok := f.(*api.AuthError); ok {
				utils.JSONError(c, http.StatusUnauthorized, string(api.KindAuth), ae.Message)
			}
		}
	}
}

func renderPrompt(c *gin.Context, v gate.View) {
	body := gatePrompt{State: v.Name, Reason: gate.DefaultReason, CancelURL: "/"}
	if v.Prompt != nil {
		body.Reason = v.Prompt.Reason
		body.LoginURL = v.Prompt.LoginURL
		body.CancelURL = v.Prompt.CancelURL
	}
	c.JSON(http.StatusUnauthorized, body)
}
