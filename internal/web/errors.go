package web

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/estatekit/internal/core"
	"github.com/JonMunkholm/estatekit/internal/logging"
)

// ErrorResponse is the JSON body of every API error. Code is stable and
// machine-readable; Message and Action are meant for people.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`

	status int
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func newErrorResponse(r *http.Request, status int, msg core.UserMessage) *ErrorResponse {
	return &ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: middleware.GetReqID(r.Context()),
		status:    status,
	}
}

// respondError splits err into its technical and user-facing parts, logs
// the technical error and writes the user-facing one. Server faults log at
// error level; anything the client can fix logs at warn.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	ue := core.NewUserError(err)
	if ue == nil {
		return
	}
	msg := ue.User
	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"status", msg.Status,
		"code", msg.Code,
		"error", ue.Technical,
	)
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error")
	} else {
		logger.Warn("request error")
	}

	_ = render.Render(w, r, newErrorResponse(r, msg.Status, msg))
}

// respondMessage writes an error that did not come from the pipeline.
func respondMessage(w http.ResponseWriter, r *http.Request, status int, code, message, action string) {
	_ = render.Render(w, r, newErrorResponse(r, status, core.UserMessage{
		Message: message,
		Action:  action,
		Code:    code,
	}))
}
