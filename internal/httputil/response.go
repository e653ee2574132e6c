// Package httputil carries the error envelope shared by the REST handlers
// and the middleware chain.
package httputil

import "github.com/gin-gonic/gin"

// ErrorBody is the wire shape of every non-2xx JSON response. Code is a
// stable machine-readable string the renderer and the Go client switch on;
// RequestID ties the response to the server logs when the request ID
// middleware ran.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondError writes an ErrorBody and aborts the handler chain.
func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}
