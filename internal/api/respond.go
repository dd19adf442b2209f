package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Error                errorBody `json:"error"`
	RequiresVerification bool      `json:"requires_verification,omitempty"`
}

// respondError maps err to its status and writes the error envelope.
// Internal causes are logged and never sent to the client.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	e := apierr.From(err)
	status := e.Status()
	if status >= http.StatusInternalServerError && e.Err != nil {
		log.Error("request failed",
			"request_id", requestID(c),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error_code", e.Code,
			"error", e.Err,
		)
	}
	body := errorEnvelope{Error: errorBody{Message: e.Error(), Code: e.Code}}
	if e.Code == "email_not_verified" {
		body.RequiresVerification = true
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{Message: msg, Code: code}})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
