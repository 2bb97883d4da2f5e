package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

// Status is the minimal contract understood by the chat-bot client.
type Status struct {
	Sucesso  bool   `json:"sucesso"`
	Mensagem string `json:"mensagem,omitempty"`
}

// ErrorBody is rendered for every failed request.
type ErrorBody struct {
	Sucesso  bool   `json:"sucesso"`
	Mensagem string `json:"mensagem"`
	Codigo   string `json:"codigo,omitempty"`
}

// JSON sends a success payload. Payload types carry their own `sucesso` field.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Message responds with `{sucesso: true, mensagem}`.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, Status{Sucesso: true, Mensagem: message})
}

// Accepted responds with HTTP 202 Accepted.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data)
}

// Error sends an error response converting the error to the common structure.
// Only the typed message is exposed; wrapped causes stay in the logs.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Sucesso: false, Mensagem: appErr.Message, Codigo: appErr.Code})
}

// AbortWithError renders the error and stops the middleware chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
