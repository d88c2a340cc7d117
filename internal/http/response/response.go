package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Partial any      `json:"partial,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	RespondErrorWithPartial(c, status, code, err, nil)
}

// RespondErrorWithPartial writes the error envelope plus whatever partial result
// the failed operation produced.
func RespondErrorWithPartial(c *gin.Context, status int, code string, err error, partial any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
		Partial: partial,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
