package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/driftgate/bridge-router/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

func Unauthorized(c *gin.Context, err string) {
	Error(c, http.StatusUnauthorized, err)
}

func UnprocessableEntity(c *gin.Context, err string) {
	Error(c, http.StatusUnprocessableEntity, err)
}

func InternalError(c *gin.Context, err string) {
	Error(c, http.StatusInternalServerError, err)
}

// HandleError maps an engine error to its HTTP status and responds.
func HandleError(c *gin.Context, err error) {
	he := common.HTTPErrorFor(err)
	Error(c, he.StatusCode, he.Message)
}
