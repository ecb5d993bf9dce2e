package api

import (
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}

func ErrorWithCode(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, errorResponse{Error: message, Code: code, Details: details})
}
