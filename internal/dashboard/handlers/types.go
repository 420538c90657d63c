package handlers

import "github.com/gin-gonic/gin"

const (
	CodeOk                 string = "OK"
	ErrCodeBadRequest      string = "ERR_BAD_REQUEST"
	ErrCodeUnknownError    string = "ERR_UNKNOWN_ERROR"
	ErrCodeBackendDown     string = "ERR_BACKEND_UNREACHABLE"
	ErrCodePairNotFound    string = "ERR_PAIR_NOT_FOUND"
	ErrCodeHistoryDisabled string = "ERR_HISTORY_DISABLED"
)

type DashboardResponse struct {
	Code string `json:"code"`
}

type DashboardError struct {
	ErrorCode string `json:"code"`
	Error     string `json:"error"`
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Abort()
	c.Error(err)
	c.PureJSON(status, DashboardError{
		ErrorCode: code,
		Error:     err.Error(),
	})
}
