package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LoneGuard/pkg/errors"
)

// Body 统一响应结构
type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: msg, Data: data})
}

func Fail(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusBadRequest, Body{Code: errors.CodeValidation, Msg: msg, Data: data})
}

// FromError 按错误码段映射 HTTP 状态
func FromError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err):
		status = http.StatusBadRequest
	case errors.IsConflict(err):
		status = http.StatusConflict
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	}
	c.JSON(status, Body{Code: errors.GetCode(err), Msg: errors.GetMessage(err)})
}
