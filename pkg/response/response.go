package response

import (
	"net/http"

	"bankapp/internal/apperr"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 业务错误码
const (
	CodeInvalidAmount     = 1001
	CodeInsufficientFunds = 1002
	CodeBusinessRule      = 1003
	CodeDuplicateResource = 1004
	CodeConflict          = 1005
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

// FromError 按错误类别映射响应码
// 边界层统一走这里，不解析错误文案
func FromError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, CodeNotFound, err.Error())
	case apperr.KindInvalidAmount:
		Error(c, http.StatusBadRequest, CodeInvalidAmount, err.Error())
	case apperr.KindInsufficientFunds:
		Error(c, http.StatusBadRequest, CodeInsufficientFunds, err.Error())
	case apperr.KindBusinessRule:
		Error(c, http.StatusBadRequest, CodeBusinessRule, err.Error())
	case apperr.KindDuplicate:
		Error(c, http.StatusConflict, CodeDuplicateResource, err.Error())
	case apperr.KindConflict:
		Error(c, http.StatusConflict, CodeConflict, err.Error())
	case apperr.KindUnauthorized:
		Error(c, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	case apperr.KindForbidden:
		Error(c, http.StatusForbidden, CodeForbidden, err.Error())
	default:
		// Internal 不向外暴露细节
		Error(c, http.StatusInternalServerError, CodeServerError, "internal server error")
	}
}
