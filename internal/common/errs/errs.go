package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code 业务错误码。
// 本地前置校验和远端返回统一使用同一套错误码，客户端提示保持一致。
type Code string

const (
	CodeInvalidInterval    Code = "INVALID_INTERVAL"     // 结束时间不晚于开始时间
	CodeVehicleUnavailable Code = "VEHICLE_UNAVAILABLE"  // 车辆当前不可租赁
	CodeInvalidState       Code = "INVALID_STATE"        // 当前订单状态不允许该操作
	CodePreconditionNotMet Code = "PRECONDITION_NOT_MET" // 缺少前置支付记录
	CodeDuplicatePayment   Code = "DUPLICATE_PAYMENT"    // 重复提交单次性支付
	CodeInvalidAmount      Code = "INVALID_AMOUNT"       // 金额非法（<= 0）
	CodeNotFound           Code = "NOT_FOUND"            // 资源不存在
	CodeUnauthorized       Code = "UNAUTHORIZED"         // 未登录 / token 无效
	CodeForbidden          Code = "FORBIDDEN"            // 权限不足
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"     // 入参非法
	CodeUnavailable        Code = "UNAVAILABLE"          // 远端服务不可达（连接层失败）
	CodeInternal           Code = "INTERNAL"             // 其他内部错误
)

// Error 带错误码的业务错误，可直接序列化为 HTTP 响应体。
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf 提取错误码；非业务错误返回 CodeInternal。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return CodeInternal
}

// Is 判断 err 是否携带指定错误码。
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e != nil && e.Code == code
}

// HTTPStatus 错误码到 HTTP 状态码的映射。
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInterval, CodeInvalidAmount, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeVehicleUnavailable, CodeInvalidState, CodeDuplicatePayment:
		return http.StatusConflict
	case CodePreconditionNotMet:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP 将错误写为 JSON 响应；非业务错误统一按 INTERNAL 输出，不暴露内部细节。
func WriteHTTP(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		e = &Error{Code: CodeInternal, Message: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(HTTPStatus(e.Code))
	_ = json.NewEncoder(w).Encode(e)
}

// DecodeHTTP 客户端侧：把远端返回的错误响应体还原为 *Error。
// 响应体不是标准格式时按状态码兜底，保证调用方总能拿到错误码。
func DecodeHTTP(status int, body []byte) error {
	e := &Error{}
	if err := json.Unmarshal(body, e); err == nil && e.Code != "" {
		return e
	}
	switch {
	case status == http.StatusNotFound:
		return &Error{Code: CodeNotFound, Message: "not found"}
	case status == http.StatusUnauthorized:
		return &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	case status >= http.StatusInternalServerError:
		return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("remote returned %d", status)}
	default:
		return &Error{Code: CodeInternal, Message: fmt.Sprintf("remote returned %d", status)}
	}
}
