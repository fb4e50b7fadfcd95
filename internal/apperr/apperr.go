// Package apperr 定义业务错误分类。
//
// 账本和查询服务的每个操作只返回这里定义的错误类别，
// 边界层根据类别映射稳定的响应码，绝不解析错误文案。
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind 错误类别
type Kind int

const (
	KindInternal          Kind = iota // 存储层等未预期故障
	KindNotFound                      // 账户/客户/流水不存在
	KindInvalidAmount                 // 金额 <= 0
	KindInsufficientFunds             // 余额不足
	KindBusinessRule                  // 业务规则冲突（同账户转账、删除有余额账户等）
	KindDuplicate                     // 唯一性冲突（账号、邮箱）
	KindConflict                      // 乐观锁并发冲突，可安全重试
	KindUnauthorized                  // 身份凭证无效
	KindForbidden                     // 无权访问资源
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidAmount:
		return "INVALID_AMOUNT"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindBusinessRule:
		return "BUSINESS_RULE_VIOLATION"
	case KindDuplicate:
		return "DUPLICATE_RESOURCE"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	}
	return "INTERNAL"
}

// Error 携带类别的业务错误
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 被包装的底层错误，仅 Internal 使用
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 取出错误类别，非本包错误一律视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ie *InsufficientFundsError
	if errors.As(err, &ie) {
		return KindInsufficientFunds
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NotFound(resource, field string, value interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s not found by %s=%v", resource, field, value)}
}

func InvalidAmount(msg string) *Error {
	return &Error{Kind: KindInvalidAmount, Msg: msg}
}

func BusinessRule(msg string) *Error {
	return &Error{Kind: KindBusinessRule, Msg: msg}
}

func Duplicate(resource, field string, value interface{}) *Error {
	return &Error{Kind: KindDuplicate, Msg: fmt.Sprintf("%s already exists with %s=%v", resource, field, value)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// Internal 包装存储层故障，调用方必须记日志，不允许吞掉
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// InsufficientFundsError 余额不足
// 单独建类型是为了带上诊断字段：账号、请求金额、当前余额
type InsufficientFundsError struct {
	AccountNumber string
	Requested     decimal.Decimal
	Balance       decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: requested=%s, balance=%s",
		e.AccountNumber, e.Requested.String(), e.Balance.String())
}

func InsufficientFunds(accountNumber string, requested, balance decimal.Decimal) *InsufficientFundsError {
	return &InsufficientFundsError{AccountNumber: accountNumber, Requested: requested, Balance: balance}
}
