// Package errors 定义两个副作用边界（调用排课服务、生成文档）上的统一错误类型。
//
// 规整化与网格投影不会失败；只有这两处会向上层返回 *Error，
// 上层通过 errors.Is 与本包的哨兵值比较 Kind 即可区分错误类别。
package errors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnavailable 排课服务不可达或超时
	KindUnavailable
	// KindRejected 排课服务返回非成功状态
	KindRejected
	// KindBadResponse 排课服务响应无法解析
	KindBadResponse
	// KindComposition 文档生成失败
	KindComposition
	// KindExportBusy 同一结果的导出正在进行
	KindExportBusy
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	case KindBadResponse:
		return "bad_response"
	case KindComposition:
		return "composition"
	case KindExportBusy:
		return "export_busy"
	default:
		return "unknown"
	}
}

// Error 带类别的错误
type Error struct {
	Kind    Kind
	Op      string // 出错的操作，如 "scheduler.generate"
	Status  int    // 上游 HTTP 状态码（仅 KindRejected）
	Message string // 面向用户的提示
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 仅按 Kind 比较，使哨兵值可匹配任意同类错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 哨兵值（只用于 errors.Is 比较）
var (
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrRejected    = &Error{Kind: KindRejected}
	ErrBadResponse = &Error{Kind: KindBadResponse}
	ErrComposition = &Error{Kind: KindComposition}
	ErrExportBusy  = &Error{Kind: KindExportBusy}
)

// New 创建指定类别的错误
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf 提取错误类别，非 *Error 返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
