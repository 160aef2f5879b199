package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := New(KindUnavailable, "scheduler.generate", "连接超时", fmt.Errorf("dial tcp: i/o timeout"))
	wrapped := fmt.Errorf("生成失败: %w", err)

	if !errors.Is(wrapped, ErrUnavailable) {
		t.Error("包装后的错误应匹配 ErrUnavailable")
	}
	if errors.Is(wrapped, ErrRejected) {
		t.Error("不同类别不应匹配")
	}
	if KindOf(wrapped) != KindUnavailable {
		t.Errorf("期望 KindUnavailable，实际: %v", KindOf(wrapped))
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindRejected, Op: "scheduler.generate", Status: 422, Message: "排课服务拒绝请求"}
	want := "scheduler.generate: 排课服务拒绝请求 (HTTP 422)"
	if err.Error() != want {
		t.Errorf("期望 %q，实际 %q", want, err.Error())
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if KindOf(errors.New("x")) != KindUnknown {
		t.Error("普通错误应返回 KindUnknown")
	}
}
