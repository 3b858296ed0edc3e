package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewTagsCallSite(t *testing.T) {
	err := New("boom %d", 7)
	if !strings.Contains(err.Error(), "errors_test.go:") {
		t.Errorf("error %q missing call site tag", err)
	}
	if !strings.HasSuffix(err.Error(), "boom 7") {
		t.Errorf("error %q missing formatted message", err)
	}
}

func TestWrapfPreservesCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrapf(cause, "loading config")
	if !stderrors.Is(err, cause) {
		t.Errorf("wrapped error does not unwrap to cause: %v", err)
	}
	if !strings.Contains(err.Error(), "loading config: root cause") {
		t.Errorf("error = %q", err)
	}
}

func TestWrapfNil(t *testing.T) {
	if err := Wrapf(nil, "context"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}
