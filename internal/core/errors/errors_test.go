package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "type not found")
		if err.Error() != "[NOT_FOUND] type not found" {
			t.Errorf("expected [NOT_FOUND] type not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("bad magic")
		err := Wrap(original, CodeUnparseable, "parse class file")
		expected := "[UNPARSEABLE_ARTIFACT] parse class file: bad magic"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := AddContext(New(CodeUnresolved, "missing type"), CtxType, "a.B")
		err = AddContext(err, CtxArtifact, "lib.jar")
		expected := "[UNRESOLVED_REFERENCE] missing type {artifact=lib.jar type=a.B}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextOnPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "/tmp/x")
		if CodeOf(err) != CodeInternal {
			t.Errorf("expected internal code, got %s", CodeOf(err))
		}
	})
}
