package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDuplicateError_IsAndField(t *testing.T) {
	err := fmt.Errorf("insert client: %w", &DuplicateError{Field: "email"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected errors.Is(ErrDuplicate)")
	}
	if got := DuplicateField(err); got != "email" {
		t.Fatalf("expected field email, got %q", got)
	}
	if DuplicateField(ErrNotFound) != "" {
		t.Fatalf("expected empty field for non duplicate error")
	}
}

func TestNopTransactor_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	err := NopTransactor{}.WithinTx(context.Background(), func(ctx context.Context) error {
		called = true
		return boom
	})
	if !called || !errors.Is(err, boom) {
		t.Fatalf("expected fn to run and its error returned, called=%v err=%v", called, err)
	}
}
