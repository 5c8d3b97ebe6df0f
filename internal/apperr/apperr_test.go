package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("conn reset")
	err := Wrap("ledger.Transfer", ErrStoreUnavailable, cause)

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatal("expected kind match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause match")
	}
	if !IsRetryable(fmt.Errorf("outer: %w", err)) {
		t.Fatal("store errors must be retryable")
	}
}

func TestStore_KeepsDomainErrors(t *testing.T) {
	dom := E("db.ApplyMovement", ErrInsufficientBalance)
	if got := Store("db.x", dom); got != error(dom) {
		t.Fatalf("domain error rewrapped: %v", got)
	}
	if Store("db.x", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	if got := Store("db.x", errors.New("boom")); !errors.Is(got, ErrStoreUnavailable) {
		t.Fatalf("want store unavailable, got %v", got)
	}
}

func TestRemapAndCode(t *testing.T) {
	base := E("db.ApplyMovement", ErrInsufficientBalance)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", base, "insufficient_balance"},
		{"budget", Remap(base, ErrInsufficientBalance, ErrInsufficientBudget), "insufficient_budget"},
		{"points", Remap(base, ErrInsufficientBalance, ErrInsufficientPoints), "insufficient_points"},
		{"untouched", Remap(E("x", ErrOutOfStock), ErrInsufficientBalance, ErrInsufficientPoints), "out_of_stock"},
		{"unknown", errors.New("???"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Fatalf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}
