package domain

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	allowed := [][2]string{
		{LoanStatusPending, LoanStatusActive},
		{LoanStatusActive, LoanStatusRepaid},
		{LoanStatusActive, LoanStatusDefaulted},
	}
	for _, tc := range allowed {
		if err := ValidateTransition(tc[0], tc[1]); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tc[0], tc[1], err)
		}
	}

	rejected := [][2]string{
		{LoanStatusPending, LoanStatusRepaid},
		{LoanStatusPending, LoanStatusDefaulted},
		{LoanStatusRepaid, LoanStatusActive},
		{LoanStatusDefaulted, LoanStatusActive},
		{LoanStatusActive, LoanStatusPending},
		{LoanStatusActive, LoanStatusActive},
	}
	for _, tc := range rejected {
		err := ValidateTransition(tc[0], tc[1])
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s should be rejected with ErrInvalidTransition, got %v", tc[0], tc[1], err)
		}
	}
}

func TestValidateTransitionUnknownTarget(t *testing.T) {
	err := ValidateTransition(LoanStatusPending, "cancelled")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown target status should be ErrInvalidInput, got %v", err)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{LoanStatusPending, LoanStatusActive, LoanStatusRepaid, LoanStatusDefaulted} {
		if !ValidStatus(s) {
			t.Fatalf("%q should be a valid status", s)
		}
	}
	if ValidStatus("cancelled") {
		t.Fatal("cancelled is not a known status")
	}
}
