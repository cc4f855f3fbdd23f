package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAsUnwrapsWrappedError(t *testing.T) {
	base := New(CodeCapacityExceeded, "station CT is full")
	wrapped := fmt.Errorf("report start: %w", base)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeCapacityExceeded {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
}

func TestRetryableOnlyForConcurrencyFamily(t *testing.T) {
	cases := map[Code]bool{
		CodeConcurrency:       true,
		CodeInternal:          true,
		CodeDependency:        true,
		CodeInvalidTransition: false,
		CodeConflictBlocked:   false,
		CodeCapacityExceeded:  false,
		CodeNotFound:          false,
	}
	for code, want := range cases {
		if got := IsRetryable(New(code, "x")); got != want {
			t.Fatalf("IsRetryable(%s) = %v, want %v", code, got, want)
		}
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, fmt.Errorf("io failure"), "load tracking state")
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("unexpected code: %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected unwrap chain, got %v", d.Chain)
	}
}
