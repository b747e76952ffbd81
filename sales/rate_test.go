package sales_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// =============================================================================
// NORMALIZATION TESTS
// =============================================================================

func TestNormalizeRate_FractionPassesThrough(t *testing.T) {
	// GIVEN: A rate already in [0, 1]
	// WHEN: Normalizing
	// THEN: It is returned unchanged

	got, err := sales.NormalizeRate(decimal.NewFromFloat(0.25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("expected 0.25, got %s", got)
	}
}

func TestNormalizeRate_PercentageIsScaled(t *testing.T) {
	// GIVEN: A rate with magnitude above 1 (percentage convention)
	// WHEN: Normalizing
	// THEN: It is divided by 100

	got, err := sales.NormalizeRate(decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("expected 0.25, got %s", got)
	}
}

func TestNormalizeRate_ExactlyOneIsOneHundredPercent(t *testing.T) {
	// A raw value of exactly 1 means 100%, not 1%.

	got, err := sales.NormalizeRate(decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestNormalizeRate_OneHundredScalesToOne(t *testing.T) {
	got, err := sales.NormalizeRate(decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestNormalizeRate_NegativeIsRejected(t *testing.T) {
	// GIVEN: A negative rate
	// WHEN: Normalizing
	// THEN: InvalidRateError wrapping ErrInvalidRate

	_, err := sales.NormalizeRate(decimal.NewFromFloat(-0.1))
	if !errors.Is(err, sales.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}

	var ire *sales.InvalidRateError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InvalidRateError, got %T", err)
	}
}

func TestNormalizeRate_ScaledAboveOneIsRejected(t *testing.T) {
	// 150 scales to 1.5, which is out of range.

	_, err := sales.NormalizeRate(decimal.NewFromInt(150))
	if !errors.Is(err, sales.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestNormalizeRate_NegativePercentageIsRejected(t *testing.T) {
	// -25 scales to -0.25 and must still be rejected.

	_, err := sales.NormalizeRate(decimal.NewFromInt(-25))
	if !errors.Is(err, sales.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParseRate_EmptyDefaultsToZero(t *testing.T) {
	got, err := sales.ParseRate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestParseRate_WhitespaceDefaultsToZero(t *testing.T) {
	got, err := sales.ParseRate("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestParseRate_NonNumericDefaultsToZero(t *testing.T) {
	// Garbage input is treated as "no rate configured", not an error.

	got, err := sales.ParseRate("n/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestParseRate_PercentageString(t *testing.T) {
	got, err := sales.ParseRate("40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(0.40)) {
		t.Errorf("expected 0.4, got %s", got)
	}
}

func TestParseRate_FractionString(t *testing.T) {
	got, err := sales.ParseRate("0.25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("expected 0.25, got %s", got)
	}
}

func TestParseRate_OutOfRangeIsRejected(t *testing.T) {
	_, err := sales.ParseRate("150")
	if !errors.Is(err, sales.ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}
