package insight

import (
	"math"
	"testing"
)

func TestDerive(t *testing.T) {
	r := Derive(Totals{
		Spend:       1200,
		Impressions: 50000,
		Clicks:      2500,
		Conversions: 35,
		Revenue:     4200,
	})

	if got, want := r.CTR, 5.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("CTR = %v, want %v", got, want)
	}
	if got, want := r.CPC, 0.48; math.Abs(got-want) > 1e-9 {
		t.Errorf("CPC = %v, want %v", got, want)
	}
	if got, want := r.CPM, 24.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("CPM = %v, want %v", got, want)
	}
	if got, want := r.ConversionRate, 1.4; math.Abs(got-want) > 1e-9 {
		t.Errorf("ConversionRate = %v, want %v", got, want)
	}
	if got, want := r.CPA, 1200.0/35; math.Abs(got-want) > 1e-9 {
		t.Errorf("CPA = %v, want %v", got, want)
	}
	if got, want := r.ROAS, 3.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("ROAS = %v, want %v", got, want)
	}
}

func TestDeriveZeroDenominators(t *testing.T) {
	r := Derive(Totals{Spend: 100})

	// Volume rates collapse to zero without delivery.
	if r.CTR != 0 {
		t.Errorf("CTR = %v, want 0", r.CTR)
	}
	if r.CPM != 0 {
		t.Errorf("CPM = %v, want 0", r.CPM)
	}
	if r.ConversionRate != 0 {
		t.Errorf("ConversionRate = %v, want 0", r.ConversionRate)
	}

	// Cost-per-result metrics are undefined without results.
	if !math.IsNaN(r.CPC) {
		t.Errorf("CPC = %v, want NaN", r.CPC)
	}
	if !math.IsNaN(r.CPA) {
		t.Errorf("CPA = %v, want NaN", r.CPA)
	}

	if r2 := Derive(Totals{Revenue: 50}); r2.ROAS != 0 {
		t.Errorf("ROAS with zero spend = %v, want 0", r2.ROAS)
	}
}

func TestValidAndSanitize(t *testing.T) {
	if Valid(math.NaN()) {
		t.Error("Valid(NaN) = true")
	}
	if Valid(math.Inf(1)) {
		t.Error("Valid(+Inf) = true")
	}
	if !Valid(0) || !Valid(-3.5) {
		t.Error("Valid rejected a finite value")
	}
	if Sanitize(math.NaN()) != 0 {
		t.Error("Sanitize(NaN) != 0")
	}
	if Sanitize(2.5) != 2.5 {
		t.Error("Sanitize altered a finite value")
	}
}

func TestMeanValid(t *testing.T) {
	got := MeanValid([]float64{10, math.NaN(), 20, math.Inf(1)})
	if math.Abs(got-15) > 1e-9 {
		t.Errorf("MeanValid = %v, want 15", got)
	}
	if MeanValid([]float64{math.NaN()}) != 0 {
		t.Error("MeanValid of all-NaN should be 0")
	}
}
