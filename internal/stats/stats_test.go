package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestLinRegressPerfectLine(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 5, 7, 9}

	res, err := LinRegress(x, y)
	if err != nil {
		t.Fatalf("LinRegress: %v", err)
	}
	if !almostEqual(res.Slope, 2, 1e-12) {
		t.Errorf("slope = %v, want 2", res.Slope)
	}
	if !almostEqual(res.Intercept, 1, 1e-12) {
		t.Errorf("intercept = %v, want 1", res.Intercept)
	}
	if !almostEqual(res.R2, 1, 1e-12) {
		t.Errorf("r2 = %v, want 1", res.R2)
	}
	if res.PValue != 0 {
		t.Errorf("p = %v, want 0 for perfect fit", res.PValue)
	}
}

func TestLinRegressNoisyDecline(t *testing.T) {
	// Clear downward trend with slight noise. Slope should be negative
	// and strongly significant.
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	y := []float64{5.0, 4.7, 4.5, 4.1, 3.9, 3.5, 3.3, 2.9, 2.7, 2.4}

	res, err := LinRegress(x, y)
	if err != nil {
		t.Fatalf("LinRegress: %v", err)
	}
	if res.Slope >= 0 {
		t.Errorf("slope = %v, want negative", res.Slope)
	}
	if res.PValue >= 0.01 {
		t.Errorf("p = %v, want < 0.01", res.PValue)
	}
	if res.R2 < 0.95 {
		t.Errorf("r2 = %v, want > 0.95", res.R2)
	}
}

func TestLinRegressFlatSeries(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := []float64{2, 2, 2, 2, 2, 2}

	res, err := LinRegress(x, y)
	if err != nil {
		t.Fatalf("LinRegress: %v", err)
	}
	if !almostEqual(res.Slope, 0, 1e-12) {
		t.Errorf("slope = %v, want 0", res.Slope)
	}
}

func TestLinRegressErrors(t *testing.T) {
	if _, err := LinRegress([]float64{1, 2}, []float64{1, 2}); err != ErrTooFewPoints {
		t.Errorf("short input: err = %v, want ErrTooFewPoints", err)
	}
	if _, err := LinRegress([]float64{1, 1, 1}, []float64{1, 2, 3}); err != ErrZeroVariance {
		t.Errorf("constant x: err = %v, want ErrZeroVariance", err)
	}
	if _, err := LinRegress([]float64{1, 2, 3}, []float64{1, 2}); err == nil {
		t.Error("mismatched lengths: want error")
	}
}

func TestLinRegressKnownPValue(t *testing.T) {
	// Reference values computed by hand for this series: slope -4.15/17.5,
	// t ~ -6.84 with 4 degrees of freedom, p ~ 0.002.
	x := []float64{0, 1, 2, 3, 4, 5}
	y := []float64{3.0, 2.9, 2.5, 2.6, 2.1, 1.8}

	res, err := LinRegress(x, y)
	if err != nil {
		t.Fatalf("LinRegress: %v", err)
	}
	if !almostEqual(res.Slope, -4.15/17.5, 1e-9) {
		t.Errorf("slope = %v, want %v", res.Slope, -4.15/17.5)
	}
	if res.PValue < 0.0005 || res.PValue > 0.01 {
		t.Errorf("p = %v, want around 0.002", res.PValue)
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	r, err := Pearson(x, []float64{2, 4, 6, 8, 10})
	if err != nil {
		t.Fatalf("Pearson: %v", err)
	}
	if !almostEqual(r, 1, 1e-12) {
		t.Errorf("positive correlation = %v, want 1", r)
	}

	r, err = Pearson(x, []float64{10, 8, 6, 4, 2})
	if err != nil {
		t.Fatalf("Pearson: %v", err)
	}
	if !almostEqual(r, -1, 1e-12) {
		t.Errorf("negative correlation = %v, want -1", r)
	}

	if _, err := Pearson(x, []float64{3, 3, 3, 3, 3}); err != ErrZeroVariance {
		t.Errorf("constant y: err = %v, want ErrZeroVariance", err)
	}
}

func TestNormalCDF(t *testing.T) {
	cases := []struct {
		z, want float64
	}{
		{0, 0.5},
		{1.96, 0.9750021},
		{-1.96, 0.0249979},
		{2.5758, 0.9950},
	}
	for _, c := range cases {
		got := NormalCDF(c.z)
		if !almostEqual(got, c.want, 1e-4) {
			t.Errorf("NormalCDF(%v) = %v, want %v", c.z, got, c.want)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1, 1.5, 2, 3, 4}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Errorf("MovingAverage[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMean(t *testing.T) {
	if m := Mean(nil); m != 0 {
		t.Errorf("Mean(nil) = %v, want 0", m)
	}
	if m := Mean([]float64{1, 2, 3}); !almostEqual(m, 2, 1e-12) {
		t.Errorf("Mean = %v, want 2", m)
	}
}
