package forecast

import (
	"math"
	"testing"
)

func TestSolveLeastSquaresExactLine(t *testing.T) {
	// y = 3 + 2t fit from noiseless observations.
	var rows [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		tval := float64(i)
		rows = append(rows, []float64{1, tval})
		y = append(y, 3+2*tval)
	}

	beta, err := solveLeastSquares(rows, y)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(beta[0]-3) > 1e-6 || math.Abs(beta[1]-2) > 1e-6 {
		t.Errorf("beta = %v, want [3 2]", beta)
	}
}

func TestSolveLeastSquaresOverdetermined(t *testing.T) {
	rows := [][]float64{{1, 0}, {1, 1}, {1, 2}, {1, 3}}
	y := []float64{1, 3, 5, 7}

	beta, err := solveLeastSquares(rows, y)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(beta[0]-1) > 1e-6 || math.Abs(beta[1]-2) > 1e-6 {
		t.Errorf("beta = %v, want [1 2]", beta)
	}
}

func TestSolveLeastSquaresNoObservations(t *testing.T) {
	if _, err := solveLeastSquares(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestGaussianSolveSingular(t *testing.T) {
	a := [][]float64{{1, 2}, {2, 4}}
	b := []float64{1, 2}
	if _, err := gaussianSolve(a, b); err == nil {
		t.Fatal("expected singular matrix error")
	}
}

func TestGaussianSolvePivoting(t *testing.T) {
	// Leading zero forces a row swap.
	a := [][]float64{{0, 1}, {1, 0}}
	b := []float64{2, 3}
	x, err := gaussianSolve(a, b)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(x[0]-3) > 1e-9 || math.Abs(x[1]-2) > 1e-9 {
		t.Errorf("x = %v, want [3 2]", x)
	}
}
