package core

import (
	"errors"
	"math"
	"testing"
)

func TestCosine_Identity(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.3, 0.4, 0.5},
		{-2, 7, 1.5, 0.25},
	}

	for _, v := range vectors {
		got, err := Cosine(v, v)
		if err != nil {
			t.Fatalf("Cosine(v, v) returned error: %v", err)
		}
		if math.Abs(float64(got)-1.0) > 1e-6 {
			t.Errorf("Cosine(v, v) = %f, want 1.0", got)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	v := []float32{0.5, 0.5, 0.5}
	zero := []float32{0, 0, 0}

	got, err := Cosine(v, zero)
	if err != nil {
		t.Fatalf("Cosine with zero vector returned error: %v", err)
	}
	if got != 0 {
		t.Errorf("Cosine(v, zero) = %f, want 0.0", got)
	}
}

func TestCosine_Symmetry(t *testing.T) {
	a := []float32{0.1, 0.9, 0.3}
	b := []float32{0.7, 0.2, 0.5}

	ab, err := Cosine(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Cosine(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if ab != ba {
		t.Errorf("Cosine(a,b) = %f but Cosine(b,a) = %f", ab, ba)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	got, err := Cosine([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got)) > 1e-6 {
		t.Errorf("Cosine of orthogonal vectors = %f, want 0.0", got)
	}
}

func TestCosine_Opposite(t *testing.T) {
	got, err := Cosine([]float32{1, 2, 3}, []float32{-1, -2, -3})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(got)+1.0) > 1e-6 {
		t.Errorf("Cosine of opposite vectors = %f, want -1.0", got)
	}
}

func TestCosine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		wantErr error
	}{
		{
			name:    "empty first vector",
			a:       nil,
			b:       []float32{1, 2},
			wantErr: ErrEmptyVector,
		},
		{
			name:    "empty second vector",
			a:       []float32{1, 2},
			b:       nil,
			wantErr: ErrEmptyVector,
		},
		{
			name:    "length mismatch",
			a:       []float32{1, 2, 3},
			b:       []float32{1, 2},
			wantErr: ErrVectorLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cosine(tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Cosine() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeVector(3,4) = %v, want [0.6 0.8]", v)
	}

	zero := NormalizeVector([]float32{0, 0, 0})
	for i, val := range zero {
		if val != 0 {
			t.Errorf("NormalizeVector(zero)[%d] = %f, want 0", i, val)
		}
	}

	empty := NormalizeVector(nil)
	if len(empty) != 0 {
		t.Errorf("NormalizeVector(nil) = %v, want empty", empty)
	}
}
