package gf

import (
	"errors"
	"testing"
)

func TestAtReflected(t *testing.T) {
	t.Parallel()
	lat, err := NewCluster(4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	tau, err := NewImTime(2, 4, Fermion)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := NewRTime[complex128](lat, tau)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for r := 0; r < 4; r++ {
		for k := 0; k < 4; k++ {
			g.SetAt([]int{r}, k, complex(float64(r), float64(k)))
		}
	}

	rbuf := make([]int, 1)
	tests := []struct {
		r []int
		k int
		v complex128
	}{
		// g(-1, beta-tau_1) = g(3, tau_3).
		{r: []int{1}, k: 1, v: complex(3, 3)},
		// The tau = beta boundary picks up the antiperiodic sign:
		// g(-1, beta) = -g(3, 0).
		{r: []int{1}, k: 0, v: complex(-3, 0)},
		{r: []int{0}, k: 0, v: complex(0, 0)},
		{r: []int{3}, k: 2, v: complex(1, 2)},
	}
	for _, test := range tests {
		if v := g.AtReflected(test.r, test.k, rbuf); v != test.v {
			t.Fatalf("%v %d: %v, expected %v", test.r, test.k, v, test.v)
		}
	}
}

func TestAtReflectedBoson(t *testing.T) {
	t.Parallel()
	lat, err := NewCluster(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	tau, err := NewImTime(1, 2, Boson)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := NewRTime[complex128](lat, tau)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g.SetAt([]int{0}, 0, 5)
	g.SetAt([]int{1}, 1, 7)

	rbuf := make([]int, 1)
	// Periodic boundary condition, no sign at tau = beta.
	if v := g.AtReflected([]int{0}, 0, rbuf); v != 5 {
		t.Fatalf("%v", v)
	}
	if v := g.AtReflected([]int{1}, 1, rbuf); v != 7 {
		t.Fatalf("%v", v)
	}
}

func TestNewFuncInvalid(t *testing.T) {
	t.Parallel()
	if _, err := NewKFreq[complex128](nil, Matsubara{Beta: 1, Points: 4, Stat: Fermion}); !errors.Is(err, ErrInvalidMesh) {
		t.Fatalf("%+v", err)
	}
	bz, err := NewCluster(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := NewKFreq[complex128](bz, Matsubara{}); !errors.Is(err, ErrInvalidMesh) {
		t.Fatalf("%+v", err)
	}
	if _, err := NewRTime[complex64](nil, ImTime{Beta: 1, Points: 4}); !errors.Is(err, ErrInvalidMesh) {
		t.Fatalf("%+v", err)
	}
}
