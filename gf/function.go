package gf

import (
	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/pkg/errors"
)

// KFreqFunc is a complex scalar field over the Cartesian product of a
// Brillouin zone mesh and a Matsubara frequency mesh, G(k, i*nu).
// Values are stored row major with the frequency axis innermost.
type KFreqFunc[C algofft.Complex] struct {
	BZ *Cluster
	Nu Matsubara

	data []C
}

// NewKFreq creates a zero valued function over (bz, nu).
func NewKFreq[C algofft.Complex](bz *Cluster, nu Matsubara) (*KFreqFunc[C], error) {
	if bz == nil || bz.Size() == 0 {
		return nil, errors.Wrap(ErrInvalidMesh, "nil cluster")
	}
	if nu.Points < 1 {
		return nil, errors.Wrapf(ErrInvalidMesh, "%d frequencies", nu.Points)
	}
	return &KFreqFunc[C]{BZ: bz, Nu: nu, data: make([]C, bz.Size()*nu.Points)}, nil
}

// At returns the value at cluster point k and frequency index j.
func (g *KFreqFunc[C]) At(k []int, j int) C {
	return g.data[g.BZ.Index(k)*g.Nu.Points+j]
}

// SetAt sets the value at cluster point k and frequency index j.
func (g *KFreqFunc[C]) SetAt(k []int, j int, v C) {
	g.data[g.BZ.Index(k)*g.Nu.Points+j] = v
}

// Data returns the backing storage of g.
func (g *KFreqFunc[C]) Data() []C { return g.data }

// RTimeFunc is a complex scalar field over the Cartesian product of a
// real-space lattice and an imaginary time mesh, G(r, tau).
// It is the transform dual of KFreqFunc.
type RTimeFunc[C algofft.Complex] struct {
	Lat *Cluster
	Tau ImTime

	data []C
}

// NewRTime creates a zero valued function over (lat, tau).
func NewRTime[C algofft.Complex](lat *Cluster, tau ImTime) (*RTimeFunc[C], error) {
	if lat == nil || lat.Size() == 0 {
		return nil, errors.Wrap(ErrInvalidMesh, "nil cluster")
	}
	if tau.Points < 1 {
		return nil, errors.Wrapf(ErrInvalidMesh, "%d times", tau.Points)
	}
	return &RTimeFunc[C]{Lat: lat, Tau: tau, data: make([]C, lat.Size()*tau.Points)}, nil
}

// At returns the value at lattice point r and time index k.
func (g *RTimeFunc[C]) At(r []int, k int) C {
	return g.data[g.Lat.Index(r)*g.Tau.Points+k]
}

// SetAt sets the value at lattice point r and time index k.
func (g *RTimeFunc[C]) SetAt(r []int, k int, v C) {
	g.data[g.Lat.Index(r)*g.Tau.Points+k] = v
}

// Data returns the backing storage of g.
func (g *RTimeFunc[C]) Data() []C { return g.data }

// AtReflected evaluates G(-r, Beta-tau_k), the space inverted and time
// reversed value at (r, k). The boundary point tau = Beta arising at k = 0
// resolves through the statistics boundary condition of the time mesh, see
// ImTime.Reflect. rbuf is a scratch buffer for the negated point and must
// have the cluster dimension.
func (g *RTimeFunc[C]) AtReflected(r []int, k int, rbuf []int) C {
	kr, sign := g.Tau.Reflect(k)
	v := g.At(g.Lat.Neg(r, rbuf), kr)
	if sign < 0 {
		return -v
	}
	return v
}
