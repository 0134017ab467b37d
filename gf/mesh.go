// Package gf implements finite temperature Green's function containers on
// cyclic lattices, together with the Fourier transforms between their
// (momentum, Matsubara frequency) and (position, imaginary time)
// representations.
//
// References:
//   - Many-Particle Physics, Gerald D. Mahan, chapter 3.
package gf

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMesh reports a degenerate mesh, such as one with zero
	// points, or one whose structure an operation cannot work with.
	ErrInvalidMesh = errors.New("gf: invalid mesh")
	// ErrDomainMismatch reports two meshes that must describe the same
	// domain but disagree in inverse temperature or point count.
	ErrDomainMismatch = errors.New("gf: domain mismatch")
)

// Statistic is the exchange statistics of a field.
// It determines the boundary condition in imaginary time:
// antiperiodic G(tau+beta) = -G(tau) for fermions, periodic for bosons.
type Statistic int

const (
	Fermion Statistic = iota
	Boson
)

func (s Statistic) String() string {
	switch s {
	case Fermion:
		return "Fermion"
	case Boson:
		return "Boson"
	default:
		return fmt.Sprintf("Statistic(%d)", int(s))
	}
}

// shift is the half integer offset of the Matsubara frequencies,
// nu_n = (2n+shift)*pi/beta.
func (s Statistic) shift() float64 {
	if s == Fermion {
		return 1
	}
	return 0
}

// Cluster is a periodic cluster of points in one to three dimensions.
// The same cluster indexes both a Brillouin zone mesh and its dual
// real-space lattice, since the two share size and periodicity.
type Cluster struct {
	dims []int
	size int
}

// NewCluster creates a cluster with the given extent along each dimension.
func NewCluster(dims ...int) (*Cluster, error) {
	if len(dims) < 1 || len(dims) > 3 {
		return nil, errors.Wrapf(ErrInvalidMesh, "%d dimensions", len(dims))
	}
	size := 1
	for _, d := range dims {
		if d < 1 {
			return nil, errors.Wrapf(ErrInvalidMesh, "%v", dims)
		}
		size *= d
	}
	c := &Cluster{dims: make([]int, len(dims)), size: size}
	copy(c.dims, dims)
	return c, nil
}

func (c *Cluster) Dims() []int { return c.dims }
func (c *Cluster) Size() int   { return c.size }

// Index returns the linear index of the point r.
// Coordinates are wrapped into the cluster, so r may lie outside it.
func (c *Cluster) Index(r []int) int {
	idx := 0
	for i, d := range c.dims {
		ri := ((r[i] % d) + d) % d
		idx = idx*d + ri
	}
	return idx
}

// Point decodes the linear index i into the coordinate buffer r.
func (c *Cluster) Point(i int, r []int) []int {
	for j := len(c.dims) - 1; j >= 0; j-- {
		d := c.dims[j]
		r[j] = i % d
		i /= d
	}
	return r
}

// Neg writes the negated point -r into dst.
// Negation is taken modulo the cluster periodicity, so -r is always a
// valid cluster point.
func (c *Cluster) Neg(r, dst []int) []int {
	for i, d := range c.dims {
		dst[i] = ((-r[i] % d) + d) % d
	}
	return dst
}

// K writes the momentum vector 2*pi*r_i/N_i of the point r into k.
func (c *Cluster) K(r []int, k []float64) []float64 {
	for i, d := range c.dims {
		k[i] = 2 * math.Pi * float64(r[i]) / float64(d)
	}
	return k
}

// Matsubara is a mesh of imaginary frequencies i*nu_n with
// nu_n = (2n+1)*pi/beta for fermions and 2n*pi/beta for bosons,
// where n runs over [-Points/2, Points/2).
type Matsubara struct {
	Beta   float64
	Points int
	Stat   Statistic
}

// NewMatsubara creates a Matsubara frequency mesh.
func NewMatsubara(beta float64, points int, stat Statistic) (Matsubara, error) {
	if beta <= 0 || points < 1 {
		return Matsubara{}, errors.Wrapf(ErrInvalidMesh, "beta %f points %d", beta, points)
	}
	return Matsubara{Beta: beta, Points: points, Stat: stat}, nil
}

// Omega returns the imaginary frequency of mesh index j,
// i*(2*(j-Points/2)+shift)*pi/Beta.
func (m Matsubara) Omega(j int) complex128 {
	n := j - m.Points/2
	return complex(0, (2*float64(n)+m.Stat.shift())*math.Pi/m.Beta)
}

// ImTime is a mesh of imaginary times tau_k = k*Beta/Points on [0, Beta).
type ImTime struct {
	Beta   float64
	Points int
	Stat   Statistic
}

// NewImTime creates an imaginary time mesh.
func NewImTime(beta float64, points int, stat Statistic) (ImTime, error) {
	if beta <= 0 || points < 1 {
		return ImTime{}, errors.Wrapf(ErrInvalidMesh, "beta %f points %d", beta, points)
	}
	return ImTime{Beta: beta, Points: points, Stat: stat}, nil
}

// Tau returns the imaginary time of mesh index k.
func (m ImTime) Tau(k int) float64 {
	return float64(k) * m.Beta / float64(m.Points)
}

// Reflect returns the mesh index of Beta-tau_k together with the sign the
// stored value picks up there. For k > 0 the reflected time lies on the
// mesh and the sign is +1. For k = 0 the reflected time is the boundary
// point tau = Beta, which is not stored; it resolves through the
// continuation of the tau = 0 sample, with sign -1 for fermions
// (G(tau+Beta) = -G(tau)) and +1 for bosons.
func (m ImTime) Reflect(k int) (int, float64) {
	if k == 0 {
		if m.Stat == Fermion {
			return 0, -1
		}
		return 0, 1
	}
	return m.Points - k, 1
}

// MatchImTime reports whether two imaginary time meshes describe the same
// domain. A mismatch in inverse temperature or point count indicates a
// programming error in mesh construction.
func MatchImTime(a, b ImTime) error {
	if a.Beta != b.Beta || a.Points != b.Points {
		return errors.Wrapf(ErrDomainMismatch, "%f/%d %f/%d", a.Beta, a.Points, b.Beta, b.Points)
	}
	return nil
}
