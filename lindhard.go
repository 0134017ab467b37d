// Package lindhard computes the bare particle-hole susceptibility of a
// non-interacting electron gas on a cyclic lattice,
//
//	chi0(q, i*omega) = -(2/(Beta*N)) sum_{k,nu} G0(k, i*nu) G0(k+q, i*nu+i*omega).
//
// Bubble evaluates the double convolution as a pointwise product in the
// (position, imaginary time) representation, at cost O(N*M*log(N*M)) instead
// of O(N^2*M^2). BubbleDirect performs the double sum literally and serves as
// a cross check.
//
// References:
//   - Many-Particle Physics, Gerald D. Mahan, chapter 5, the Lindhard function.
package lindhard

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fumin/lindhard/gf"
)

// Dispersion is a single particle dispersion relation epsilon(k).
type Dispersion func(k []float64) float64

// SquareLattice returns the nearest neighbor hypercubic tight binding
// dispersion -2t*sum_i cos(k_i). At half filling it is perfectly nested,
// epsilon(k+Q) = -epsilon(k) for Q = (pi, ..., pi).
func SquareLattice(t float64) Dispersion {
	return func(k []float64) float64 {
		var e float64
		for _, ki := range k {
			e += math.Cos(ki)
		}
		return -2 * t * e
	}
}

// FlatBand returns the dispersionless band epsilon(k) = e0.
func FlatBand(e0 float64) Dispersion {
	return func(k []float64) float64 { return e0 }
}

// FreeFermion builds the non-interacting Green's function
// G0(k, i*nu) = 1/(i*nu + mu - epsilon(k)) on the given meshes.
func FreeFermion[C algofft.Complex](bz *gf.Cluster, nu gf.Matsubara, eps Dispersion, mu float64) (*gf.KFreqFunc[C], error) {
	if nu.Stat != gf.Fermion {
		return nil, errors.Wrapf(gf.ErrInvalidMesh, "%v", nu.Stat)
	}
	g, err := gf.NewKFreq[C](bz, nu)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	dim := len(bz.Dims())
	r, k := make([]int, dim), make([]float64, dim)
	for i := 0; i < bz.Size(); i++ {
		bz.Point(i, r)
		e := eps(bz.K(r, k))
		for j := 0; j < nu.Points; j++ {
			g.SetAt(r, j, C(1/(nu.Omega(j)+complex(mu-e, 0))))
		}
	}
	return g, nil
}

// BubbleOptions are options for the bubble evaluation.
type BubbleOptions struct {
	workers int
}

// NewBubbleOptions returns the default bubble options.
func NewBubbleOptions() BubbleOptions {
	opt := BubbleOptions{}
	opt.workers = 1
	return opt
}

// Workers sets the number of goroutines evaluating the pointwise product
// stage. The lattice points are independent, so this stage parallelizes
// without coordination.
func (opt BubbleOptions) Workers(n int) BubbleOptions {
	opt.workers = n
	return opt
}

// Bubble computes the susceptibility chi0(q, i*omega) of the fermionic
// Green's function g0. The three stages are strictly sequential:
//
//  1. transform g0 to G(r, tau) on the dual meshes,
//  2. form chi0(r, tau) = 2*G(-r, Beta-tau)*G(r, tau) on a bosonic time
//     mesh with the same Beta and point count (the product of two
//     antiperiodic factors is periodic; the factor 2 is spin degeneracy),
//  3. transform back onto a bosonic Matsubara mesh.
//
// Bubble is a pure function of g0; independent calls may run concurrently.
// Near perfect nesting and large Beta the static value chi0(Q, 0) grows
// without bound, limited only by the frequency mesh resolution; the result
// saturates the floating point range before overflowing to infinity.
func Bubble[C algofft.Complex](g0 *gf.KFreqFunc[C], options ...BubbleOptions) (*gf.KFreqFunc[C], error) {
	opt := NewBubbleOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if g0.BZ == nil || g0.BZ.Size() == 0 {
		return nil, errors.Wrap(gf.ErrInvalidMesh, "momentum mesh")
	}
	if g0.Nu.Stat != gf.Fermion {
		return nil, errors.Wrapf(gf.ErrInvalidMesh, "%v", g0.Nu.Stat)
	}

	grt, err := gf.ToRealTime(g0)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	btau, err := gf.NewImTime(g0.Nu.Beta, g0.Nu.Points, gf.Boson)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := gf.MatchImTime(grt.Tau, btau); err != nil {
		return nil, errors.Wrap(err, "")
	}

	chi, err := gf.NewRTime[C](grt.Lat, btau)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := bubbleRT(chi, grt, opt.workers); err != nil {
		return nil, errors.Wrap(err, "")
	}

	chikw, err := gf.ToReciprocal(chi)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return chikw, nil
}

// bubbleRT fills chi(r, t) = 2*g(-r, Beta-t)*g(r, t). The hole leg
// g(-r, Beta-t) is looked up through the antiperiodic continuation of g,
// see gf.RTimeFunc.AtReflected.
func bubbleRT[C algofft.Complex](chi, g *gf.RTimeFunc[C], workers int) error {
	lat := g.Lat
	dim := len(lat.Dims())

	eg := errgroup.Group{}
	eg.SetLimit(max(workers, 1))
	for i := 0; i < lat.Size(); i++ {
		eg.Go(func() error {
			r, rbuf := make([]int, dim), make([]int, dim)
			lat.Point(i, r)
			for k := 0; k < g.Tau.Points; k++ {
				chi.SetAt(r, k, 2*g.AtReflected(r, k, rbuf)*g.At(r, k))
			}
			return nil
		})
	}
	return eg.Wait()
}

// BubbleDirect computes chi0 by the double sum
//
//	chi0(q, i*omega_l) = -(2/(Beta*N)) sum_{k,j} G0(k, i*nu_j) G0(k+q, i*nu_{j'}),
//
// where j' = j + l - M/2 wraps cyclically around the frequency mesh, the
// same aliasing the transform pair of Bubble implies. The two therefore
// agree to floating point accuracy on identical inputs.
func BubbleDirect[C algofft.Complex](g0 *gf.KFreqFunc[C]) (*gf.KFreqFunc[C], error) {
	if g0.Nu.Stat != gf.Fermion {
		return nil, errors.Wrapf(gf.ErrInvalidMesh, "%v", g0.Nu.Stat)
	}
	bnu, err := gf.NewMatsubara(g0.Nu.Beta, g0.Nu.Points, gf.Boson)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	chi, err := gf.NewKFreq[C](g0.BZ, bnu)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	bz := g0.BZ
	M := g0.Nu.Points
	dim := len(bz.Dims())
	norm := C(complex(-2/(g0.Nu.Beta*float64(bz.Size())), 0))

	q, p, pq := make([]int, dim), make([]int, dim), make([]int, dim)
	for qi := 0; qi < bz.Size(); qi++ {
		bz.Point(qi, q)
		for l := 0; l < M; l++ {
			var sum C
			for pi := 0; pi < bz.Size(); pi++ {
				bz.Point(pi, p)
				for x := range p {
					pq[x] = p[x] + q[x]
				}
				for j := 0; j < M; j++ {
					jl := (((j + l - M/2) % M) + M) % M
					sum += g0.At(p, j) * g0.At(pq, jl)
				}
			}
			chi.SetAt(q, l, norm*sum)
		}
	}
	return chi, nil
}
