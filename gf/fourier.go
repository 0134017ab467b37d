package gf

import (
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/pkg/errors"
)

// ToRealTime transforms G(k, i*nu) to its (position, imaginary time)
// representation G(r, tau) on the dual meshes,
//
//	G(r, tau) = (1/N) sum_k e^{i k.r} (1/Beta) sum_nu e^{-i nu tau} G(k, i*nu).
//
// The real-space lattice shares the cluster of g; the time mesh carries the
// same Beta, point count and statistics as the frequency mesh.
func ToRealTime[C algofft.Complex](g *KFreqFunc[C]) (*RTimeFunc[C], error) {
	tau, err := NewImTime(g.Nu.Beta, g.Nu.Points, g.Nu.Stat)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	out, err := NewRTime[C](g.BZ, tau)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	copy(out.data, g.data)

	shape := fnShape(g.BZ, g.Nu.Points)
	// Momentum to position along every cluster axis. The inverse FFT
	// carries the 1/N normalization of the momentum sum.
	for axis := range g.BZ.Dims() {
		plan, err := algofft.NewPlanT[C](shape[axis])
		if err != nil {
			return nil, errors.Wrapf(err, "axis %d", axis)
		}
		if err := transformAxis(out.data, shape, axis, plan.Inverse); err != nil {
			return nil, errors.Wrapf(err, "axis %d", axis)
		}
	}
	if err := freqToTime(out.data, shape, g.Nu); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return out, nil
}

// ToReciprocal transforms G(r, tau) back to its (momentum, Matsubara
// frequency) representation,
//
//	G(k, i*nu) = sum_r e^{-i k.r} int_0^Beta dtau e^{i nu tau} G(r, tau),
//
// with the time integral evaluated on the mesh points. On matching meshes
// it inverts ToRealTime up to floating point roundoff.
func ToReciprocal[C algofft.Complex](g *RTimeFunc[C]) (*KFreqFunc[C], error) {
	nu, err := NewMatsubara(g.Tau.Beta, g.Tau.Points, g.Tau.Stat)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	out, err := NewKFreq[C](g.Lat, nu)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	copy(out.data, g.data)

	shape := fnShape(g.Lat, g.Tau.Points)
	for axis := range g.Lat.Dims() {
		plan, err := algofft.NewPlanT[C](shape[axis])
		if err != nil {
			return nil, errors.Wrapf(err, "axis %d", axis)
		}
		if err := transformAxis(out.data, shape, axis, plan.Forward); err != nil {
			return nil, errors.Wrapf(err, "axis %d", axis)
		}
	}
	if err := timeToFreq(out.data, shape, nu); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return out, nil
}

// freqToTime evaluates the Matsubara sum along the last axis,
// G(tau_k) = (1/Beta) sum_j e^{-i nu_j tau_k} G(i nu_j). With
// nu_j = (2(j-M/2)+shift)*pi/Beta and tau_k = k*Beta/M this is an ordinary
// DFT twisted by the phase e^{i pi k (M-shift)/M}.
func freqToTime[C algofft.Complex](data []C, shape []int, m Matsubara) error {
	M := m.Points
	plan, err := algofft.NewPlanT[C](M)
	if err != nil {
		return errors.Wrap(err, "")
	}
	phase := make([]C, M)
	for k := range phase {
		theta := math.Pi * float64(k) * (float64(M) - m.Stat.shift()) / float64(M)
		phase[k] = C(cmplx.Exp(complex(0, theta)) / complex(m.Beta, 0))
	}
	f := func(dst, src []C) error {
		if err := plan.Forward(dst, src); err != nil {
			return err
		}
		for k := range dst {
			dst[k] *= phase[k]
		}
		return nil
	}
	return transformAxis(data, shape, len(shape)-1, f)
}

// timeToFreq is the inverse of freqToTime,
// G(i nu_j) = (Beta/M) sum_k e^{i nu_j tau_k} G(tau_k).
func timeToFreq[C algofft.Complex](data []C, shape []int, m Matsubara) error {
	M := m.Points
	plan, err := algofft.NewPlanT[C](M)
	if err != nil {
		return errors.Wrap(err, "")
	}
	// Beta is folded into the untwisting phase; the inverse FFT carries
	// the 1/M factor of the trapezoidal integral.
	phase := make([]C, M)
	for k := range phase {
		theta := -math.Pi * float64(k) * (float64(M) - m.Stat.shift()) / float64(M)
		phase[k] = C(cmplx.Exp(complex(0, theta)) * complex(m.Beta, 0))
	}
	buf := make([]C, M)
	f := func(dst, src []C) error {
		for k := range src {
			buf[k] = src[k] * phase[k]
		}
		return plan.Inverse(dst, buf)
	}
	return transformAxis(data, shape, len(shape)-1, f)
}

// transformAxis applies f to every one dimensional slice of data along the
// given axis of the row major array described by shape.
func transformAxis[C algofft.Complex](data []C, shape []int, axis int, f func(dst, src []C) error) error {
	length := shape[axis]
	inner := 1
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	outer := 1
	for _, d := range shape[:axis] {
		outer *= d
	}

	src := make([]C, length)
	dst := make([]C, length)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := (o*length)*inner + i
			for j := 0; j < length; j++ {
				src[j] = data[base+j*inner]
			}
			if err := f(dst, src); err != nil {
				return errors.Wrap(err, "")
			}
			for j := 0; j < length; j++ {
				data[base+j*inner] = dst[j]
			}
		}
	}
	return nil
}

func fnShape(c *Cluster, points int) []int {
	shape := make([]int, 0, len(c.Dims())+1)
	shape = append(shape, c.Dims()...)
	shape = append(shape, points)
	return shape
}
