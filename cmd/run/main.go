// Command run studies the nesting divergence of the Lindhard susceptibility
// on the half filled square lattice. For a sweep of inverse temperatures it
// computes chi0(Q, 0) at the nesting vector Q = (pi, pi), archives the full
// susceptibility, and fits the growth of chi0(Q, 0) with Beta.
package main

import (
	"cmp"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/fumin/lindhard"
	"github.com/fumin/lindhard/archive"
	"github.com/fumin/lindhard/gf"
)

const (
	fnameDone       = "done.txt"
	fnameStatistics = "statistics.txt"
	fnameArchive    = "chi0.sqlite"
	archiveKey      = "chi0"

	// Cluster extent per dimension and Matsubara frequency count.
	numK    = 8
	numFreq = 512
)

var (
	runDir = flag.String("d", filepath.Join("runs", "lindhard"), "run directory")
)

type Statistics struct {
	beta float64

	// ChiQStatic is Re chi0(Q, 0) at the nesting vector.
	ChiQStatic float64
	// ChiImagMax is the largest |Im chi0(q, 0)| over the Brillouin zone.
	// The static susceptibility is real, so this measures numerical error.
	ChiImagMax float64
}

func solve(dir string, beta float64) error {
	donePath := filepath.Join(dir, fnameDone)
	if _, err := os.Stat(donePath); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	bz, err := gf.NewCluster(numK, numK)
	if err != nil {
		return errors.Wrap(err, "")
	}
	nu, err := gf.NewMatsubara(beta, numFreq, gf.Fermion)
	if err != nil {
		return errors.Wrap(err, "")
	}
	g0, err := lindhard.FreeFermion[complex128](bz, nu, lindhard.SquareLattice(1), 0)
	if err != nil {
		return errors.Wrap(err, "")
	}
	chi, err := lindhard.Bubble(g0, lindhard.NewBubbleOptions().Workers(runtime.NumCPU()))
	if err != nil {
		return errors.Wrap(err, "")
	}

	var stats Statistics
	zero := numFreq / 2
	q := make([]int, 2)
	for i := 0; i < bz.Size(); i++ {
		bz.Point(i, q)
		stats.ChiImagMax = max(stats.ChiImagMax, math.Abs(imag(chi.At(q, zero))))
	}
	stats.ChiQStatic = real(chi.At([]int{numK / 2, numK / 2}, zero))

	ar, err := archive.Open(filepath.Join(dir, fnameArchive))
	if err != nil {
		return errors.Wrap(err, "")
	}
	err = archive.Put(ar, archiveKey, chi)
	if err1 := ar.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err != nil {
		return errors.Wrap(err, "")
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(dir, fnameStatistics), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}

	if err := os.WriteFile(donePath, nil, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func gather(dir string) ([]Statistics, error) {
	stats := make([]Statistics, 0)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for _, ent := range entries {
		beta, err := strconv.ParseFloat(ent.Name(), 64)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}

		sb, err := os.ReadFile(filepath.Join(dir, ent.Name(), fnameStatistics))
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		s := Statistics{beta: beta}
		if err := json.Unmarshal(sb, &s); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", ent))
		}
		stats = append(stats, s)
	}

	slices.SortFunc(stats, func(a, b Statistics) int { return cmp.Compare(a.beta, b.beta) })
	return stats, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	betas := make([]float64, 0)
	for bl := 0.0; bl <= 1.5; bl += 0.25 {
		betas = append(betas, math.Pow(10, bl))
	}

	for _, beta := range betas {
		dir := filepath.Join(*runDir, fmt.Sprintf("%f", beta))
		if err := solve(dir, beta); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%f", beta))
		}
		log.Printf("%f", beta)
	}

	stats, err := gather(*runDir)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("beta,chi_q,imag_max\n")
	for _, s := range stats {
		fmt.Printf("%f,%f,%g\n", s.beta, s.ChiQStatic, s.ChiImagMax)
	}

	// Fit chi0(Q, 0) ~ Beta^slope on the log-log scale. At perfect nesting
	// chi0(Q, 0) diverges as Beta grows, so the slope is positive.
	logB := make([]float64, 0, len(stats))
	logChi := make([]float64, 0, len(stats))
	for _, s := range stats {
		logB = append(logB, math.Log(s.beta))
		logChi = append(logChi, math.Log(s.ChiQStatic))
	}
	alpha, slope := stat.LinearRegression(logB, logChi, nil, false)
	fmt.Printf("log(chi_q) = %f + %f*log(beta)\n", alpha, slope)
	return nil
}
