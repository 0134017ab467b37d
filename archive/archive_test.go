package archive

import (
	"flag"
	"log"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fumin/lindhard/gf"
)

func TestPutGet(t *testing.T) {
	t.Parallel()
	a, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()

	g := newRand(t, []int{2, 4}, 2, 8, 11)
	if err := Put(a, "g0", g); err != nil {
		t.Fatalf("%+v", err)
	}

	got, err := Get[complex128](a, "g0")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(got.BZ.Dims(), g.BZ.Dims()) {
		t.Fatalf("%v %v", got.BZ.Dims(), g.BZ.Dims())
	}
	if got.Nu != g.Nu {
		t.Fatalf("%#v %#v", got.Nu, g.Nu)
	}
	if !slices.Equal(got.Data(), g.Data()) {
		t.Fatalf("%v %v", got.Data(), g.Data())
	}
}

func TestPutReplaces(t *testing.T) {
	t.Parallel()
	a, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()

	if err := Put(a, "g", newRand(t, []int{4}, 1, 8, 5)); err != nil {
		t.Fatalf("%+v", err)
	}
	// Overwrite with a function on a smaller mesh, so stale rows from the
	// first write would fail the completeness check in Get.
	g := newRand(t, []int{2}, 3, 4, 7)
	if err := Put(a, "g", g); err != nil {
		t.Fatalf("%+v", err)
	}

	got, err := Get[complex128](a, "g")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if got.Nu != g.Nu {
		t.Fatalf("%#v %#v", got.Nu, g.Nu)
	}
	if !slices.Equal(got.Data(), g.Data()) {
		t.Fatalf("%v %v", got.Data(), g.Data())
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()
	a, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()

	for _, key := range []string{"zebra", "chi0", "g0"} {
		if err := Put(a, key, newRand(t, []int{2}, 1, 2, 3)); err != nil {
			t.Fatalf("%+v", err)
		}
	}

	keys, err := a.Keys()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(keys, []string{"chi0", "g0", "zebra"}) {
		t.Fatalf("%v", keys)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	a, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()

	if _, err := Get[complex128](a, "nope"); err == nil {
		t.Fatalf("expected error")
	}
}

func newRand(t *testing.T, dims []int, beta float64, points int, seed uint64) *gf.KFreqFunc[complex128] {
	bz, err := gf.NewCluster(dims...)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	nu, err := gf.NewMatsubara(beta, points, gf.Fermion)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := gf.NewKFreq[complex128](bz, nu)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	rnd := rand.New(rand.NewPCG(seed, seed+1))
	for i := range g.Data() {
		g.Data()[i] = complex(rnd.Float64(), rnd.Float64())
	}
	return g
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
