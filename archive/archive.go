// Package archive persists Green's functions and susceptibilities to a
// keyed on-disk sqlite archive for reuse by downstream analysis.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/lindhard/gf"
)

const (
	tableFuncs = "funcs"
	tableVals  = "vals"
)

// An Archive stores complex mesh functions under string keys.
// Values are stored in double precision regardless of the precision of the
// function written.
type Archive struct {
	Path string

	db *sql.DB
}

// Open opens the archive at path, creating it if necessary.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &Archive{Path: path, db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Keys returns all keys in the archive in sorted order.
func (a *Archive) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT key FROM %s ORDER BY key`, tableFuncs)
	rows, err := a.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return keys, nil
}

// Put stores g under key, replacing any previous value.
func Put[C algofft.Complex](a *Archive, key string, g *gf.KFreqFunc[C]) error {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()

	if err := deleteKey(ctx, a.db, key); err != nil {
		return errors.Wrap(err, "")
	}

	dims := make([]string, 0, len(g.BZ.Dims()))
	for _, d := range g.BZ.Dims() {
		dims = append(dims, strconv.Itoa(d))
	}
	sqlStr := fmt.Sprintf(`INSERT INTO %s (key, dims, beta, points, stat) VALUES (?, ?, ?, ?, ?)`, tableFuncs)
	if _, err := a.db.ExecContext(ctx, sqlStr, key, strings.Join(dims, ","), g.Nu.Beta, g.Nu.Points, int(g.Nu.Stat)); err != nil {
		return errors.Wrap(err, key)
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (key, i, re, im) VALUES (?, ?, ?, ?)`, tableVals)
	for i, v := range g.Data() {
		v128 := complex128(v)
		if _, err := a.db.ExecContext(ctx, sqlStr, key, i, real(v128), imag(v128)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %d", key, i))
		}
	}
	return nil
}

// Get reads the function stored under key.
func Get[C algofft.Complex](a *Archive, key string) (*gf.KFreqFunc[C], error) {
	ctx, cancel := context.WithTimeout(context.Background(), 48*time.Hour)
	defer cancel()

	sqlStr := fmt.Sprintf(`SELECT dims, beta, points, stat FROM %s WHERE key=?`, tableFuncs)
	var dimStr string
	var beta float64
	var points, stat int
	if err := a.db.QueryRowContext(ctx, sqlStr, key).Scan(&dimStr, &beta, &points, &stat); err != nil {
		return nil, errors.Wrap(err, key)
	}

	dimFields := strings.Split(dimStr, ",")
	dims := make([]int, 0, len(dimFields))
	for _, s := range dimFields {
		d, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrap(err, dimStr)
		}
		dims = append(dims, d)
	}
	bz, err := gf.NewCluster(dims...)
	if err != nil {
		return nil, errors.Wrap(err, key)
	}
	nu, err := gf.NewMatsubara(beta, points, gf.Statistic(stat))
	if err != nil {
		return nil, errors.Wrap(err, key)
	}
	g, err := gf.NewKFreq[C](bz, nu)
	if err != nil {
		return nil, errors.Wrap(err, key)
	}

	sqlStr = fmt.Sprintf(`SELECT i, re, im FROM %s WHERE key=? ORDER BY i`, tableVals)
	rows, err := a.db.QueryContext(ctx, sqlStr, key)
	if err != nil {
		return nil, errors.Wrap(err, key)
	}
	defer rows.Close()

	data := g.Data()
	n := 0
	for rows.Next() {
		var i int
		var re, im float64
		if err := rows.Scan(&i, &re, &im); err != nil {
			return nil, errors.Wrap(err, key)
		}
		if i < 0 || i >= len(data) {
			return nil, errors.Errorf("%s %d %d", key, i, len(data))
		}
		data[i] = C(complex(re, im))
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, key)
	}
	if n != len(data) {
		return nil, errors.Errorf("%s %d %d", key, n, len(data))
	}
	return g, nil
}

func deleteKey(ctx context.Context, db *sql.DB, key string) error {
	for _, table := range []string{tableVals, tableFuncs} {
		sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE key=?`, table)
		if _, err := db.ExecContext(ctx, sqlStr, key); err != nil {
			return errors.Wrap(err, key)
		}
	}
	return nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, dims TEXT, beta REAL, points INTEGER, stat INTEGER) STRICT`, tableFuncs)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT, i INTEGER, re REAL, im REAL, PRIMARY KEY (key, i)) STRICT`, tableVals)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
