package types

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"time"

	"github.com/vectra-quant/backsweep/pkg/errors"
)

// Candle is one OHLCV record for a fixed time interval.
type Candle struct {
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
	// IsGap marks a synthetic row inserted by the ingestion layer to fill a
	// session gap. Gap rows carry forward the previous close.
	IsGap bool `csv:"is_gap"`
}

// Core column names every dataset carries. Indicator dependencies on these
// names are always satisfied without registration.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// CoreColumns lists the float64 columns of every CoreDataset.
var CoreColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// CoreDataset is an immutable columnar table of candles. Timestamps are
// strictly increasing UTC. Once constructed it is never written to by any
// downstream stage; workers share it by reference.
type CoreDataset struct {
	times  []time.Time
	open   []float64
	high   []float64
	low    []float64
	close_ []float64
	volume []float64
	isGap  []bool
}

// NewCoreDataset builds a CoreDataset from candles, validating the schema
// invariants: at least one row and strictly increasing timestamps.
func NewCoreDataset(candles []Candle) (*CoreDataset, error) {
	if len(candles) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "core dataset requires at least one candle")
	}

	ds := &CoreDataset{
		times:  make([]time.Time, len(candles)),
		open:   make([]float64, len(candles)),
		high:   make([]float64, len(candles)),
		low:    make([]float64, len(candles)),
		close_: make([]float64, len(candles)),
		volume: make([]float64, len(candles)),
		isGap:  make([]bool, len(candles)),
	}

	for i, c := range candles {
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeTimestampOrder,
				"timestamps must be strictly increasing: row %d (%s) not after row %d (%s)",
				i, c.Time.UTC().Format(time.RFC3339), i-1, candles[i-1].Time.UTC().Format(time.RFC3339))
		}

		ds.times[i] = c.Time.UTC()
		ds.open[i] = c.Open
		ds.high[i] = c.High
		ds.low[i] = c.Low
		ds.close_[i] = c.Close
		ds.volume[i] = c.Volume
		ds.isGap[i] = c.IsGap
	}

	return ds, nil
}

// Len returns the number of candles.
func (d *CoreDataset) Len() int {
	return len(d.times)
}

// Time returns the timestamp at index i.
func (d *CoreDataset) Time(i int) time.Time {
	return d.times[i]
}

// Times returns the timestamp column. Callers must not modify it.
func (d *CoreDataset) Times() []time.Time {
	return d.times
}

// IsGap reports whether row i is a synthetic gap row.
func (d *CoreDataset) IsGap(i int) bool {
	return d.isGap[i]
}

// Column returns one of the core float64 columns by name. Callers must not
// modify the returned slice.
func (d *CoreDataset) Column(name string) ([]float64, error) {
	switch name {
	case ColumnOpen:
		return d.open, nil
	case ColumnHigh:
		return d.high, nil
	case ColumnLow:
		return d.low, nil
	case ColumnClose:
		return d.close_, nil
	case ColumnVolume:
		return d.volume, nil
	default:
		return nil, errors.Newf(errors.ErrCodeColumnNotFound, "core column %q not found", name)
	}
}

// IsCoreColumn reports whether name refers to a core dataset column.
func IsCoreColumn(name string) bool {
	switch name {
	case ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume:
		return true
	default:
		return false
	}
}

// CoreHash computes a SHA-256 digest over the binary encoding of every core
// column. Enrichment hashes the core columns before and after computing
// indicators; a mismatch means a compute function mutated its input, which is
// a programming error.
func (d *CoreDataset) CoreHash() [32]byte {
	h := sha256.New()

	var buf [8]byte

	for _, t := range d.times {
		binary.BigEndian.PutUint64(buf[:], uint64(t.UnixNano()))
		h.Write(buf[:])
	}

	for _, col := range [][]float64{d.open, d.high, d.low, d.close_, d.volume} {
		for _, v := range col {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}

	for _, g := range d.isGap {
		if g {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	var digest [32]byte

	copy(digest[:], h.Sum(nil))

	return digest
}
