package enrich

import (
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
)

// Dataset is a core dataset plus the indicator columns computed for it.
// The core dataset is held by reference and never written to; indicator
// columns are owned by the Dataset.
type Dataset struct {
	core    *types.CoreDataset
	names   []string
	columns map[string][]float64
}

// NewDataset wraps a core dataset with no indicator columns yet.
func NewDataset(core *types.CoreDataset) *Dataset {
	return &Dataset{
		core:    core,
		names:   nil,
		columns: make(map[string][]float64),
	}
}

// Core returns the underlying core dataset.
func (d *Dataset) Core() *types.CoreDataset {
	return d.core
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.core.Len()
}

// Column returns a named column, searching indicator columns first and
// falling through to the core columns. Core column names cannot be shadowed
// because addColumn rejects them.
func (d *Dataset) Column(name string) ([]float64, error) {
	if col, ok := d.columns[name]; ok {
		return col, nil
	}

	return d.core.Column(name)
}

// HasColumn reports whether name resolves to any column.
func (d *Dataset) HasColumn(name string) bool {
	if _, ok := d.columns[name]; ok {
		return true
	}

	return types.IsCoreColumn(name)
}

// IndicatorColumns returns the indicator column names in the order they were
// added.
func (d *Dataset) IndicatorColumns() []string {
	names := make([]string, len(d.names))
	copy(names, d.names)

	return names
}

func (d *Dataset) addColumn(name string, values []float64) error {
	if types.IsCoreColumn(name) {
		return errors.Newf(errors.ErrCodeIndicatorCompute, "indicator output %q would shadow a core column", name)
	}

	if len(values) != d.core.Len() {
		return errors.Newf(errors.ErrCodeColumnLengthMismatch,
			"indicator output %q has %d rows, dataset has %d", name, len(values), d.core.Len())
	}

	if _, exists := d.columns[name]; !exists {
		d.names = append(d.names, name)
	}

	d.columns[name] = values

	return nil
}
