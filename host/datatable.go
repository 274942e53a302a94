package host

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrRowNotFound = errors.New("data table row not found")

// DataTable rows are kept in Asset.Properties under these keys so they
// travel with the asset. Both the rows map and each row are replaced rather
// than mutated, so maps handed out earlier stay unchanged.
const (
	propRowStruct = "row_struct"
	propRows      = "rows"
)

// NewDataTable returns an unregistered DataTable asset with no rows.
func NewDataTable(assetPath, rowStruct string) *Asset {
	return &Asset{
		Path:       assetPath,
		Class:      ClassDataTable,
		Properties: map[string]any{propRowStruct: rowStruct},
	}
}

func initDataTable(a *Asset) {
	if a.Properties == nil {
		a.Properties = map[string]any{}
	}
	if _, ok := a.Properties[propRowStruct].(string); !ok {
		a.Properties[propRowStruct] = ""
	}
	rows := map[string]any{}
	if seeded, ok := a.Properties[propRows].(map[string]any); ok {
		for name, raw := range seeded {
			row, _ := raw.(map[string]any)
			rows[name] = maps.Clone(row)
		}
	}
	a.Properties[propRows] = rows
}

// RowStruct names the struct every row of the table follows.
func (a *Asset) RowStruct() string {
	s, _ := a.Properties[propRowStruct].(string)
	return s
}

func (a *Asset) rows() map[string]any {
	rows, _ := a.Properties[propRows].(map[string]any)
	return rows
}

// RowNames returns the table's row names in order.
func (a *Asset) RowNames() []string {
	return slices.Sorted(maps.Keys(a.rows()))
}

// Row returns one row's columns.
func (a *Asset) Row(name string) (map[string]any, bool) {
	row, ok := a.rows()[name].(map[string]any)
	return row, ok
}

// SetRow merges data into the named row, adding the row when it does not
// exist yet. It reports whether the row was added.
func (a *Asset) SetRow(name string, data map[string]any) (added bool, err error) {
	if a.Class != ClassDataTable {
		return false, fmt.Errorf("%w: %s is a %s, expected %s", ErrWrongAssetClass, a.Path, a.Class, ClassDataTable)
	}
	if name == "" {
		return false, errors.New("row name is empty")
	}
	old, exists := a.Row(name)
	row := maps.Clone(old)
	if row == nil {
		row = map[string]any{}
	}
	maps.Copy(row, data)

	rows := maps.Clone(a.rows())
	if rows == nil {
		rows = map[string]any{}
	}
	rows[name] = row
	a.Properties[propRows] = rows
	return !exists, nil
}

// DeleteRow removes the named row.
func (a *Asset) DeleteRow(name string) error {
	if _, ok := a.Row(name); !ok {
		return fmt.Errorf("%w: %q in %s", ErrRowNotFound, name, a.Path)
	}
	rows := maps.Clone(a.rows())
	delete(rows, name)
	a.Properties[propRows] = rows
	return nil
}
