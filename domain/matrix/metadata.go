package matrix

import (
	"fmt"
	"strings"

	"goord/domain/core"
)

// SampleIDColumn is the forced header of the first metadata column.
// Whatever the file calls it, ingestion renames it to this.
const SampleIDColumn = "SampleID"

// Metadata is a table of per-sample variables keyed by SampleID.
// All values are held as strings; semantic type (categorical vs
// continuous) is derived at classification time, never stored.
type Metadata struct {
	ids     []core.SampleID
	columns []core.VariableKey
	values  map[core.VariableKey][]string
	index   map[core.SampleID]int
}

// NewMetadata builds a metadata table from a header row and data rows.
// The first header cell is replaced by SampleIDColumn. Sample IDs are
// trimmed and must be unique and non-empty.
func NewMetadata(header []string, rows [][]string) (*Metadata, error) {
	if len(header) < 2 {
		return nil, core.NewValidationError("metadata header", "need a SampleID column and at least one variable column")
	}

	columns := make([]core.VariableKey, 0, len(header)-1)
	seen := map[core.VariableKey]bool{}
	for _, h := range header[1:] {
		key := core.VariableKey(strings.TrimSpace(h))
		if key == "" {
			return nil, core.NewValidationError("metadata header", "variable column with empty name")
		}
		if seen[key] {
			return nil, core.NewValidationError("metadata header", fmt.Sprintf("duplicate variable column %q", key))
		}
		seen[key] = true
		columns = append(columns, key)
	}

	md := &Metadata{
		columns: columns,
		values:  make(map[core.VariableKey][]string, len(columns)),
		index:   make(map[core.SampleID]int, len(rows)),
	}
	for _, key := range columns {
		md.values[key] = make([]string, 0, len(rows))
	}

	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		id := core.NewSampleID(row[0])
		if id == "" {
			return nil, core.NewValidationError("metadata", fmt.Sprintf("row %d has an empty sample ID", r+2))
		}
		if prev, dup := md.index[id]; dup {
			return nil, fmt.Errorf("%w: %q at metadata rows %d and %d", core.ErrDuplicateSampleID, id, prev+2, r+2)
		}
		md.index[id] = len(md.ids)
		md.ids = append(md.ids, id)
		for c, key := range columns {
			v := ""
			if c+1 < len(row) {
				v = strings.TrimSpace(row[c+1])
			}
			md.values[key] = append(md.values[key], v)
		}
	}

	if len(md.ids) == 0 {
		return nil, core.NewValidationError("metadata", "no data rows")
	}
	return md, nil
}

// Size returns the number of samples
func (md *Metadata) Size() int {
	return len(md.ids)
}

// IDs returns the sample order. Callers must not mutate it.
func (md *Metadata) IDs() []core.SampleID {
	return md.ids
}

// Variables returns the variable columns in file order
func (md *Metadata) Variables() []core.VariableKey {
	return md.columns
}

// HasVariable reports whether the table has a column named key
func (md *Metadata) HasVariable(key core.VariableKey) bool {
	_, ok := md.values[key]
	return ok
}

// Column returns the values of one variable in sample order
func (md *Metadata) Column(key core.VariableKey) ([]string, error) {
	vals, ok := md.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrVariableNotFound, key)
	}
	return vals, nil
}

// Value returns a single cell
func (md *Metadata) Value(id core.SampleID, key core.VariableKey) (string, error) {
	i, ok := md.index[id]
	if !ok {
		return "", core.NewNotFoundError("sample", id.String())
	}
	vals, err := md.Column(key)
	if err != nil {
		return "", err
	}
	return vals[i], nil
}

// Contains reports whether the table has a row for id
func (md *Metadata) Contains(id core.SampleID) bool {
	_, ok := md.index[id]
	return ok
}

// Subset returns a new table restricted to ids, in the given order
func (md *Metadata) Subset(ids []core.SampleID) (*Metadata, error) {
	out := &Metadata{
		columns: md.columns,
		values:  make(map[core.VariableKey][]string, len(md.columns)),
		index:   make(map[core.SampleID]int, len(ids)),
	}
	for _, key := range md.columns {
		out.values[key] = make([]string, 0, len(ids))
	}
	for _, id := range ids {
		i, ok := md.index[id]
		if !ok {
			return nil, core.NewNotFoundError("sample", id.String())
		}
		out.index[id] = len(out.ids)
		out.ids = append(out.ids, id)
		for _, key := range md.columns {
			out.values[key] = append(out.values[key], md.values[key][i])
		}
	}
	if len(out.ids) == 0 {
		return nil, core.ErrNoCommonSamples
	}
	return out, nil
}
