package core

import (
	"log/slog"
)

// OpKind identifies an operation record variant.
type OpKind string

const (
	OpMerge        OpKind = "merge"
	OpSplit        OpKind = "split"
	OpEmptyColumns OpKind = "empty_columns"
)

// Operation is one reproducible column transform. Records hold parameters,
// not results, so they can be replayed against a different table.
type Operation interface {
	Kind() OpKind
	// Sources lists the columns the operation reads.
	Sources() []string
	// Targets lists the column names the operation asks to create.
	Targets() []string
	run(t *Table) (OpResult, error)
}

// MergeOp merges SourceColumns into NewColumn.
type MergeOp struct {
	SourceColumns []string
	NewColumn     string
	Separator     string
}

func (MergeOp) Kind() OpKind { return OpMerge }
func (o MergeOp) Sources() []string { return append([]string(nil), o.SourceColumns...) }
func (o MergeOp) Targets() []string { return []string{o.NewColumn} }
func (o MergeOp) run(t *Table) (OpResult, error) {
	return Merge(t, o.SourceColumns, o.NewColumn, o.Separator)
}

// SplitOp splits SourceColumn on Delimiter into NewColumns.
type SplitOp struct {
	SourceColumn string
	Delimiter    string
	NewColumns   []string
}

func (SplitOp) Kind() OpKind { return OpSplit }
func (o SplitOp) Sources() []string { return []string{o.SourceColumn} }
func (o SplitOp) Targets() []string { return append([]string(nil), o.NewColumns...) }
func (o SplitOp) run(t *Table) (OpResult, error) {
	return Split(t, o.SourceColumn, o.Delimiter, o.NewColumns)
}

// EmptyColumnsOp adds empty columns.
type EmptyColumnsOp struct {
	Names []string
}

func (EmptyColumnsOp) Kind() OpKind { return OpEmptyColumns }
func (EmptyColumnsOp) Sources() []string { return nil }
func (o EmptyColumnsOp) Targets() []string { return append([]string(nil), o.Names...) }
func (o EmptyColumnsOp) run(t *Table) (OpResult, error) {
	return AddEmpty(t, o.Names)
}

// Action decides what happens when an invocation hits a given condition.
type Action int

const (
	Fail Action = iota
	Skip
)

// Policy controls how invoke treats schema drift.
type Policy struct {
	OnMissing   Action // a source column is absent
	OnCollision Action // a target name is already a column or reserved
}

var (
	// StrictPolicy is used for manual operations: every problem is reported.
	StrictPolicy = Policy{OnMissing: Fail, OnCollision: Fail}
	// ReplayPolicy is used for template replay: drift skips the operation.
	ReplayPolicy = Policy{OnMissing: Skip, OnCollision: Skip}
)

// Outcome describes what one invocation did.
type Outcome struct {
	Kind    OpKind   `json:"kind"`
	Applied bool     `json:"applied"`
	Created []string `json:"created,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// invoke runs op against t under policy. reserved reports names that must be
// treated as taken even when t has no such column (placeholders in the
// column order).
//
// A skipped invocation returns t unchanged, Applied=false and a nil error.
func invoke(t *Table, op Operation, reserved func(string) bool, p Policy) (*Table, Outcome, error) {
	out := Outcome{Kind: op.Kind()}

	for _, src := range op.Sources() {
		if !t.Has(src) {
			err := &ColumnNotFoundError{Op: string(op.Kind()), Column: src}
			if p.OnMissing == Skip {
				out.Reason = err.Error()
				return t, out, nil
			}
			return t, out, err
		}
	}

	if reserved != nil && op.Kind() != OpEmptyColumns {
		for _, name := range op.Targets() {
			if !t.Has(name) && reserved(name) {
				err := &DuplicateColumnNameError{Op: string(op.Kind()), Column: name}
				if p.OnCollision == Skip {
					out.Reason = err.Error()
					return t, out, nil
				}
				return t, out, err
			}
		}
	}

	res, err := op.run(t)
	if err != nil {
		switch {
		case isColumnMissing(err) && p.OnMissing == Skip,
			isCollision(err) && p.OnCollision == Skip:
			out.Reason = err.Error()
			return t, out, nil
		}
		return t, out, err
	}

	out.Created = res.Created
	out.Skipped = res.Skipped
	out.Applied = len(res.Created) > 0
	if !out.Applied {
		out.Reason = "no columns created"
	}
	return t.withColumns(res.Columns), out, nil
}

// replay runs ops in order under ReplayPolicy. It stops at the first
// unexpected failure and returns the table as it stood after the last
// successful step, together with that failure.
func replay(t *Table, ops []Operation, reserved func(string) bool) (*Table, []Outcome, int, error) {
	outcomes := make([]Outcome, 0, len(ops))
	for i, op := range ops {
		next, out, err := invoke(t, op, reserved, ReplayPolicy)
		if err != nil {
			return t, outcomes, i, err
		}
		if !out.Applied {
			slog.Debug("replay: operation skipped", "step", i+1, "kind", op.Kind(), "reason", out.Reason)
		}
		outcomes = append(outcomes, out)
		t = next
	}
	return t, outcomes, -1, nil
}
