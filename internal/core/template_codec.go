package core

// template_codec.go converts templates to and from external representations:
// plain nested maps (for generic stores), JSON and YAML. The wire layout is
//
//	name, description, created_at,
//	operations: [{type: merge|split|empty_columns, ...parameters}],
//	target_order: [...], target_selection: [...]
//
// FromMap also accepts the legacy layout of saved configurations, where
// merges, splits and empty columns were kept in separate lists under
// merge_operations, split_operations and empty_columns.

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// legacyTimeLayout is the created_at format of legacy saved configurations.
const legacyTimeLayout = "2006-01-02 15:04:05"

type templateRecord struct {
	ID              string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string            `json:"name" yaml:"name"`
	Description     string            `json:"description" yaml:"description"`
	CreatedAt       time.Time         `json:"created_at" yaml:"created_at"`
	Operations      []operationRecord `json:"operations" yaml:"operations"`
	TargetOrder     []string          `json:"target_order" yaml:"target_order"`
	TargetSelection []string          `json:"target_selection" yaml:"target_selection"`
}

type operationRecord struct {
	Type          OpKind   `json:"type" yaml:"type"`
	SourceColumns []string `json:"source_columns,omitempty" yaml:"source_columns,omitempty"`
	SourceColumn  string   `json:"source_column,omitempty" yaml:"source_column,omitempty"`
	NewColumn     string   `json:"new_column,omitempty" yaml:"new_column,omitempty"`
	NewColumns    []string `json:"new_columns,omitempty" yaml:"new_columns,omitempty"`
	Separator     string   `json:"separator,omitempty" yaml:"separator,omitempty"`
	Delimiter     string   `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Names         []string `json:"names,omitempty" yaml:"names,omitempty"`
}

func toOperationRecord(op Operation) operationRecord {
	switch o := op.(type) {
	case MergeOp:
		return operationRecord{Type: OpMerge, SourceColumns: o.SourceColumns, NewColumn: o.NewColumn, Separator: o.Separator}
	case SplitOp:
		return operationRecord{Type: OpSplit, SourceColumn: o.SourceColumn, Delimiter: o.Delimiter, NewColumns: o.NewColumns}
	case EmptyColumnsOp:
		return operationRecord{Type: OpEmptyColumns, Names: o.Names}
	}
	return operationRecord{Type: op.Kind()}
}

func (r operationRecord) operation() (Operation, error) {
	switch r.Type {
	case OpMerge:
		return MergeOp{SourceColumns: r.SourceColumns, NewColumn: r.NewColumn, Separator: r.Separator}, nil
	case OpSplit:
		return SplitOp{SourceColumn: r.SourceColumn, Delimiter: r.Delimiter, NewColumns: r.NewColumns}, nil
	case OpEmptyColumns:
		return EmptyColumnsOp{Names: r.Names}, nil
	}
	return nil, fmt.Errorf("decode template: unknown operation type %q", r.Type)
}

func (t *Template) record() templateRecord {
	rec := templateRecord{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
		Operations:      make([]operationRecord, len(t.Operations)),
		TargetOrder:     nonNil(t.TargetOrder),
		TargetSelection: nonNil(t.TargetSelection),
	}
	for i, op := range t.Operations {
		rec.Operations[i] = toOperationRecord(op)
	}
	return rec
}

func (rec templateRecord) template() (*Template, error) {
	t := &Template{
		ID:              rec.ID,
		Name:            rec.Name,
		Description:     rec.Description,
		CreatedAt:       rec.CreatedAt,
		TargetOrder:     rec.TargetOrder,
		TargetSelection: rec.TargetSelection,
	}
	for i, r := range rec.Operations {
		op, err := r.operation()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		t.Operations = append(t.Operations, op)
	}
	return t, nil
}

// MarshalJSON implements json.Marshaler.
func (t Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.record())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Template) UnmarshalJSON(data []byte) error {
	var rec templateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	out, err := rec.template()
	if err != nil {
		return err
	}
	*t = *out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Template) MarshalYAML() (any, error) {
	return t.record(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Template) UnmarshalYAML(value *yaml.Node) error {
	var rec templateRecord
	if err := value.Decode(&rec); err != nil {
		return err
	}
	out, err := rec.template()
	if err != nil {
		return err
	}
	*t = *out
	return nil
}

// EncodeTemplateYAML writes tpl as a YAML document.
func EncodeTemplateYAML(w io.Writer, tpl *Template) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tpl); err != nil {
		return fmt.Errorf("encode template yaml: %w", err)
	}
	return enc.Close()
}

// DecodeTemplateYAML reads a single template from YAML. The legacy layout is
// accepted as well.
func DecodeTemplateYAML(r io.Reader) (*Template, error) {
	var m map[string]any
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode template yaml: %w", err)
	}
	return TemplateFromMap(m)
}

// DecodeTemplateJSON reads a single template from JSON. The legacy layout is
// accepted as well.
func DecodeTemplateJSON(r io.Reader) (*Template, error) {
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode template json: %w", err)
	}
	return TemplateFromMap(m)
}

// ToMap returns tpl as plain nested maps, lists, strings and a timestamp.
func (t *Template) ToMap() map[string]any {
	ops := make([]any, len(t.Operations))
	for i, op := range t.Operations {
		r := toOperationRecord(op)
		m := map[string]any{"type": string(r.Type)}
		switch r.Type {
		case OpMerge:
			m["source_columns"] = stringsToAny(r.SourceColumns)
			m["new_column"] = r.NewColumn
			m["separator"] = r.Separator
		case OpSplit:
			m["source_column"] = r.SourceColumn
			m["delimiter"] = r.Delimiter
			m["new_columns"] = stringsToAny(r.NewColumns)
		case OpEmptyColumns:
			m["names"] = stringsToAny(r.Names)
		}
		ops[i] = m
	}
	m := map[string]any{
		"name":             t.Name,
		"description":      t.Description,
		"created_at":       t.CreatedAt,
		"operations":       ops,
		"target_order":     stringsToAny(t.TargetOrder),
		"target_selection": stringsToAny(t.TargetSelection),
	}
	if t.ID != "" {
		m["id"] = t.ID
	}
	return m
}

// TemplateFromMap rebuilds a template from the ToMap layout or the legacy
// configuration layout.
func TemplateFromMap(m map[string]any) (*Template, error) {
	if m == nil {
		return nil, fmt.Errorf("decode template: empty document")
	}
	if cfg, ok := m["config"].(map[string]any); ok {
		return legacyTemplate(m, cfg)
	}
	if _, ok := m["merge_operations"]; ok {
		return legacyTemplate(m, m)
	}

	t := &Template{
		ID:          str(m["id"]),
		Name:        str(m["name"]),
		Description: str(m["description"]),
	}
	var err error
	if t.CreatedAt, err = timeValue(m["created_at"]); err != nil {
		return nil, err
	}
	if t.TargetOrder, err = strList(m["target_order"]); err != nil {
		return nil, fmt.Errorf("decode template: target_order: %w", err)
	}
	if t.TargetSelection, err = strList(m["target_selection"]); err != nil {
		return nil, fmt.Errorf("decode template: target_selection: %w", err)
	}

	rawOps, err := list(m["operations"])
	if err != nil {
		return nil, fmt.Errorf("decode template: operations: %w", err)
	}
	for i, raw := range rawOps {
		om, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode template: operation %d: not a mapping", i+1)
		}
		rec := operationRecord{
			Type:         OpKind(str(om["type"])),
			SourceColumn: str(om["source_column"]),
			NewColumn:    str(om["new_column"]),
			Separator:    str(om["separator"]),
			Delimiter:    str(om["delimiter"]),
		}
		if rec.SourceColumns, err = strList(om["source_columns"]); err != nil {
			return nil, fmt.Errorf("decode template: operation %d: %w", i+1, err)
		}
		if rec.NewColumns, err = strList(om["new_columns"]); err != nil {
			return nil, fmt.Errorf("decode template: operation %d: %w", i+1, err)
		}
		if rec.Names, err = strList(om["names"]); err != nil {
			return nil, fmt.Errorf("decode template: operation %d: %w", i+1, err)
		}
		op, err := rec.operation()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		t.Operations = append(t.Operations, op)
	}
	return t, nil
}

// NameFromFile names an unnamed template after the stem of the file it was
// read from. Legacy saves kept the name as the key of the enclosing mapping,
// not inside the record. A template that already has a name is unchanged.
func (t *Template) NameFromFile(file string) {
	if strings.TrimSpace(t.Name) != "" {
		return
	}
	base := filepath.Base(strings.ReplaceAll(file, "\\", "/"))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		return
	}
	t.Name = stem
}

// legacyTemplate converts the legacy layout. Operations replay in the legacy
// order: merges, then splits, then empty columns.
func legacyTemplate(outer, cfg map[string]any) (*Template, error) {
	t := &Template{
		Name:        str(outer["name"]),
		Description: str(cfg["description"]),
	}
	if t.Description == "" {
		t.Description = str(outer["description"])
	}
	var err error
	if t.CreatedAt, err = timeValue(outer["created_at"]); err != nil {
		return nil, err
	}

	merges, err := list(cfg["merge_operations"])
	if err != nil {
		return nil, fmt.Errorf("decode legacy template: merge_operations: %w", err)
	}
	for i, raw := range merges {
		mm, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode legacy template: merge %d: not a mapping", i+1)
		}
		cols, err := strList(mm["columns"])
		if err != nil {
			return nil, fmt.Errorf("decode legacy template: merge %d: %w", i+1, err)
		}
		t.Operations = append(t.Operations, MergeOp{SourceColumns: cols, NewColumn: str(mm["new_column"]), Separator: str(mm["separator"])})
	}

	splits, err := list(cfg["split_operations"])
	if err != nil {
		return nil, fmt.Errorf("decode legacy template: split_operations: %w", err)
	}
	for i, raw := range splits {
		sm, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode legacy template: split %d: not a mapping", i+1)
		}
		names, err := strList(sm["new_columns"])
		if err != nil {
			return nil, fmt.Errorf("decode legacy template: split %d: %w", i+1, err)
		}
		t.Operations = append(t.Operations, SplitOp{SourceColumn: str(sm["column"]), Delimiter: str(sm["delimiter"]), NewColumns: names})
	}

	empties, err := strList(cfg["empty_columns"])
	if err != nil {
		return nil, fmt.Errorf("decode legacy template: empty_columns: %w", err)
	}
	if len(empties) > 0 {
		t.Operations = append(t.Operations, EmptyColumnsOp{Names: empties})
	}

	if t.TargetOrder, err = strList(cfg["column_order"]); err != nil {
		return nil, fmt.Errorf("decode legacy template: column_order: %w", err)
	}
	selected, err := strList(cfg["selected_columns"])
	if err != nil {
		return nil, fmt.Errorf("decode legacy template: selected_columns: %w", err)
	}
	sel := make(map[string]bool, len(selected))
	for _, s := range selected {
		sel[s] = true
	}
	for _, n := range t.TargetOrder {
		if sel[n] {
			t.TargetSelection = append(t.TargetSelection, n)
		}
	}
	return t, nil
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return CellText(v)
}

func list(v any) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	case []string:
		return stringsToAny(x), nil
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list, got %T", v)
}

func strList(v any) ([]string, error) {
	if s, ok := v.([]string); ok {
		return append([]string(nil), s...), nil
	}
	items, err := list(v)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = str(it)
	}
	return out, nil
}

func timeValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x, nil
	case string:
		if x == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{time.RFC3339Nano, legacyTimeLayout} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("decode template: created_at: unrecognized time %q", x)
	}
	return time.Time{}, fmt.Errorf("decode template: created_at: unexpected %T", v)
}

func stringsToAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
