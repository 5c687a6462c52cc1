package core

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleTemplate() *Template {
	return &Template{
		ID:   "0b7c6f1e-3d4c-4a53-9a61-1c1f6b0c2d11",
		Name: "customers",
		Operations: []Operation{
			MergeOp{SourceColumns: []string{"first", "last"}, NewColumn: "full", Separator: " "},
			SplitOp{SourceColumn: "addr", Delimiter: ",", NewColumns: []string{"street", "city"}},
			EmptyColumnsOp{Names: []string{"notes"}},
		},
		TargetOrder:     []string{"full", "city", "notes"},
		TargetSelection: []string{"full", "notes"},
		Description:     "monthly export",
		CreatedAt:       testNow,
	}
}

func TestTemplate_MapRoundTrip(t *testing.T) {
	tpl := sampleTemplate()

	got, err := TemplateFromMap(tpl.ToMap())
	if err != nil {
		t.Fatalf("TemplateFromMap() error = %v", err)
	}
	if !reflect.DeepEqual(got, tpl) {
		t.Errorf("TemplateFromMap(ToMap()) = %+v, want %+v", got, tpl)
	}
}

func TestTemplate_JSON(t *testing.T) {
	tpl := sampleTemplate()

	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	for _, key := range []string{`"type":"split"`, `"target_selection"`, `"new_columns":["street","city"]`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("JSON missing %s: %s", key, data)
		}
	}

	var got Template
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(&got, tpl) {
		t.Errorf("JSON round trip = %+v, want %+v", got, *tpl)
	}
}

func TestTemplate_YAML(t *testing.T) {
	tpl := sampleTemplate()

	var buf bytes.Buffer
	if err := EncodeTemplateYAML(&buf, tpl); err != nil {
		t.Fatalf("EncodeTemplateYAML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "type: empty_columns") {
		t.Errorf("YAML missing operation type:\n%s", buf.String())
	}

	got, err := DecodeTemplateYAML(&buf)
	if err != nil {
		t.Fatalf("DecodeTemplateYAML() error = %v", err)
	}
	if got.Name != tpl.Name || !got.CreatedAt.Equal(tpl.CreatedAt) {
		t.Errorf("decoded name/created_at = %q/%v, want %q/%v", got.Name, got.CreatedAt, tpl.Name, tpl.CreatedAt)
	}
	if !reflect.DeepEqual(got.Operations, tpl.Operations) {
		t.Errorf("decoded operations = %+v, want %+v", got.Operations, tpl.Operations)
	}
	if !reflect.DeepEqual(got.TargetSelection, tpl.TargetSelection) {
		t.Errorf("decoded selection = %v, want %v", got.TargetSelection, tpl.TargetSelection)
	}
}

func TestTemplateFromMap_Legacy(t *testing.T) {
	doc := `{
		"name": "old",
		"created_at": "2023-11-02 08:15:00",
		"config": {
			"description": "saved before operation logs",
			"merge_operations": [{"columns": ["a", "b"], "separator": "-", "new_column": "ab"}],
			"split_operations": [{"column": "c", "delimiter": " ", "new_columns": ["c1", "c2"]}],
			"empty_columns": ["memo"],
			"column_order": ["ab", "c1", "memo", "a"],
			"selected_columns": ["memo", "ab"]
		}
	}`

	got, err := DecodeTemplateJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeTemplateJSON() error = %v", err)
	}

	wantOps := []Operation{
		MergeOp{SourceColumns: []string{"a", "b"}, NewColumn: "ab", Separator: "-"},
		SplitOp{SourceColumn: "c", Delimiter: " ", NewColumns: []string{"c1", "c2"}},
		EmptyColumnsOp{Names: []string{"memo"}},
	}
	if !reflect.DeepEqual(got.Operations, wantOps) {
		t.Errorf("Operations = %+v, want %+v", got.Operations, wantOps)
	}
	if want := []string{"ab", "memo"}; !reflect.DeepEqual(got.TargetSelection, want) {
		t.Errorf("TargetSelection = %v, want %v", got.TargetSelection, want)
	}
	if want := time.Date(2023, 11, 2, 8, 15, 0, 0, time.UTC); !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
	if got.Description != "saved before operation logs" {
		t.Errorf("Description = %q", got.Description)
	}
}

func TestTemplateFromMap_LegacyRecordWithoutName(t *testing.T) {
	// A record as saved by the legacy tool: the name is the key it was
	// stored under, not a field.
	doc := `{
		"config": {
			"merge_operations": [{"columns": ["first", "last"], "separator": " ", "new_column": "full"}],
			"split_operations": [],
			"empty_columns": [],
			"column_order": ["first", "last", "full"],
			"selected_columns": ["full"]
		},
		"created_at": "2024-01-01 10:00:00",
		"description": "d"
	}`

	got, err := DecodeTemplateJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeTemplateJSON() error = %v", err)
	}
	if got.Name != "" {
		t.Fatalf("Name = %q, want empty before naming", got.Name)
	}

	got.NameFromFile("/tmp/exports/monthly.json")
	if got.Name != "monthly" {
		t.Errorf("Name = %q, want %q", got.Name, "monthly")
	}
	s := NewSession("test", nil)
	if err := s.ImportTemplate(context.Background(), got); err != nil {
		t.Errorf("ImportTemplate() error = %v", err)
	}
	if got.Description != "d" || len(got.Operations) != 1 {
		t.Errorf("template = %+v", got)
	}
}

func TestTemplate_NameFromFile(t *testing.T) {
	tests := []struct {
		name string
		have string
		file string
		want string
	}{
		{name: "stem of path", file: "dir/monthly.yaml", want: "monthly"},
		{name: "windows upload name", file: `C:\Users\me\weekly.json`, want: "weekly"},
		{name: "keeps dotted stem", file: "q1.report.yml", want: "q1.report"},
		{name: "existing name wins", have: "kept", file: "other.yaml", want: "kept"},
		{name: "blank file leaves name empty", file: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := &Template{Name: tt.have}
			tpl.NameFromFile(tt.file)
			if tpl.Name != tt.want {
				t.Errorf("NameFromFile(%q) name = %q, want %q", tt.file, tpl.Name, tt.want)
			}
		})
	}
}

func TestTemplateFromMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
	}{
		{"nil", nil},
		{"unknown op type", map[string]any{"name": "x", "operations": []any{map[string]any{"type": "pivot"}}}},
		{"operation not a map", map[string]any{"name": "x", "operations": []any{"merge"}}},
		{"order not a list", map[string]any{"name": "x", "target_order": "a,b"}},
		{"bad timestamp", map[string]any{"name": "x", "created_at": "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TemplateFromMap(tt.doc); err == nil {
				t.Error("TemplateFromMap() error = nil, want error")
			}
		})
	}
}
