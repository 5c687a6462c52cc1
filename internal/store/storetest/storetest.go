// Package storetest checks that a core.TemplateStore behaves like the
// in-memory reference store.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

func fixture(name string) *core.Template {
	return &core.Template{
		ID:   "7f1d9a34-5a1e-4a0c-9c7e-3b1f0f4d2e10",
		Name: name,
		Operations: []core.Operation{
			core.MergeOp{SourceColumns: []string{"first", "last"}, NewColumn: "full", Separator: " "},
			core.SplitOp{SourceColumn: "addr", Delimiter: ",", NewColumns: []string{"street", "city"}},
			core.EmptyColumnsOp{Names: []string{"notes"}},
		},
		TargetOrder:     []string{"full", "city", "notes"},
		TargetSelection: []string{"full", "notes"},
		Description:     "fixture",
		CreatedAt:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Run exercises s, which must start empty.
func Run(t *testing.T, s core.TemplateStore) {
	t.Helper()
	ctx := context.Background()

	want := fixture("monthly")
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Create(ctx, fixture("monthly")); !errors.Is(err, core.ErrTemplateExists) {
		t.Errorf("Create(duplicate) error = %v, want ErrTemplateExists", err)
	}

	got, err := s.Get(ctx, "monthly")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != want.Name || got.ID != want.ID || got.Description != want.Description {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Get() CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if !reflect.DeepEqual(got.Operations, want.Operations) {
		t.Errorf("Get() Operations = %+v, want %+v", got.Operations, want.Operations)
	}
	if !reflect.DeepEqual(got.TargetOrder, want.TargetOrder) || !reflect.DeepEqual(got.TargetSelection, want.TargetSelection) {
		t.Errorf("Get() order/selection = %v/%v", got.TargetOrder, got.TargetSelection)
	}

	if err := s.Create(ctx, fixture("adhoc")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "adhoc" || list[1].Name != "monthly" {
		t.Errorf("List() returned %d templates, want adhoc and monthly in name order", len(list))
	}

	if err := s.Delete(ctx, "monthly"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "monthly"); !errors.Is(err, core.ErrTemplateNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrTemplateNotFound", err)
	}
	if err := s.Delete(ctx, "monthly"); !errors.Is(err, core.ErrTemplateNotFound) {
		t.Errorf("Delete(deleted) error = %v, want ErrTemplateNotFound", err)
	}
}
