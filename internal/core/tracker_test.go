package core

import (
	"errors"
	"reflect"
	"testing"
)

func newTracker(order []string, selected ...string) *ColumnTracker {
	c := NewColumnTracker()
	c.Replace(order, selected)
	return c
}

func TestColumnTracker_Append(t *testing.T) {
	c := NewColumnTracker()
	c.Append([]string{"a", "b"})
	if err := c.Toggle("a", false); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	c.Append([]string{"a", "c", "c"})

	if got, want := c.Order(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
	if got, want := c.SelectedInOrder(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedInOrder() = %v, want %v (existing names keep their state)", got, want)
	}
}

func TestColumnTracker_Move(t *testing.T) {
	order := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name      string
		selected  []string
		move      string
		dir       Direction
		wantOrder []string
		wantMoved bool
	}{
		{"adjacent swap down", []string{"a", "b", "c", "d", "e"}, "b", Down, []string{"a", "c", "b", "d", "e"}, true},
		{"adjacent swap up", []string{"a", "b", "c", "d", "e"}, "b", Up, []string{"b", "a", "c", "d", "e"}, true},
		{"skips unselected neighbour", []string{"a", "c", "e"}, "a", Down, []string{"c", "b", "a", "d", "e"}, true},
		{"unselected keep absolute position", []string{"b", "e"}, "e", Up, []string{"a", "e", "c", "d", "b"}, true},
		{"first selected up is no-op", []string{"b", "d"}, "b", Up, order, false},
		{"last selected down is no-op", []string{"b", "d"}, "d", Down, order, false},
		{"unselected name is no-op", []string{"b", "d"}, "c", Down, order, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTracker(order, tt.selected...)
			moved, err := c.Move(tt.move, tt.dir)
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if moved != tt.wantMoved {
				t.Errorf("Move() = %v, want %v", moved, tt.wantMoved)
			}
			if got := c.Order(); !reflect.DeepEqual(got, tt.wantOrder) {
				t.Errorf("Order() = %v, want %v", got, tt.wantOrder)
			}
			for _, s := range tt.selected {
				if !c.IsSelected(s) {
					t.Errorf("IsSelected(%q) = false after move", s)
				}
			}
		})
	}
}

func TestColumnTracker_MoveUpAfterDownIsIdentity(t *testing.T) {
	order := []string{"a", "b", "c", "d"}
	c := newTracker(order, "a", "b", "d")

	if _, err := c.Move("b", Down); err != nil {
		t.Fatalf("Move(down) error = %v", err)
	}
	if _, err := c.Move("b", Up); err != nil {
		t.Fatalf("Move(up) error = %v", err)
	}
	if got := c.Order(); !reflect.DeepEqual(got, order) {
		t.Errorf("Order() = %v, want %v", got, order)
	}
}

func TestColumnTracker_MoveErrors(t *testing.T) {
	c := newTracker([]string{"a", "b"}, "a", "b")

	var cnf *ColumnNotFoundError
	if _, err := c.Move("zz", Up); !errors.As(err, &cnf) {
		t.Errorf("Move(unknown) error = %v, want *ColumnNotFoundError", err)
	}
	var dir *InvalidDirectionError
	if _, err := c.Move("a", Direction("left")); !errors.As(err, &dir) {
		t.Errorf("Move(left) error = %v, want *InvalidDirectionError", err)
	}
}

func TestColumnTracker_SelectAllDeselectAll(t *testing.T) {
	order := []string{"a", "b", "c"}
	c := newTracker(order, "b")

	c.DeselectAll()
	if got := c.SelectedCount(); got != 0 {
		t.Errorf("SelectedCount() after DeselectAll = %d, want 0", got)
	}
	c.SelectAll()
	if got := c.SelectedInOrder(); !reflect.DeepEqual(got, order) {
		t.Errorf("SelectedInOrder() after SelectAll = %v, want %v", got, order)
	}

	c.SelectAll()
	c.DeselectAll()
	c.DeselectAll()
	if got := c.SelectedCount(); got != 0 {
		t.Errorf("SelectedCount() = %d, want 0", got)
	}
	c.SelectAll()
	c.SelectAll()
	if got := c.SelectedCount(); got != len(order) {
		t.Errorf("SelectedCount() = %d, want %d", got, len(order))
	}
}

func TestColumnTracker_Toggle(t *testing.T) {
	c := newTracker([]string{"a", "b"})

	for i := 0; i < 2; i++ {
		if err := c.Toggle("a", true); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
	}
	if got := c.SelectedInOrder(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("SelectedInOrder() = %v, want [a]", got)
	}

	var cnf *ColumnNotFoundError
	if err := c.Toggle("nope", true); !errors.As(err, &cnf) {
		t.Errorf("Toggle(unknown) error = %v, want *ColumnNotFoundError", err)
	}
}

func TestColumnTracker_ReplaceKeepsSelectionInsideOrder(t *testing.T) {
	c := newTracker([]string{"a", "b", "a"}, "b", "ghost")

	if got, want := c.Order(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
	if c.IsSelected("ghost") {
		t.Error("IsSelected(ghost) = true, want false")
	}
}
