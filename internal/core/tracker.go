package core

// Direction is a move direction in the column order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ColumnTracker keeps the display order of every known column and the subset
// selected for export. It is independent of the table's own column order and
// may hold placeholder names the table does not have.
//
// Invariant: every selected name is in the order.
type ColumnTracker struct {
	order    []string
	pos      map[string]int
	selected map[string]struct{}
}

// NewColumnTracker returns an empty tracker.
func NewColumnTracker() *ColumnTracker {
	return &ColumnTracker{
		pos:      make(map[string]int),
		selected: make(map[string]struct{}),
	}
}

// Len returns the number of known columns.
func (c *ColumnTracker) Len() int { return len(c.order) }

// Empty reports whether the order holds no columns.
func (c *ColumnTracker) Empty() bool { return len(c.order) == 0 }

// Order returns a copy of the full column order.
func (c *ColumnTracker) Order() []string {
	return append([]string(nil), c.order...)
}

// Contains reports whether name is in the order.
func (c *ColumnTracker) Contains(name string) bool {
	_, ok := c.pos[name]
	return ok
}

// IsSelected reports whether name is selected.
func (c *ColumnTracker) IsSelected(name string) bool {
	_, ok := c.selected[name]
	return ok
}

// SelectedCount returns the number of selected columns.
func (c *ColumnTracker) SelectedCount() int { return len(c.selected) }

// SelectedInOrder returns the selected names in column order.
func (c *ColumnTracker) SelectedInOrder() []string {
	out := make([]string, 0, len(c.selected))
	for _, name := range c.order {
		if _, ok := c.selected[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Reset clears order and selection.
func (c *ColumnTracker) Reset() {
	c.order = nil
	c.pos = make(map[string]int)
	c.selected = make(map[string]struct{})
}

// Seed resets the tracker to names, all selected.
func (c *ColumnTracker) Seed(names []string) {
	c.Reset()
	c.Append(names)
}

// Append adds names not already present to the end of the order and selects
// them. Names already present keep their position and selection state.
func (c *ColumnTracker) Append(names []string) {
	for _, name := range names {
		if _, ok := c.pos[name]; ok {
			continue
		}
		c.pos[name] = len(c.order)
		c.order = append(c.order, name)
		c.selected[name] = struct{}{}
	}
}

// Replace sets order and selection wholesale. Duplicate names in order are
// dropped and selection is restricted to the order.
func (c *ColumnTracker) Replace(order, selection []string) {
	c.Reset()
	for _, name := range order {
		if _, ok := c.pos[name]; ok {
			continue
		}
		c.pos[name] = len(c.order)
		c.order = append(c.order, name)
	}
	for _, name := range selection {
		if _, ok := c.pos[name]; ok {
			c.selected[name] = struct{}{}
		}
	}
}

// SelectAll selects every column in the order.
func (c *ColumnTracker) SelectAll() {
	c.selected = make(map[string]struct{}, len(c.order))
	for _, name := range c.order {
		c.selected[name] = struct{}{}
	}
}

// DeselectAll clears the selection.
func (c *ColumnTracker) DeselectAll() {
	c.selected = make(map[string]struct{})
}

// Toggle sets the selection state of name. It is idempotent.
func (c *ColumnTracker) Toggle(name string, on bool) error {
	if _, ok := c.pos[name]; !ok {
		return &ColumnNotFoundError{Op: "toggle", Column: name}
	}
	if on {
		c.selected[name] = struct{}{}
	} else {
		delete(c.selected, name)
	}
	return nil
}

// Move swaps a selected column with its neighbour among the selected columns.
// Unselected columns keep their absolute positions. Moving the first selected
// column up, the last down, or an unselected column is a no-op; the returned
// bool reports whether anything moved.
func (c *ColumnTracker) Move(name string, dir Direction) (bool, error) {
	i, ok := c.pos[name]
	if !ok {
		return false, &ColumnNotFoundError{Op: "move", Column: name}
	}
	if _, sel := c.selected[name]; !sel {
		return false, nil
	}

	j := -1
	switch dir {
	case Up:
		for k := i - 1; k >= 0; k-- {
			if _, sel := c.selected[c.order[k]]; sel {
				j = k
				break
			}
		}
	case Down:
		for k := i + 1; k < len(c.order); k++ {
			if _, sel := c.selected[c.order[k]]; sel {
				j = k
				break
			}
		}
	default:
		return false, &InvalidDirectionError{Direction: string(dir)}
	}
	if j < 0 {
		return false, nil
	}

	c.order[i], c.order[j] = c.order[j], c.order[i]
	c.pos[c.order[i]] = i
	c.pos[c.order[j]] = j
	return true, nil
}
