package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplateMatchThreshold is the minimum score for a template to be suggested.
const TemplateMatchThreshold = 0.7

// Template is a reusable column configuration: the operations to replay and
// the target column order and selection. It stores parameters, not data.
type Template struct {
	ID              string
	Name            string
	Operations      []Operation
	TargetOrder     []string
	TargetSelection []string // ordered by TargetOrder
	Description     string
	CreatedAt       time.Time
}

// Capture builds a template from operations already executed by the caller
// and the current order and selection. Selection names outside order are
// dropped; the stored selection follows order.
func Capture(name string, ops []Operation, order, selection []string, description string, now time.Time) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTemplateName
	}

	sel := make(map[string]bool, len(selection))
	for _, s := range selection {
		sel[s] = true
	}
	tpl := &Template{
		ID:          uuid.NewString(),
		Name:        name,
		Operations:  append([]Operation(nil), ops...),
		TargetOrder: dedupe(order),
		Description: description,
		CreatedAt:   now,
	}
	for _, n := range tpl.TargetOrder {
		if sel[n] {
			tpl.TargetSelection = append(tpl.TargetSelection, n)
		}
	}
	return tpl, nil
}

// Clone returns a deep copy. Operation values are immutable and shared.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	c.Operations = append([]Operation(nil), t.Operations...)
	c.TargetOrder = append([]string(nil), t.TargetOrder...)
	c.TargetSelection = append([]string(nil), t.TargetSelection...)
	return &c
}

// StepOutcome is the outcome of one replayed operation.
type StepOutcome struct {
	Step int `json:"step"`
	Outcome
}

// ApplyResult is the state produced by replaying a template.
type ApplyResult struct {
	Table     *Table
	Order     []string
	Selection []string
	Steps     []StepOutcome
}

// Skipped returns the steps that did not create any column.
func (r ApplyResult) Skipped() []StepOutcome {
	var out []StepOutcome
	for _, s := range r.Steps {
		if !s.Applied {
			out = append(out, s)
		}
	}
	return out
}

// ApplyTemplate replays tpl against t.
//
// Operations whose source columns are missing, or whose target names are
// already taken, are skipped. The resulting order is the template's target
// order restricted to columns of the resulting table, and likewise for the
// selection. An unexpected operator failure stops the replay and yields a
// *TemplateApplyError together with the partial result.
//
// tpl is never modified.
func ApplyTemplate(tpl *Template, t *Table) (ApplyResult, error) {
	out, outcomes, failed, err := replay(t, tpl.Operations, nil)

	res := ApplyResult{Table: out}
	for i, o := range outcomes {
		res.Steps = append(res.Steps, StepOutcome{Step: i, Outcome: o})
	}
	res.Order = filterNames(tpl.TargetOrder, out.Has)

	inOrder := make(map[string]bool, len(res.Order))
	for _, n := range res.Order {
		inOrder[n] = true
	}
	res.Selection = filterNames(tpl.TargetSelection, func(n string) bool { return inOrder[n] })

	if err != nil {
		return res, &TemplateApplyError{
			Template: tpl.Name,
			Step:     failed,
			Kind:     tpl.Operations[failed].Kind(),
			Err:      err,
		}
	}
	return res, nil
}

// TemplateMatch scores how well a template fits a set of columns.
type TemplateMatch struct {
	Template *Template
	Score    float64
	Missing  []string
}

// RequiredColumns returns the columns a template expects the input to have:
// sources of its operations and target-order names it does not create itself.
func (t *Template) RequiredColumns() []string {
	created := make(map[string]bool)
	var req []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !created[name] && !seen[name] {
			seen[name] = true
			req = append(req, name)
		}
	}
	for _, op := range t.Operations {
		for _, s := range op.Sources() {
			add(s)
		}
		for _, n := range op.Targets() {
			created[n] = true
		}
	}
	for _, n := range t.TargetOrder {
		add(n)
	}
	return req
}

// MatchTemplates scores templates against columns and returns those at or
// above TemplateMatchThreshold, best first.
func MatchTemplates(templates []*Template, columns []string) []TemplateMatch {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var matches []TemplateMatch
	for _, tpl := range templates {
		req := tpl.RequiredColumns()
		m := TemplateMatch{Template: tpl, Score: 1}
		if len(req) > 0 {
			found := 0
			for _, r := range req {
				if have[strings.ToLower(strings.TrimSpace(r))] {
					found++
				} else {
					m.Missing = append(m.Missing, r)
				}
			}
			m.Score = float64(found) / float64(len(req))
		}
		if m.Score >= TemplateMatchThreshold {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Template.Name < matches[j].Template.Name
	})
	return matches
}

func filterNames(names []string, keep func(string) bool) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if keep(n) && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func dedupe(names []string) []string {
	return filterNames(names, func(string) bool { return true })
}
