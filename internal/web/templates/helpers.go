// Package templates holds the HTML components served by the web layer.
//
// Components are written in .templ files; run `templ generate` after editing
// them to refresh the _templ.go files.
package templates

import (
	"fmt"

	"github.com/JonMunkholm/csvorganizer/internal/core"
)

// IndexData is rendered by Index.
type IndexData struct {
	ActiveSessions int
	MaxFileSizeMB  int64
	TemplateStore  string
}

func statsLine(snap core.Snapshot) string {
	return fmt.Sprintf("%d rows, %d of %d columns selected, %.1f%% reduction, %s mode",
		snap.Rows, snap.Selected, len(snap.Columns), snap.Reduction, snap.Mode)
}

// columnState marks order entries the table does not have yet.
func columnState(c core.ColumnInfo) string {
	if c.Present {
		return "present"
	}
	return "placeholder"
}
