// Package core is the column-transformation and template-replay engine.
//
// It is independent of any transport or file format: callers hand it a
// [RawTable] and receive projected tables back. Web handlers, the CLI and
// tests all drive it the same way.
//
// # Architecture
//
//   - Table: an immutable, rectangular, text-only table built by [LoadTable].
//     Duplicate header names are disambiguated with _1, _2, ... suffixes.
//   - Operators: [Merge], [Split] and [AddEmpty] are pure and return the new
//     columns they would add plus the names actually created.
//   - Operations: [MergeOp], [SplitOp] and [EmptyColumnsOp] record operator
//     parameters so they can be replayed against another table.
//   - Tracker: [ColumnTracker] keeps the display order and export selection,
//     which may include placeholder names the table lacks.
//   - Templates: [Capture] records operations plus target order and selection;
//     [ApplyTemplate] replays them, skipping operations whose columns are
//     missing instead of failing.
//   - Session: [Session] ties the above together for one user.
//   - Service: [Service] owns sessions and serializes access to each one.
//
// # Strict and lenient invocation
//
// Manual operations run under [StrictPolicy]: a missing source column or a
// taken target name is reported to the caller. Template replay runs under
// [ReplayPolicy]: the same conditions skip the operation. Both go through one
// invocation routine.
//
// # Split policy
//
// Split is fixed-count with remainder: a cell is split into at most
// len(names) parts and the last part keeps the rest of the text, so
//
//	Split(t, "full_name", " ", []string{"first", "last"})
//
// turns "Jane Doe Smith" into ("Jane", "Doe Smith"). Rows with fewer parts
// are padded with empty strings. Names beyond the largest part count seen in
// any row are not created.
//
// # Error Handling
//
// Operator and load failures are typed ([LoadError], [ColumnNotFoundError],
// [InvalidDelimiterError], [DuplicateColumnNameError], [TemplateApplyError]).
// [MapError] turns any error into a [UserMessage] with a support code.
package core
