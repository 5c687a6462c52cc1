package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/ingest"
	"github.com/JonMunkholm/csvorganizer/internal/logging"
)

// decodeFlags are shared by commands that read a data file.
type decodeFlags struct {
	headerRow int
	encoding  string
	sheet     string
}

func (f *decodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.headerRow, "header-row", 0, "0-based row holding the column names")
	cmd.Flags().StringVar(&f.encoding, "encoding", "auto", "text encoding: auto, utf-8, shift_jis, cp932, euc-jp")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "workbook sheet (default: first sheet)")
}

func (f *decodeFlags) load(path string) (core.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return core.RawTable{}, err
	}
	defer file.Close()

	return ingest.Decode(filepath.Base(path), file, ingest.Options{
		HeaderRow: f.headerRow,
		Encoding:  f.encoding,
		Sheet:     f.sheet,
	})
}

// newRootCommand builds the csvorg command tree.
func newRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "csvorg",
		Short:         "Merge, split and reorder spreadsheet columns",
		Long:          "Inspect CSV and Excel files and replay saved column templates on them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newApplyCommand())
	cmd.AddCommand(newTemplateCommand())

	return cmd
}

func newInspectCommand() *cobra.Command {
	var df decodeFlags

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the columns of a file with a sample value each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := df.load(args[0])
			if err != nil {
				return err
			}
			sess := core.NewSession("cli", nil)
			res, err := sess.Load(filepath.Base(args[0]), raw)
			if err != nil {
				return err
			}
			return writeInspect(cmd.OutOrStdout(), res, sess.Snapshot())
		},
	}
	df.register(cmd)
	return cmd
}

func writeInspect(w io.Writer, res core.LoadResult, snap core.Snapshot) error {
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", res.FileName, res.Rows, res.Columns)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCOLUMN\tSAMPLE")
	for i, c := range snap.Columns {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, c.Name, c.Sample)
	}
	return tw.Flush()
}

func newApplyCommand() *cobra.Command {
	var (
		df           decodeFlags
		templatePath string
		output       string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "apply FILE --template TEMPLATE",
		Short: "Replay a template on a file and write the result",
		Long: "Replay a saved template (YAML or JSON) on FILE and export the selected columns.\n" +
			"Steps whose source columns are missing are skipped. Without -o the result is\n" +
			"written next to FILE as processed_<name>.<format>.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ingest.ParseFormat(format)
			if err != nil {
				return err
			}
			tpl, err := readTemplate(templatePath)
			if err != nil {
				return err
			}
			raw, err := df.load(args[0])
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(filepath.Dir(args[0]), ingest.ExportFileName(args[0], f))
			}
			return applyTemplate(cmd.Context(), cmd.OutOrStdout(), filepath.Base(args[0]), raw, tpl, output, f)
		},
	}
	df.register(cmd)
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "template file (YAML or JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv, tsv, xlsx")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// applyTemplate replays tpl on raw and writes the export to output. A step
// failure still writes the partial result and is returned afterwards.
func applyTemplate(ctx context.Context, w io.Writer, name string, raw core.RawTable, tpl *core.Template, output string, f ingest.Format) error {
	sess := core.NewSession("cli", nil)
	if err := sess.SetMode(core.ModeTemplate); err != nil {
		return err
	}
	if _, err := sess.Load(name, raw); err != nil {
		return err
	}
	if err := sess.ImportTemplate(ctx, tpl); err != nil {
		return err
	}

	res, applyErr := sess.ApplyTemplate(ctx, tpl.Name)
	var partial *core.TemplateApplyError
	if applyErr != nil && !errors.As(applyErr, &partial) {
		return applyErr
	}
	for _, step := range res.Skipped() {
		fmt.Fprintf(w, "skipped step %d (%s): %s\n", step.Step+1, step.Kind, step.Reason)
	}

	out, err := sess.Export()
	if err != nil {
		return err
	}
	file, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := ingest.Encode(file, out, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Fprintf(w, "wrote %s: %d rows, %d columns\n", output, out.RowCount(), out.Width())
	return applyErr
}

func readTemplate(path string) (*core.Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decode := core.DecodeTemplateYAML
	if filepath.Ext(path) == ".json" {
		decode = core.DecodeTemplateJSON
	}
	tpl, err := decode(file)
	if err != nil {
		return nil, err
	}
	tpl.NameFromFile(path)
	return tpl, nil
}

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Work with template files",
	}
	cmd.AddCommand(newTemplateShowCommand())
	return cmd
}

func newTemplateShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show TEMPLATE",
		Short: "Print a template in the current document format",
		Long:  "Read a template file, including older layouts, and print it normalized.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := readTemplate(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tpl)
			}
			return core.EncodeTemplateYAML(cmd.OutOrStdout(), tpl)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}
