package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// recordsCommand prints the parsed records of each file.
type recordsCommand struct {
	opts   *commonOptions
	files  *[]string
	ranges *bool
}

func (cmd *recordsCommand) run(*kingpin.ParseContext) error {
	for _, name := range *cmd.files {
		if *cmd.ranges {
			cmd.printRanges(name)
			continue
		}
		cmd.printRecords(name)
	}
	return nil
}

func (cmd *recordsCommand) printRecords(name string) {
	bold := color.New(color.Bold)
	bold.Printf("%s:\n", name)

	headerShown := false
	err := eachBatch(name, cmd.opts.format(), cmd.opts.options(), func(b *dsv.Batch) {
		if !headerShown && b.Header != nil {
			bold.Printf("\theader: %s\n", formatValues(b.Header.Strings()))
			headerShown = true
		}
		for _, rec := range b.Records {
			fmt.Printf("\t%d: %s\n", rec.Line, formatRecord(rec))
		}
	})
	if err != nil {
		exitWithErr(err)
	}
}

func (cmd *recordsCommand) printRanges(name string) {
	res, release, err := dsv.ParseFile(name, cmd.opts.format())
	if err != nil {
		exitWithErr(fmt.Errorf("%s: %w", name, err))
	}
	defer release()

	bold := color.New(color.Bold)
	bold.Printf("%s:\n", name)
	bold.Printf("\theader: %s\n", formatRanges(res, res.Header))
	malformed := color.New(color.FgRed)
	for i := range res.Records {
		rec := &res.Records[i]
		line := fmt.Sprintf("\t@%d: %s\n", rec.Start, formatRanges(res, rec))
		if rec.Malformed {
			malformed.Print(line)
			continue
		}
		fmt.Print(line)
	}
}

func formatRecord(rec *dsv.BatchRecord) string {
	vals := make([]string, len(rec.Values))
	for i, v := range rec.Values {
		if v.Null {
			vals[i] = "NULL"
			continue
		}
		vals[i] = fmt.Sprintf("%q", v.Text)
	}
	return "[" + strings.Join(vals, ", ") + "]"
}

func formatRanges(res *dsv.RangeResult, rec *dsv.RangeRecord) string {
	vals := make([]string, len(rec.Values))
	for i, v := range rec.Values {
		if res.IsNull(rec, v) {
			vals[i] = "NULL"
			continue
		}
		vals[i] = fmt.Sprintf("%q", v.Value(res.Sequence))
	}
	return "[" + strings.Join(vals, ", ") + "]"
}

func formatValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func addRecordsCommand(app *kingpin.Application, opts *commonOptions) {
	cmd := &recordsCommand{opts: opts}
	records := app.Command("records", "Print the records of each file.").Action(cmd.run)
	cmd.ranges = records.Flag("ranges", "Memory-map the file and parse it in place.").Bool()
	cmd.files = records.Arg("file", "The files to print.").Required().ExistingFiles()
}
