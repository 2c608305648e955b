// Command dsvinspect parses delimited text files and prints their records,
// diagnostics or summary statistics.
//
//	dsvinspect records --format=orders.yaml orders.txt
//	dsvinspect diagnostics --max-value-size=64KiB big.csv
//	dsvinspect stats --ranges *.csv
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/shapestone/shape-dsv/pkg/dsv"
	"github.com/shapestone/shape-dsv/pkg/format"
)

func main() {
	app := kingpin.New("dsvinspect", "A command-line tool to inspect delimited text files.")
	opts := &commonOptions{}
	opts.register(app)

	addRecordsCommand(app, opts)
	addDiagnosticsCommand(app, opts)
	addStatsCommand(app, opts)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// commonOptions holds the flags shared by every command.
type commonOptions struct {
	formatFile   string
	header       bool
	maxValueSize string
	batch        int64
	logLevel     string
}

func (o *commonOptions) register(app *kingpin.Application) {
	app.Flag("format", "YAML file describing the dataset format. Defaults to CSV.").ExistingFileVar(&o.formatFile)
	app.Flag("header", "With the default format, read the first record as a header only.").BoolVar(&o.header)
	app.Flag("max-value-size", "Value size that triggers a warning; twice this is buffered.").Default("1MiB").StringVar(&o.maxValueSize)
	app.Flag("batch", "Characters per parse batch, 0 for unbounded.").Default("65536").Int64Var(&o.batch)
	app.Flag("log.level", "Only log messages with the given severity or above.").Default("warn").EnumVar(&o.logLevel, "debug", "info", "warn", "error")
}

func (o *commonOptions) format() format.DatasetFormat {
	if o.formatFile != "" {
		f, err := format.LoadFile(o.formatFile)
		if err != nil {
			exitWithErr(err)
		}
		return f
	}
	d := format.DatasetFormat{Data: format.CSV()}
	if o.header {
		h := format.CSV()
		d.Header = &h
	}
	return d
}

func (o *commonOptions) options() dsv.Options {
	size, err := humanize.ParseBytes(o.maxValueSize)
	if err != nil {
		exitWithErr(fmt.Errorf("invalid --max-value-size: %w", err))
	}
	opts := dsv.DefaultOptions()
	opts.MaxValueSize = int(size)
	opts.MaxCharsPerBatch = o.batch
	opts.Logger = newLogger(o.logLevel)
	return opts
}

func newLogger(lvl string) log.Logger {
	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowWarn()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, allow)
}

// eachBatch streams name through a parser and calls fn for every batch.
func eachBatch(name string, f format.DatasetFormat, opts dsv.Options, fn func(*dsv.Batch)) error {
	file, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	p, err := dsv.NewParser(file, f, opts)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	for {
		b, err := p.Parse()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if b == nil {
			return nil
		}
		fn(b)
	}
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
