package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// statsCommand prints summary counts for each file.
type statsCommand struct {
	opts   *commonOptions
	files  *[]string
	ranges *bool
}

type fileStats struct {
	size       int64
	columns    int
	records    int
	batches    int
	characters int64
	kinds      map[string]int
	malformed  int
}

func (cmd *statsCommand) run(*kingpin.ParseContext) error {
	for _, name := range *cmd.files {
		fi, err := os.Stat(name)
		if err != nil {
			exitWithErr(fmt.Errorf("failed to read fileinfo: %w", err))
		}
		st := &fileStats{size: fi.Size(), kinds: map[string]int{}}
		if *cmd.ranges {
			cmd.collectRanges(name, st)
		} else {
			cmd.collect(name, st)
		}
		printStats(name, *cmd.ranges, st)
	}
	return nil
}

func (cmd *statsCommand) collect(name string, st *fileStats) {
	err := eachBatch(name, cmd.opts.format(), cmd.opts.options(), func(b *dsv.Batch) {
		st.batches++
		st.records += len(b.Records)
		st.characters += b.CharactersConsumed
		if b.Header != nil {
			st.columns = len(b.Header.Values)
		}
		for _, d := range b.Errors {
			st.kinds[d.Kind.String()]++
		}
	})
	if err != nil {
		exitWithErr(err)
	}
}

func (cmd *statsCommand) collectRanges(name string, st *fileStats) {
	res, release, err := dsv.ParseFile(name, cmd.opts.format())
	if err != nil {
		exitWithErr(fmt.Errorf("%s: %w", name, err))
	}
	defer release()
	st.columns = res.ColumnsCount
	st.records = len(res.Records)
	for i := range res.Records {
		if res.Records[i].Malformed {
			st.malformed++
		}
	}
}

func printStats(name string, ranges bool, st *fileStats) {
	bold := color.New(color.Bold)
	bold.Printf("%s:\n", name)
	fmt.Printf("\tsize: %v, columns: %d, records: %s\n",
		humanize.Bytes(uint64(st.size)), st.columns, humanize.Comma(int64(st.records)))
	if ranges {
		fmt.Printf("\tmalformed records: %s\n", humanize.Comma(int64(st.malformed)))
		return
	}
	fmt.Printf("\tbatches: %d, characters: %s\n", st.batches, humanize.Comma(st.characters))

	kinds := make([]string, 0, len(st.kinds))
	for k := range st.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("\t\t%s: %s\n", k, humanize.Comma(int64(st.kinds[k])))
	}
}

func addStatsCommand(app *kingpin.Application, opts *commonOptions) {
	cmd := &statsCommand{opts: opts}
	stats := app.Command("stats", "Print summary counts for each file.").Action(cmd.run)
	cmd.ranges = stats.Flag("ranges", "Use the in-memory range parser.").Bool()
	cmd.files = stats.Arg("file", "The files to summarize.").Required().ExistingFiles()
}
