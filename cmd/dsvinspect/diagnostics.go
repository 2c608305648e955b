package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/shapestone/shape-dsv/pkg/dsv"
)

// diagnosticsCommand prints every diagnostic with its location.
type diagnosticsCommand struct {
	opts  *commonOptions
	files *[]string
}

func (cmd *diagnosticsCommand) run(*kingpin.ParseContext) error {
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)
	for _, name := range *cmd.files {
		n := 0
		err := eachBatch(name, cmd.opts.format(), cmd.opts.options(), func(b *dsv.Batch) {
			for _, d := range b.Errors {
				n++
				c := fail
				if d.IsWarning() {
					c = warn
				}
				c.Printf("%s:%d:%d: ", name, d.Line, d.Column)
				fmt.Printf("%s [%s, offset %d]\n", d.Message(), d.Kind, d.Offset)
			}
		})
		if err != nil {
			exitWithErr(err)
		}
		if n == 0 {
			fmt.Printf("%s: no diagnostics\n", name)
		}
	}
	return nil
}

func addDiagnosticsCommand(app *kingpin.Application, opts *commonOptions) {
	cmd := &diagnosticsCommand{opts: opts}
	diags := app.Command("diagnostics", "Print the diagnostics of each file.").Action(cmd.run)
	cmd.files = diags.Arg("file", "The files to check.").Required().ExistingFiles()
}
