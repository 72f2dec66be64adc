package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Makepad-fr/chores/internal/cli"
	"github.com/Makepad-fr/chores/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	theme := flag.String("theme", "classic", "output theme: classic, neon or mono")
	color := flag.Bool("color", false, "force colored output")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Usage = cli.PrintHelp
	flag.Parse()

	ui.SetColorForcing(*color, *noColor || os.Getenv("NO_COLOR") != "")

	// Hand the remaining args to the CLI runner.
	code := cli.Run(flag.Args(), cli.Options{
		Group: *groupPending,
		Theme: *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
