package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/Makepad-fr/chores/internal/client"
	"github.com/Makepad-fr/chores/internal/config"
	"github.com/Makepad-fr/chores/internal/controller"
	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/tui"
	"github.com/Makepad-fr/chores/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool   // list grouped by pending/done
	Theme string // classic, neon or mono
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	ui.SetTheme(opt.Theme)
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "ui":
		return doUI(ctx)

	case "ls":
		fs := flag.NewFlagSet("ls", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		group := fs.Bool("group", opt.Group, "group output by pending/done")
		if err := fs.Parse(a); err != nil {
			ui.Fail("usage: chores ls [-group]")
			return 2
		}
		opt.Group = *group
		return doList(ctx, opt)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		date := fs.String("date", "", "due date, YYYY-MM-DD")
		at := fs.String("time", "", "due time, HH:MM")
		if err := fs.Parse(a); err != nil || fs.NArg() == 0 {
			ui.Fail("usage: chores add [-date YYYY-MM-DD] [-time HH:MM] <title...>")
			return 2
		}
		return doAdd(ctx, controller.Input{Title: strings.Join(fs.Args(), " "), Date: *date, Time: *at})

	case "done", "rm":
		if len(a) != 1 {
			ui.Fail("usage: chores " + cmd + " <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			ui.Fail(cmd + ": not a number: " + a[0])
			return 2
		}
		if cmd == "done" {
			return doToggle(ctx, n)
		}
		return doRemove(ctx, n)

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: chores auth <login|logout|status>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin(a[1:])
		case "logout":
			return doAuthLogout()
		case "status":
			return doAuthStatus()
		}
		ui.Fail("usage: chores auth <login|logout|status>")
		return 2
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Stdout(), `chores - a shared chore list

Usage:
  chores [-group] [-theme classic|neon|mono] <subcommand> [args]

Subcommands:
  ui                       Interactive list
  ls [-group]              List chores
  add [-date D] [-time T] <title...>
                           Add a chore (date/time used by the extended form)
  done <index>             Toggle done for chore at 1-based index
  rm <index>               Remove chore at 1-based index
  auth <login|logout|status>
                           Token for servers started with AUTH_TOKEN

Environment:
  CHORES_URL      server base URL (default http://127.0.0.1:5000)
  CHORES_TOKEN    bearer token, overrides the saved one
  CHORES_LOCALE   locale for composed dates (default en-US)

Examples:
  chores add "Buy milk"
  chores add -date 2024-06-01 -time 14:30 "Wash dishes"
  chores ls -group
  chores done 2
`)
}

// -------------- wiring ----------------

func newController(opts ...controller.Option) (*controller.Controller, config.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, cfg, err
	}
	copts := []client.Option{client.WithTimeout(cfg.Timeout.Duration())}
	ti, err := client.GetToken()
	if err != nil {
		return nil, cfg, err
	}
	if ti != nil {
		copts = append(copts, client.WithToken(ti.Token))
	}
	c, err := client.New(cfg.URL, copts...)
	if err != nil {
		return nil, cfg, err
	}
	opts = append([]controller.Option{controller.WithLocale(cfg.Locale)}, opts...)
	return controller.New(c, opts...), cfg, nil
}

// ready returns an initialized controller or prints why it could not.
func ready(ctx context.Context) (*controller.Controller, bool) {
	ctrl, _, err := newController()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return nil, false
	}
	if err := ctrl.Initialize(ctx); err != nil {
		ui.Fail(err.Error())
		return nil, false
	}
	return ctrl, true
}

// -------------- subcommand impls ----------------

func doUI(ctx context.Context) int {
	ctrl, cfg, err := newController()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	if err := tui.Run(ctx, ctrl, cfg.LogFile); err != nil {
		ui.Fail("ui: " + err.Error())
		return 1
	}
	return 0
}

func doList(ctx context.Context, opt Options) int {
	ctrl, okc := ready(ctx)
	if !okc {
		return 1
	}
	st := ctrl.Snapshot()
	d, p := st.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(ui.Current().Title, "Chores"),
		ui.C(ui.Current().Success, ui.Current().SymDone), d,
		ui.C(ui.Current().Pending, ui.Current().SymUnchecked), p,
		ui.C(ui.Current().Accent, "Total"), len(st.Tasks),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(ui.Current().Muted, ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if opt.Group {
		lines = append(lines, groupLines(st.Tasks)...)
	} else {
		lines = append(lines, flatLines(st.Tasks)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Muted, "Tip: add with `chores add \"Buy milk\"`"))
	ui.Panel(lines)
	return 0
}

func doAdd(ctx context.Context, in controller.Input) int {
	ctrl, okc := ready(ctx)
	if !okc {
		return 1
	}
	t, err := ctrl.Submit(ctx, in)
	if errors.Is(err, controller.ErrEmptyTitle) {
		ui.Fail("add: empty title")
		return 2
	}
	if err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.OK("added " + t.Title)
	return 0
}

func doToggle(ctx context.Context, userIndex int) int {
	ctrl, okc := ready(ctx)
	if !okc {
		return 1
	}
	t, code := pick(ctrl.Snapshot().Tasks, userIndex)
	if code != 0 {
		return code
	}
	done, err := ctrl.Toggle(ctx, t.ID)
	if err != nil {
		ui.Fail("toggle: " + err.Error())
		return 1
	}
	if done {
		ui.OK("done: " + t.Title)
	} else {
		ui.OK("reopened: " + t.Title)
	}
	return 0
}

func doRemove(ctx context.Context, userIndex int) int {
	ctrl, okc := ready(ctx)
	if !okc {
		return 1
	}
	t, code := pick(ctrl.Snapshot().Tasks, userIndex)
	if code != 0 {
		return code
	}
	if err := ctrl.Delete(ctx, t.ID); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.OK("removed " + t.Title)
	return 0
}

func pick(tasks []model.Task, userIndex int) (model.Task, int) {
	if userIndex < 1 || userIndex > len(tasks) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(tasks), userIndex))
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Muted, "Hint: run `chores ls` to see valid indexes"))
		return model.Task{}, 2
	}
	return tasks[userIndex-1], 0
}

// -------------- rendering helpers --------------

func flatLines(tasks []model.Task) []string {
	if len(tasks) == 0 {
		return []string{ui.C(ui.Current().Muted, "no chores")}
	}
	out := make([]string, 0, len(tasks))
	for i, t := range tasks {
		idx := fmt.Sprintf("%2d.", i+1)
		box := ui.Current().BoxUnchecked
		color := ui.Current().Muted
		if t.Completed {
			box, color = ui.Current().BoxChecked, ui.Current().Success
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.C(ui.Current().Muted, idx), ui.C(color, box), truncate(t.Title, 80)))
	}
	return out
}

// truncate shortens s to at most n runes, ending in "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// groupLines keeps the flat list's indexes so `done`/`rm` still line up.
func groupLines(tasks []model.Task) []string {
	all := flatLines(tasks)
	if len(tasks) == 0 {
		return all
	}
	var pend, done []string
	for i, t := range tasks {
		if t.Completed {
			done = append(done, all[i])
		} else {
			pend = append(pend, all[i])
		}
	}
	var lines []string
	lines = append(lines, ui.C(ui.Current().Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, pend...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
	} else {
		lines = append(lines, done...)
	}
	return lines
}
