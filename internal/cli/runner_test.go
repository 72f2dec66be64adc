package cli

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Makepad-fr/chores/internal/config"
	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/server"
	"github.com/Makepad-fr/chores/internal/ui"
)

// setup points the CLI at a fresh server and captures its output.
func setup(t *testing.T, token string) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.Server{
		App:   config.AppConfig{Variant: "extended", AuthToken: token},
		Store: config.StoreConfig{Driver: "json", DSN: filepath.Join(t.TempDir(), "todos.json")},
	}
	app, err := server.New(context.Background(), cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	t.Setenv("CHORES_URL", srv.URL)
	t.Setenv("CHORES_TOKEN", "")
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	ui.SetOutput(&out, &errOut)
	t.Cleanup(func() { ui.SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

func run(args ...string) int {
	return Run(args, Options{Theme: "mono"})
}

func TestUsageErrors(t *testing.T) {
	setup(t, "")
	cases := [][]string{
		nil,
		{"nope"},
		{"add"},
		{"done"},
		{"done", "x"},
		{"rm", "1", "2"},
		{"auth"},
		{"auth", "whoami"},
	}
	for _, args := range cases {
		if code := run(args...); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
	if code := run("help"); code != 0 {
		t.Fatalf("help: expected 0, got %d", code)
	}
}

func TestAddListDoneRemove(t *testing.T) {
	out, errOut := setup(t, "")

	if code := run("add", "-date", "2024-06-01", "Wash", "dishes"); code != 0 {
		t.Fatalf("add: exit %d: %s", code, errOut)
	}
	if !strings.Contains(out.String(), "ok added Wash dishes (6/1/2024)") {
		t.Fatalf("unexpected add output %q", out)
	}

	if code := run("add", "   "); code != 2 {
		t.Fatalf("blank add: expected 2, got %d", code)
	}

	if code := run("done", "1"); code != 0 {
		t.Fatalf("done: exit %d: %s", code, errOut)
	}
	out.Reset()
	if code := run("ls", "-group"); code != 0 {
		t.Fatalf("ls: exit %d", code)
	}
	if !strings.Contains(out.String(), "[x] Wash dishes (6/1/2024)") {
		t.Fatalf("expected completed chore in listing:\n%s", out)
	}

	if code := run("done", "5"); code != 2 {
		t.Fatalf("out of range: expected 2, got %d", code)
	}
	if code := run("rm", "1"); code != 0 {
		t.Fatalf("rm: exit %d: %s", code, errOut)
	}
	out.Reset()
	run("ls")
	if !strings.Contains(out.String(), "no chores") {
		t.Fatalf("expected empty listing:\n%s", out)
	}
}

func TestServerErrorsExitOne(t *testing.T) {
	_, errOut := setup(t, "s3cret")

	if code := run("add", "Mop"); code != 1 {
		t.Fatalf("expected exit 1 without token, got %d", code)
	}
	if !strings.Contains(errOut.String(), "401") {
		t.Fatalf("expected status in error, got %q", errOut)
	}

	if code := run("auth", "login", "s3cret"); code != 0 {
		t.Fatalf("login: exit %d", code)
	}
	if code := run("add", "Mop"); code != 0 {
		t.Fatalf("expected add to pass with saved token, got %d: %s", code, errOut)
	}
	if code := run("auth", "logout"); code != 0 {
		t.Fatalf("logout: exit %d", code)
	}
}

func TestUnreachableServer(t *testing.T) {
	setup(t, "")
	t.Setenv("CHORES_URL", "http://127.0.0.1:1")
	if code := run("ls"); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestFlatLinesTruncatesOnRunes(t *testing.T) {
	ui.SetTheme("mono")
	title := strings.Repeat("ä", 79) + "öü"
	lines := flatLines([]model.Task{{ID: "1", Title: title}})
	if len(lines) != 1 || !utf8.ValidString(lines[0]) {
		t.Fatalf("expected one valid UTF-8 line, got %q", lines)
	}
	want := " 1. [ ] " + strings.Repeat("ä", 77) + "..."
	if lines[0] != want {
		t.Fatalf("expected %q, got %q", want, lines[0])
	}
	if got := truncate("Wäsche", 80); got != "Wäsche" {
		t.Fatalf("short titles stay intact, got %q", got)
	}
}
