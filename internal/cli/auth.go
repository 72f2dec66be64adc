package cli

import (
	"fmt"

	"github.com/Makepad-fr/chores/internal/client"
	"github.com/Makepad-fr/chores/internal/ui"
)

func doAuthLogin(args []string) int {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		fmt.Fprint(ui.Stdout(), "Paste your token: ")
		if _, err := fmt.Scanln(&token); err != nil {
			ui.Fail("read token: " + err.Error())
			return 1
		}
	}
	if err := client.SetToken(token); err != nil {
		ui.Fail("save token: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout() int {
	ti, _ := client.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + client.TokenEnv + " env var (nothing to delete)")
		return 0
	}
	if err := client.DeleteToken(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus() int {
	ti, err := client.GetToken()
	if err != nil {
		ui.Fail("status: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(ui.Stdout(), ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(ui.Stdout(), "Run: chores auth login")
		return 0
	}
	fmt.Fprintf(ui.Stdout(), "source: %s\n", ti.Source)
	if !ti.CreatedAt.IsZero() {
		fmt.Fprintf(ui.Stdout(), "saved: %s\n", ti.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(ui.Stdout(), "env override: "+client.TokenEnv)
	return 0
}
