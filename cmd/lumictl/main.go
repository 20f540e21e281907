package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/limbo/lumi/pkg/client"
)

var CLI struct {
	Version kong.VersionFlag
	Server  string        `help:"Base URL of the lumi API." env:"LUMI_SERVER" default:"http://localhost:8080"`
	Timeout time.Duration `help:"Request timeout." default:"10s"`
	Debug   bool          `help:"Verbose logging on stderr."`

	Signup  SignupCmd  `cmd:"" help:"Create an account."`
	Login   LoginCmd   `cmd:"" help:"Log in and keep the session in the OS keyring."`
	Logout  LogoutCmd  `cmd:"" help:"Forget the stored session."`
	Profile ProfileCmd `cmd:"" help:"Set body data and show the daily targets."`
	Water   WaterCmd   `cmd:"" help:"Add glasses of water to today."`
	Meal    MealCmd    `cmd:"" help:"Record protein and fiber for a meal."`
	Summary SummaryCmd `cmd:"" help:"Show today's progress and streak." default:"1"`
	History HistoryCmd `cmd:"" help:"Show recent days."`
	Streak  StreakCmd  `cmd:"" help:"Show the balanced-day streak."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lumictl"),
		kong.Description("Hydration and protein/fiber tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": "v0.1.0"},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: CLI.Debug,
		Level:           log.WarnLevel,
		Prefix:          "lumictl",
	})
	if CLI.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	appCtx := &Context{
		Server:      CLI.Server,
		Timeout:     CLI.Timeout,
		Client:      client.New(CLI.Server, nil),
		Credentials: client.NewCredentialStore(client.DefaultKeyringService),
		Log:         logger,
	}
	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
