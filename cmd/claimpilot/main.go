// Package main is the entry point for the claimpilot service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/mfriebe/claimpilot/internal/api"
	"github.com/mfriebe/claimpilot/internal/chatui"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for API keys and overrides.
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("claimpilot"),
		kong.Description("Supervisor/router orchestration engine for the claims assistant."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		fatal(err)
	}
}

// Run starts the HTTP chat service.
func (c *ServeCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config, cli.Team)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		rt.cfg.API.Addr = c.Addr
	}
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.watchTeam(ctx)

	server := api.NewServer(rt.cfg.API.Addr, rt.orch)
	return server.Run(ctx)
}

// Run starts the interactive terminal chat.
func (c *ChatCmd) Run(cli *CLI) error {
	rt, err := newRuntime(cli.Config, cli.Team)
	if err != nil {
		return err
	}
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.close()

	return chatui.Run(rt.orch)
}

// Run asks a single question and prints the answer.
func (c *AskCmd) Run(cli *CLI) error {
	if len(c.Prompt) == 0 {
		return fmt.Errorf("no prompt given")
	}

	rt, err := newRuntime(cli.Config, cli.Team)
	if err != nil {
		return err
	}
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.close()

	result, err := rt.orch.Handle(context.Background(), strings.Join(c.Prompt, " "), c.Thread)
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(result.Response)
	if result.Resource != nil {
		fmt.Fprintf(os.Stderr, "[interactive resource: %s (%s)]\n",
			result.Resource.URI, result.Resource.MimeType)
	}
	return nil
}

// Run prints version information.
func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Printf("claimpilot %s (%s, built %s)\n", version, commit, buildTime)
	return nil
}
