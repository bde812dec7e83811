package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func TestCLI_ParseServe(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse([]string{"serve", "--addr", ":9000", "--config", "alt.toml"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ctx.Command() != "serve" {
		t.Errorf("unexpected command: %s", ctx.Command())
	}
	if cli.Serve.Addr != ":9000" || cli.Config != "alt.toml" {
		t.Errorf("flags not parsed: %+v", cli)
	}
}

func TestCLI_ParseAsk(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	_, err = parser.Parse([]string{"ask", "Was", "steht", "in", "der", "neuesten", "E-Mail?", "--thread", "t1"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(cli.Ask.Prompt) != 6 || cli.Ask.Thread != "t1" {
		t.Errorf("ask args not parsed: %+v", cli.Ask)
	}
}

func TestCLI_DefaultConfigPath(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse([]string{"version"}); err != nil {
		t.Fatal(err)
	}
	if cli.Config != "claimpilot.toml" {
		t.Errorf("unexpected default config path: %s", cli.Config)
	}
}
