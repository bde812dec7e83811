// Package main defines the CLI structure using kong.
package main

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP chat service"`
	Chat    ChatCmd    `cmd:"" help:"Interactive terminal chat"`
	Ask     AskCmd     `cmd:"" help:"Ask a single question and exit"`
	Version VersionCmd `cmd:"" help:"Show version information"`

	Config string `help:"Config file path" default:"claimpilot.toml"`
	Team   string `help:"Team definition file (overrides config)"`
}

// ServeCmd runs the HTTP chat service.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)"`
}

// ChatCmd starts the interactive terminal chat.
type ChatCmd struct {
	Thread string `help:"Resume an existing thread id"`
}

// AskCmd asks a single question and prints the consolidated answer.
type AskCmd struct {
	Prompt []string `arg:"" help:"The question"`
	Thread string   `help:"Thread id for multi-turn continuity"`
	JSON   bool     `help:"Print the full result as JSON"`
}

// VersionCmd prints version information.
type VersionCmd struct{}
