// Package main is the entry point for the mirror sync client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/mirror/cmd/mirror/commands"
	"go.trai.ch/mirror/internal/app"
	_ "go.trai.ch/mirror/internal/wiring"
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, err
	}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, provider ComponentProvider) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Components are built lazily, after flags are parsed
	var components *app.Components
	cli := commands.New(func(ctx context.Context) (commands.Application, error) {
		c, err := provider(ctx)
		if err != nil {
			return nil, err
		}
		components = c
		return c.App, nil
	})
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	// 2. Execution
	err := cli.Execute(ctx)
	if components != nil {
		if closeErr := components.App.Close(); closeErr != nil {
			components.Logger.Error(closeErr)
		}
	}
	if err != nil {
		if components == nil {
			// Logger is not available yet if initialization failed
			_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
