// Package commands implements the CLI commands for the mirror sync client.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/mirror/internal/adapters/config"
	"go.trai.ch/mirror/internal/app"
	"go.trai.ch/mirror/internal/build"
	"go.trai.ch/mirror/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	Get(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error)
	List(ctx context.Context, t domain.EntityType, filters domain.Filters) ([]domain.Entity, error)
	Watch(ctx context.Context, types []domain.EntityType, fn func(app.Event)) error
	Config() *config.Config
}

// Loader builds the application once flags are parsed. The context carries
// the --config path.
type Loader func(ctx context.Context) (Application, error)

// CLI represents the command line interface for mirror.
type CLI struct {
	load    Loader
	app     Application
	rootCmd *cobra.Command
}

// New creates a new CLI instance. load is called at most once, by the first
// command that needs the application.
func New(load Loader) *CLI {
	rootCmd := &cobra.Command{
		Use:           "mirror",
		Short:         "Keep a local mirror of the extraction platform in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to "+domain.ConfigFileName)
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable JSON")

	c := &CLI{
		load:    load,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newGetCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) application(cmd *cobra.Command) (Application, error) {
	if c.app != nil {
		return c.app, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	a, err := c.load(config.WithPath(cmd.Context(), path))
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *CLI) printer(cmd *cobra.Command) *printer {
	asJSON, _ := cmd.Flags().GetBool("json")
	return &printer{w: cmd.OutOrStdout(), json: asJSON}
}
