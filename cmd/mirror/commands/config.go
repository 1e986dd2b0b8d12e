package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

func (c *CLI) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			cfg := *a.Config()
			if cfg.Auth.Token != "" {
				cfg.Auth.Token = redacted
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
