package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Fetch a single entity",
		Long:  "Fetch a single entity. Types: " + typeList() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			e, err := a.Get(cmd.Context(), t, args[1])
			if err != nil {
				return err
			}
			return c.printer(cmd).entity(e)
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List a collection",
		Long:  "List a collection. Types: " + typeList() + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetStringArray("filter")
			filters, err := parseFilters(raw)
			if err != nil {
				return err
			}
			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			list, err := a.List(cmd.Context(), t, filters)
			if err != nil {
				return err
			}
			return c.printer(cmd).entities(t, list)
		},
	}
	cmd.Flags().StringArrayP("filter", "f", nil, "Filter as key=value (repeatable)")
	return cmd
}

func parseFilters(raw []string) (domain.Filters, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := make(domain.Filters, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrValidation, "filter must be key=value"), "filter", kv)
		}
		filters[strings.TrimSpace(k)] = v
	}
	return filters, nil
}

func typeList() string {
	types := domain.EntityTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
