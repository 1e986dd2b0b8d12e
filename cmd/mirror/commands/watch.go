package commands

import (
	"sync"

	"github.com/spf13/cobra"
	"go.trai.ch/mirror/internal/app"
	"go.trai.ch/mirror/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [type...]",
		Short: "Stream live changes of hot entity types",
		Long:  "Stream live changes until interrupted. Defaults to every hot type (jobs, results, workflows).",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := make([]domain.EntityType, 0, len(args))
			for _, arg := range args {
				t, err := domain.ParseEntityType(arg)
				if err != nil {
					return err
				}
				types = append(types, t)
			}
			a, err := c.application(cmd)
			if err != nil {
				return err
			}
			p := c.printer(cmd)
			var mu sync.Mutex
			return a.Watch(cmd.Context(), types, func(ev app.Event) {
				mu.Lock()
				defer mu.Unlock()
				_ = p.event(ev)
			})
		},
	}
}
