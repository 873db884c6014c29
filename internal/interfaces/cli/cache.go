package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// NewCacheCmd administers the shared rating cache.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached rate tables and territory statistics",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush <state>",
		Short: "Drop cached rating data for a state",
		Long: "Drops cached rate tables and territory factors for a state, typically after a\n" +
			"new rate-table version is activated.  With --server the API instance flushes its\n" +
			"cache; otherwise the shared Redis cache from config is flushed directly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			state := strings.ToUpper(strings.TrimSpace(args[0]))
			if len(state) != 2 {
				return errors.Newf(errors.CodeInvalidParam, "state must be a two-letter code, got %q", args[0])
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			var removed int64
			if cliCtx.Remote() {
				c, err := cliCtx.Client()
				if err != nil {
					return err
				}
				out, err := c.Premiums().InvalidateState(ctx, state)
				if err != nil {
					return err
				}
				removed = out.Removed
			} else {
				if !cliCtx.Config.Redis.Enabled {
					return errors.InvalidParam("local cache flush requires redis.enabled; use --server to flush an API instance")
				}
				rt, err := cliCtx.Runtime(ctx)
				if err != nil {
					return err
				}
				defer rt.Close()
				if removed, err = rt.Service.InvalidateState(ctx, state); err != nil {
					return err
				}
			}
			PrintSuccess(cmd, fmt.Sprintf("removed %d cached entries for %s", removed, state))
			return nil
		},
	})
	return cmd
}

//Personal.AI order the ending
