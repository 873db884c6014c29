package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// NewMetricsCmd prints the API server's calculation latency summary.
// A CLI process has no history of its own, so --server is required.
func NewMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the server's premium calculation performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cliCtx.Remote() {
				return errors.InvalidParam("metrics requires --server")
			}
			c, err := cliCtx.Client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			perf, err := c.Premiums().Performance(ctx)
			if err != nil {
				return err
			}
			return PrintResult(cmd, performanceView{perf})
		},
	}
}

type performanceView struct {
	*dto.PerformanceMetrics
}

func (v performanceView) String() string {
	p := v.PerformanceMetrics
	return fmt.Sprintf("calculations=%d failures=%d avg=%.2fms target=%.0fms within_target=%.1f%% degradations=%d",
		p.Count, p.Failures, p.AverageMs, p.TargetMs, p.TargetMetPercentage, p.Degradations)
}

func (v performanceView) TableHeaders() []string {
	return []string{"COUNT", "FAILURES", "AVG_MS", "TARGET_MS", "WITHIN_TARGET", "DEGRADATIONS"}
}

func (v performanceView) TableRows() [][]string {
	p := v.PerformanceMetrics
	return [][]string{{
		fmt.Sprint(p.Count),
		fmt.Sprint(p.Failures),
		fmt.Sprintf("%.2f", p.AverageMs),
		fmt.Sprintf("%.0f", p.TargetMs),
		fmt.Sprintf("%.1f%%", p.TargetMetPercentage),
		fmt.Sprint(p.Degradations),
	}}
}

//Personal.AI order the ending
