package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/turtacn/RateCraft/pkg/errors"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

// NewCalculateCmd rates a quote read from a file or stdin.
func NewCalculateCmd() *cobra.Command {
	var override string

	cmd := &cobra.Command{
		Use:   "calculate [quote.json|-]",
		Short: "Calculate the premium for a quote",
		Long: "Reads a quote request as JSON from the named file, or from stdin when the\n" +
			"argument is omitted or \"-\", and prints the rated premium.  With --server the\n" +
			"quote is rated by the API; otherwise an in-process engine is built from config.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			req, err := readQuote(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			if override != "" {
				if req.OverridePremium, err = parseDecimal(override); err != nil {
					return err
				}
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			var resp *dto.PremiumResponse
			if cliCtx.Remote() {
				c, err := cliCtx.Client()
				if err != nil {
					return err
				}
				resp, err = c.Premiums().Calculate(ctx, req)
				if err != nil {
					return err
				}
			} else {
				rt, err := cliCtx.Runtime(ctx)
				if err != nil {
					return err
				}
				defer rt.Close()
				if resp, err = rt.Service.Calculate(ctx, req); err != nil {
					return err
				}
			}
			return PrintResult(cmd, premiumView{resp})
		},
	}

	cmd.Flags().StringVar(&override, "override", "", "underwriter override premium")
	return cmd
}

func readQuote(stdin io.Reader, path string) (*dto.QuoteRequest, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "cannot read quote").WithDetail(path)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.InvalidParam("quote input is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var req dto.QuoteRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "malformed quote JSON")
	}
	return &req, nil
}

// premiumView renders a premium response for each output format.
type premiumView struct {
	*dto.PremiumResponse
}

func (v premiumView) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.PremiumResponse)
}

func (v premiumView) Text() string {
	r := v.PremiumResponse
	var sb strings.Builder
	fmt.Fprintf(&sb, "Quote %s (%s, effective %s)\n", r.QuoteID, r.State, r.EffectiveDate)
	fmt.Fprintf(&sb, "  base premium      %12s\n", r.BasePremium.StringFixed(2))
	fmt.Fprintf(&sb, "  combined factor   %12s\n", r.CombinedFactor.StringFixed(4))
	fmt.Fprintf(&sb, "  factored premium  %12s\n", r.FactoredPremium.StringFixed(2))
	if !r.TotalDiscount.IsZero() {
		capped := ""
		if r.DiscountCapped {
			capped = " (capped)"
		}
		fmt.Fprintf(&sb, "  discounts         %12s%s\n", r.TotalDiscount.Neg().StringFixed(2), capped)
	}
	if !r.TotalSurcharge.IsZero() {
		fmt.Fprintf(&sb, "  surcharges        %12s\n", r.TotalSurcharge.StringFixed(2))
	}
	fmt.Fprintf(&sb, "  final premium     %12s\n", r.FinalPremium.StringFixed(2))
	if r.OverridePremium != nil {
		fmt.Fprintf(&sb, "  override          %12s\n", r.OverridePremium.StringFixed(2))
	}
	fmt.Fprintf(&sb, "Compliance: %s", r.Compliance.Status)
	if r.Compliance.RequiresApproval {
		sb.WriteString(" (approval required)")
	}
	if r.RequiresSR22 {
		sb.WriteString(", SR-22 required")
	}
	sb.WriteString("\n")
	for _, viol := range r.Compliance.Violations {
		fmt.Fprintf(&sb, "  %s %s: %s\n", viol.Severity, viol.Code, viol.Message)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "Warning: %s %s: %s\n", w.Component, w.Code, w.Message)
	}
	fmt.Fprintf(&sb, "Calculation %s in %.2fms\n", r.CalculationID, r.DurationMs)
	return sb.String()
}

func (v premiumView) TableHeaders() []string {
	return []string{"LINE", "NAME", "SOURCE", "VALUE"}
}

func (v premiumView) TableRows() [][]string {
	r := v.PremiumResponse
	var rows [][]string
	for _, c := range r.Coverages {
		rows = append(rows, []string{"coverage", c.Coverage, fmt.Sprintf("%s v%d", c.RateTableID, c.RateTableVersion), c.BasePremium.StringFixed(2)})
	}
	for _, f := range r.Factors {
		source := f.Source
		if f.Degraded {
			source += " (degraded)"
		}
		rows = append(rows, []string{"factor", f.Name, source, f.Multiplier.StringFixed(4)})
	}
	for _, d := range r.Discounts {
		rows = append(rows, []string{"discount", d.Code, d.Type, d.Amount.Neg().StringFixed(2)})
	}
	for _, s := range r.Surcharges {
		rows = append(rows, []string{"surcharge", s.Code, s.Type, s.Amount.StringFixed(2)})
	}
	rows = append(rows, []string{"total", "final premium", r.Compliance.Status, r.FinalPremium.StringFixed(2)})
	return rows
}

func parseDecimal(s string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid amount").WithDetail(s)
	}
	return &d, nil
}

//Personal.AI order the ending
