// Package cli implements the ratecraft command line: local and remote premium
// calculation, schema migrations and cache administration.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/turtacn/RateCraft/internal/bootstrap"
	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/client"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	ServerAddr   string
	APIKey       string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	ServerAddr   string
	APIKey       string

	// buildRuntime is swapped in tests.
	buildRuntime func(ctx context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.Runtime, error)
}

// Remote reports whether commands should go through the API server.
func (c *CLIContext) Remote() bool { return c.ServerAddr != "" }

// Client returns an SDK client for --server.
func (c *CLIContext) Client() (*client.Client, error) {
	return client.NewClient(c.ServerAddr,
		client.WithAPIKey(c.APIKey),
		client.WithTimeout(c.Timeout),
		client.WithUserAgent("ratecraft-cli/"+Version))
}

// Runtime wires an in-process rating stack from the loaded config.  The
// caller closes it.
func (c *CLIContext) Runtime(ctx context.Context) (*bootstrap.Runtime, error) {
	build := c.buildRuntime
	if build == nil {
		build = func(ctx context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.Runtime, error) {
			return bootstrap.Build(ctx, cfg, log, bootstrap.Options{})
		}
	}
	return build(ctx, c.Config, c.Logger)
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ratecraft",
		Short: "RateCraft premium rating engine",
		Long: "RateCraft rates personal auto insurance quotes against versioned state rate tables,\n" +
			"applying risk factors, discounts, surcharges and state compliance rules.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./ratecraft.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address; rate in-process when empty")
	pf.StringVar(&opts.APIKey, "api-key", os.Getenv("RATECRAFT_API_KEY"), "API key sent to --server")

	cmd.AddCommand(
		NewCalculateCmd(),
		NewMetricsCmd(),
		NewMigrateCmd(),
		NewCacheCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "ratecraft %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.Newf(errors.CodeInvalidParam, "invalid output format %q (text, json, table)", opts.OutputFormat)
	}

	cfg, err := initConfig(cmd, opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		Timeout:      opts.Timeout,
		ServerAddr:   opts.ServerAddr,
		APIKey:       opts.APIKey,
	}
	if prev, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext); ok && prev.buildRuntime != nil {
		cliCtx.buildRuntime = prev.buildRuntime
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads --config, else the first file found on the search path,
// else built-in defaults.  Environment overrides apply in every case.
func initConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./ratecraft.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".ratecraft", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/ratecraft/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	if opts.Verbose {
		fmt.Fprintln(cmd.ErrOrStderr(), "no config file found, using defaults")
	}
	return config.LoadFromEnv()
}

// initLogger writes to stderr so stdout stays machine readable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return bootstrap.NewLogger(config.LogConfig{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	}, "ratecraft-cli")
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not initialised")
	}
	return cliCtx, nil
}

// commandContext bounds a command by --timeout.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		PrintError(rootCmd, err)
		return exitCode(err)
	}
	return 0
}

// exitCode is 2 for caller mistakes and 1 for everything else.
func exitCode(err error) int {
	if errors.IsClientError(errors.GetCode(err)) {
		return 2
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return 2
	}
	return 1
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd.OutOrStdout(), data)
	}
	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd.OutOrStdout(), data)
	case "table":
		return printTable(cmd.OutOrStdout(), data)
	default:
		return printText(cmd.OutOrStdout(), data)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

type textProvider interface {
	Text() string
}

func printText(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(w, v)
	case textProvider:
		fmt.Fprint(w, v.Text())
	case fmt.Stringer:
		fmt.Fprintln(w, v.String())
	default:
		return printJSON(w, data)
	}
	return nil
}

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

func printTable(w io.Writer, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(w, FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(w, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells func(i int) string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(padRight(cells(i), colWidths[i]))
		}
		sb.WriteString("\n")
	}
	writeRow(func(i int) string { return headers[i] })
	writeRow(func(i int) string { return strings.Repeat("-", colWidths[i]) })
	for _, row := range rows {
		writeRow(func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		})
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
