package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/internal/bootstrap"
	"github.com/turtacn/RateCraft/internal/config"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/testutil"
	"github.com/turtacn/RateCraft/pkg/types/common"
	dto "github.com/turtacn/RateCraft/pkg/types/rating"
)

const caQuote = `{
  "quote_id": "Q-CLI-1",
  "state": "CA",
  "effective_date": "2026-06-01",
  "territory_code": "90210",
  "drivers": [{"age": 35, "years_licensed": 17, "license_jurisdiction": "CA"}],
  "vehicles": [{"model_year": 2022, "type": "sedan", "annual_mileage": 12000,
                "safety_features": ["abs", "airbags"], "assessed_value": "28000"}],
  "coverages": [
    {"type": "liability", "limit": "300000"},
    {"type": "collision", "limit": "50000", "deductible": "500"}
  ],
  "customer": {"policy_count": 2}
}`

type result struct {
	stdout, stderr string
	err            error
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	if !containsFlag(args, "--config") {
		args = append(args, "--config", writeConfig(t, "database:\n  driver: memory\n"))
	}
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	seed := &CLIContext{buildRuntime: func(ctx context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.Runtime, error) {
		return bootstrap.Build(ctx, cfg, log, bootstrap.Options{
			Clock: testutil.FixedClock(testutil.FixtureNow),
			IDs:   func() string { return "calc-cli" },
		})
	}}
	ctx := context.WithValue(context.Background(), cliContextKey{}, seed)
	err := root.ExecuteContext(ctx)
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "ratecraft", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"calculate", "metrics", "migrate", "cache", "version"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "output", "server", "timeout", "log-level", "api-key"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_InvalidOutputFormat(t *testing.T) {
	res := run(t, caQuote, "calculate", "-o", "yaml")
	require.Error(t, res.err)
	assert.Equal(t, 2, exitCode(res.err))
}

func TestVersion(t *testing.T) {
	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ratecraft dev")
}

func TestCalculate_LocalJSON(t *testing.T) {
	res := run(t, caQuote, "calculate", "-o", "json")
	require.NoError(t, res.err, res.stderr)

	var resp dto.PremiumResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "calc-cli", resp.CalculationID)
	assert.Equal(t, "Q-CLI-1", resp.QuoteID)
	assert.True(t, resp.FinalPremium.IsPositive())
	assert.Len(t, resp.Coverages, 2)
}

func TestCalculate_FromFileAsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	require.NoError(t, os.WriteFile(path, []byte(caQuote), 0o600))

	res := run(t, "", "calculate", path, "-o", "table")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "LINE")
	assert.Contains(t, res.stdout, "coverage")
	assert.Contains(t, res.stdout, "liability")
	assert.Contains(t, res.stdout, "final premium")
}

func TestCalculate_TextWithOverride(t *testing.T) {
	res := run(t, caQuote, "calculate", "--override", "99999")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Quote Q-CLI-1 (CA, effective 2026-06-01)")
	assert.Contains(t, res.stdout, "override")
	assert.Contains(t, res.stdout, "approval required")
	assert.Contains(t, res.stdout, "Calculation calc-cli")
}

func TestCalculate_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"empty", "  ", nil},
		{"malformed", "{", nil},
		{"unknown field", `{"quote_id":"x","colour":"red"}`, nil},
		{"missing file", "", []string{"/does/not/exist.json"}},
		{"bad override", caQuote, []string{"--override", "lots"}},
		{"invalid quote", `{"quote_id":"x","state":"CA"}`, nil},
		{"unknown state", strings.Replace(caQuote, `"state": "CA"`, `"state": "WY"`, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.stdin, append([]string{"calculate"}, tt.args...)...)
			require.Error(t, res.err)
			assert.Equal(t, 2, exitCode(res.err), res.err.Error())
		})
	}
}

func envelope(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(common.APIResponse[interface{}]{Success: true, Data: data})
}

func TestCalculate_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/premiums/calculate", r.URL.Path)
		assert.Equal(t, "k1", r.Header.Get("X-API-Key"))
		envelope(w, dto.PremiumResponse{CalculationID: "remote-1", QuoteID: "Q-CLI-1", FinalPremium: decimal.NewFromInt(1200)})
	}))
	defer srv.Close()

	res := run(t, caQuote, "calculate", "--server", srv.URL, "--api-key", "k1", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, `"calculation_id": "remote-1"`)
}

func TestMetrics(t *testing.T) {
	res := run(t, "", "metrics")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--server")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, dto.PerformanceMetrics{Count: 12, Failures: 1, AverageMs: 4.25, TargetMs: 50, TargetMetPercentage: 91.7})
	}))
	defer srv.Close()

	res = run(t, "", "metrics", "--server", srv.URL)
	require.NoError(t, res.err)
	assert.Equal(t, "calculations=12 failures=1 avg=4.25ms target=50ms within_target=91.7% degradations=0\n", res.stdout)

	res = run(t, "", "metrics", "--server", srv.URL, "-o", "table")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "WITHIN_TARGET")
	assert.Contains(t, res.stdout, "91.7%")
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	res := run(t, "", "migrate", "status")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "database.driver=postgres")
}

func TestMigrate_OpenFailure(t *testing.T) {
	cfg := writeConfig(t, "database:\n  driver: postgres\n  host: db.internal\n  user: ratecraft\n  db_name: ratecraft\n")
	opened := false
	prev := openDatabase
	openDatabase = func(context.Context, *CLIContext) (*postgres.Connection, error) {
		opened = true
		return nil, assert.AnError
	}
	defer func() { openDatabase = prev }()

	res := run(t, "", "migrate", "status", "--config", cfg)
	assert.ErrorIs(t, res.err, assert.AnError)
	assert.True(t, opened)
}

func TestCacheFlush(t *testing.T) {
	res := run(t, "", "cache", "flush", "California")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "two-letter")

	res = run(t, "", "cache", "flush", "ca")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "redis.enabled")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/cache/states/CA", r.URL.Path)
		envelope(w, map[string]interface{}{"state": "CA", "removed": 3})
	}))
	defer srv.Close()
	res = run(t, "", "cache", "flush", "ca", "--server", srv.URL)
	require.NoError(t, res.err)
	assert.Equal(t, "OK: removed 3 cached entries for CA\n", res.stdout)
}

func TestCacheFlush_LocalRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("ratecraft:rating:ratetable:CA:abc", "{}"))
	require.NoError(t, mr.Set("ratecraft:rating:ratetable:TX:abc", "{}"))
	cfg := writeConfig(t, "database:\n  driver: memory\nredis:\n  enabled: true\n  addr: "+mr.Addr()+"\n  read_timeout: 1s\n  write_timeout: 1s\n")

	res := run(t, "", "cache", "flush", "CA", "--config", cfg)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "OK: removed 1 cached entries for CA\n", res.stdout)
	assert.False(t, mr.Exists("ratecraft:rating:ratetable:CA:abc"))
	assert.True(t, mr.Exists("ratecraft:rating:ratetable:TX:abc"))
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"A", "LONGER"}, [][]string{{"wide value", "x"}, {"y"}})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A           LONGER", lines[0])
	assert.Equal(t, "----------  ------", lines[1])
	assert.Equal(t, "wide value  x     ", lines[2])
	assert.Empty(t, FormatTable(nil, nil))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewCalculateCmd()
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

//Personal.AI order the ending
