package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/database/postgres"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// QueryObserver is told about every query the repository runs.
type QueryObserver func(operation string, elapsed time.Duration, err error)

type Option func(*RatingRepository)

// WithQueryObserver attaches o, typically a metrics recorder.
func WithQueryObserver(o QueryObserver) Option {
	return func(r *RatingRepository) { r.observe = o }
}

// RatingRepository is the PostgreSQL RateTableStore and TerritoryStore.
type RatingRepository struct {
	conn    *postgres.Connection
	logger  logging.Logger
	observe QueryObserver
}

var (
	_ rating.RateTableStore = (*RatingRepository)(nil)
	_ rating.TerritoryStore = (*RatingRepository)(nil)
)

func NewRatingRepository(conn *postgres.Connection, log logging.Logger, opts ...Option) *RatingRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	r := &RatingRepository{conn: conn, logger: log.Named("rating_repo")}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *RatingRepository) track(op string, start time.Time, rows int64, err error) {
	elapsed := time.Since(start)
	if r.observe != nil {
		r.observe(op, elapsed, err)
	}
	logging.LogDatabaseQuery(r.logger, op, elapsed, rows, err)
}

const rateTableColumns = `id, state, product_type, coverage_type, version, base_rate,
	min_premium, max_premium, effective_date, expiration_date, status`

// GetActiveRate returns the highest active version whose window contains
// asOf.  Draft, archived and expired versions are never returned.
func (r *RatingRepository) GetActiveRate(ctx context.Context, scope rating.RateScope, asOf time.Time) (*rating.RateTable, error) {
	start := time.Now()
	row := r.conn.DB().QueryRowContext(ctx, `
		SELECT `+rateTableColumns+`
		FROM rate_tables
		WHERE state = $1 AND product_type = $2 AND coverage_type = $3
		  AND status = 'active'
		  AND effective_date <= $4
		  AND (expiration_date IS NULL OR expiration_date > $4)
		ORDER BY version DESC
		LIMIT 1`,
		scope.State, string(scope.ProductType), string(scope.CoverageType), asOf)

	t, err := scanRateTable(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.track("get_active_rate", start, 0, nil)
		return nil, errors.RateTableNotFound(scope.State, string(scope.ProductType), string(scope.CoverageType))
	}
	if err != nil {
		r.track("get_active_rate", start, 0, err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query active rate table")
	}
	r.track("get_active_rate", start, 1, nil)
	return t, nil
}

// ListRateTables returns every version filed for a scope, newest first.
func (r *RatingRepository) ListRateTables(ctx context.Context, scope rating.RateScope) ([]rating.RateTable, error) {
	start := time.Now()
	rows, err := r.conn.DB().QueryContext(ctx, `
		SELECT `+rateTableColumns+`
		FROM rate_tables
		WHERE state = $1 AND product_type = $2 AND coverage_type = $3
		ORDER BY version DESC`,
		scope.State, string(scope.ProductType), string(scope.CoverageType))
	if err != nil {
		r.track("list_rate_tables", start, 0, err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "list rate tables")
	}
	defer rows.Close()

	var out []rating.RateTable
	for rows.Next() {
		t, err := scanRateTable(rows)
		if err != nil {
			r.track("list_rate_tables", start, int64(len(out)), err)
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan rate table")
		}
		out = append(out, *t)
	}
	err = rows.Err()
	r.track("list_rate_tables", start, int64(len(out)), err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate rate tables")
	}
	return out, nil
}

func scanRateTable(s scanner) (*rating.RateTable, error) {
	var (
		t          rating.RateTable
		product    string
		coverage   string
		status     string
		expiration sql.NullTime
	)
	err := s.Scan(&t.ID, &t.Scope.State, &product, &coverage, &t.Version, &t.BaseRate,
		&t.MinPremium, &t.MaxPremium, &t.EffectiveDate, &expiration, &status)
	if err != nil {
		return nil, err
	}
	t.Scope.ProductType = rating.ProductType(product)
	t.Scope.CoverageType = rating.CoverageType(coverage)
	t.Status = rating.RateTableStatus(status)
	if expiration.Valid {
		exp := expiration.Time
		t.ExpirationDate = &exp
	}
	return &t, nil
}

func (r *RatingRepository) GetDiscountRules(ctx context.Context, state string, product rating.ProductType) ([]rating.Rule, error) {
	return r.rules(ctx, rating.KindDiscount, state, product)
}

func (r *RatingRepository) GetSurchargeRules(ctx context.Context, state string, product rating.ProductType) ([]rating.Rule, error) {
	return r.rules(ctx, rating.KindSurcharge, state, product)
}

// rules loads the active catalog for a kind.  An empty states or
// product_types array means the rule applies everywhere.
func (r *RatingRepository) rules(ctx context.Context, kind rating.RuleKind, state string, product rating.ProductType) ([]rating.Rule, error) {
	op := "get_" + string(kind) + "_rules"
	start := time.Now()
	rows, err := r.conn.DB().QueryContext(ctx, `
		SELECT body
		FROM rating_rules
		WHERE kind = $1 AND active
		  AND (cardinality(states) = 0 OR $2 = ANY(states))
		  AND (cardinality(product_types) = 0 OR $3 = ANY(product_types))
		ORDER BY priority, code`,
		string(kind), state, string(product))
	if err != nil {
		r.track(op, start, 0, err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query rating rules")
	}
	defer rows.Close()

	var out []rating.Rule
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			r.track(op, start, int64(len(out)), err)
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan rating rule")
		}
		var rule rating.Rule
		if err := json.Unmarshal(body, &rule); err != nil {
			r.track(op, start, int64(len(out)), err)
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode rating rule")
		}
		out = append(out, rule)
	}
	err = rows.Err()
	r.track(op, start, int64(len(out)), err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate rating rules")
	}
	return rating.SortRules(out), nil
}

func (r *RatingRepository) GetTerritoryStats(ctx context.Context, state, code string) (*rating.TerritoryStats, error) {
	start := time.Now()
	ts := rating.TerritoryStats{State: state, Code: code}
	var cred decimal.NullDecimal
	err := r.conn.DB().QueryRowContext(ctx, `
		SELECT local_loss_cost, observations, credibility
		FROM territory_stats
		WHERE state = $1 AND code = $2`, state, code).
		Scan(&ts.LocalLossCost, &ts.Observations, &cred)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.track("get_territory_stats", start, 0, nil)
		return nil, errors.NotFound("territory not found").WithDetail("state=" + state + " code=" + code)
	}
	r.track("get_territory_stats", start, 1, err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query territory stats")
	}
	if cred.Valid {
		c := cred.Decimal
		ts.Credibility = &c
	}
	return &ts, nil
}

func (r *RatingRepository) GetStatewideStats(ctx context.Context, state string) (*rating.StatewideStats, error) {
	start := time.Now()
	st := rating.StatewideStats{State: state}
	err := r.conn.DB().QueryRowContext(ctx, `
		SELECT base_loss_cost, average_loss_cost, credibility_threshold
		FROM statewide_stats
		WHERE state = $1`, state).
		Scan(&st.BaseLossCost, &st.AverageLossCost, &st.CredibilityThreshold)
	if stderrors.Is(err, sql.ErrNoRows) {
		r.track("get_statewide_stats", start, 0, nil)
		return nil, errors.NotFound("statewide stats not found").WithDetail("state=" + state)
	}
	r.track("get_statewide_stats", start, 1, err)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query statewide stats")
	}
	return &st, nil
}

// ---- writes ----

// UpsertRateTable files or replaces a rate table version.
func (r *RatingRepository) UpsertRateTable(ctx context.Context, t rating.RateTable) error {
	return upsertRateTable(ctx, r.conn.DB(), t)
}

func upsertRateTable(ctx context.Context, q queryExecutor, t rating.RateTable) error {
	var expiration interface{}
	if t.ExpirationDate != nil {
		expiration = *t.ExpirationDate
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO rate_tables (`+rateTableColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			base_rate = EXCLUDED.base_rate,
			min_premium = EXCLUDED.min_premium,
			max_premium = EXCLUDED.max_premium,
			effective_date = EXCLUDED.effective_date,
			expiration_date = EXCLUDED.expiration_date,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		t.ID, t.Scope.State, string(t.Scope.ProductType), string(t.Scope.CoverageType), t.Version,
		t.BaseRate.String(), t.MinPremium.String(), t.MaxPremium.String(),
		t.EffectiveDate, expiration, string(t.Status))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upsert rate table").WithDetail("id=" + t.ID)
	}
	return nil
}

// ActivateVersion makes id the active version of its scope and archives the
// previously active one, in one transaction.
func (r *RatingRepository) ActivateVersion(ctx context.Context, id string) error {
	start := time.Now()
	err := postgres.WithTransaction(ctx, r.conn.DB(), func(tx *sql.Tx) error {
		var state, product, coverage string
		err := tx.QueryRowContext(ctx,
			`SELECT state, product_type, coverage_type FROM rate_tables WHERE id = $1 FOR UPDATE`, id).
			Scan(&state, &product, &coverage)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("rate table not found").WithDetail("id=" + id)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "lock rate table")
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE rate_tables SET status = 'archived', updated_at = NOW()
			WHERE state = $1 AND product_type = $2 AND coverage_type = $3
			  AND status = 'active' AND id <> $4`, state, product, coverage, id); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "archive active rate table")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE rate_tables SET status = 'active', updated_at = NOW() WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "activate rate table")
		}
		return nil
	})
	r.track("activate_version", start, 1, err)
	if err == nil {
		r.logger.Info("rate table activated", logging.String("id", id))
	}
	return err
}

// UpsertRule stores the rule body as JSON next to the columns used for
// filtering.
func (r *RatingRepository) UpsertRule(ctx context.Context, rule rating.Rule) error {
	return upsertRule(ctx, r.conn.DB(), rule)
}

func upsertRule(ctx context.Context, q queryExecutor, rule rating.Rule) error {
	body, err := json.Marshal(rule)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode rating rule")
	}
	products := make([]string, len(rule.ProductTypes))
	for i, p := range rule.ProductTypes {
		products[i] = string(p)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO rating_rules (code, kind, priority, active, states, product_types, body)
		VALUES ($1, $2, $3, $4, $5::text[], $6::text[], $7)
		ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind,
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			states = EXCLUDED.states,
			product_types = EXCLUDED.product_types,
			body = EXCLUDED.body,
			updated_at = NOW()`,
		rule.Code, string(rule.Kind), rule.Priority, rule.Active,
		textArray(rule.States), textArray(products), body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upsert rating rule").WithDetail("code=" + rule.Code)
	}
	return nil
}

func upsertStatewide(ctx context.Context, q queryExecutor, st rating.StatewideStats) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO statewide_stats (state, base_loss_cost, average_loss_cost, credibility_threshold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (state) DO UPDATE SET
			base_loss_cost = EXCLUDED.base_loss_cost,
			average_loss_cost = EXCLUDED.average_loss_cost,
			credibility_threshold = EXCLUDED.credibility_threshold,
			updated_at = NOW()`,
		st.State, st.BaseLossCost.String(), st.AverageLossCost.String(), st.CredibilityThreshold)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upsert statewide stats").WithDetail("state=" + st.State)
	}
	return nil
}

func upsertTerritory(ctx context.Context, q queryExecutor, ts rating.TerritoryStats) error {
	var cred interface{}
	if ts.Credibility != nil {
		cred = ts.Credibility.String()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO territory_stats (state, code, local_loss_cost, observations, credibility)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (state, code) DO UPDATE SET
			local_loss_cost = EXCLUDED.local_loss_cost,
			observations = EXCLUDED.observations,
			credibility = EXCLUDED.credibility,
			updated_at = NOW()`,
		ts.State, ts.Code, ts.LocalLossCost.String(), ts.Observations, cred)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "upsert territory stats").WithDetail("code=" + ts.Code)
	}
	return nil
}

// Catalog is a complete set of rating reference data.
type Catalog struct {
	RateTables  []rating.RateTable
	Rules       []rating.Rule
	Statewide   []rating.StatewideStats
	Territories []rating.TerritoryStats
}

// Seed writes catalog in one transaction.  Existing rows with the same keys
// are replaced, so seeding twice is harmless.
func (r *RatingRepository) Seed(ctx context.Context, catalog Catalog) error {
	start := time.Now()
	n := int64(len(catalog.RateTables) + len(catalog.Rules) + len(catalog.Statewide) + len(catalog.Territories))
	err := postgres.WithTransaction(ctx, r.conn.DB(), func(tx *sql.Tx) error {
		for _, t := range catalog.RateTables {
			if err := upsertRateTable(ctx, tx, t); err != nil {
				return err
			}
		}
		for _, rule := range catalog.Rules {
			if err := upsertRule(ctx, tx, rule); err != nil {
				return err
			}
		}
		for _, st := range catalog.Statewide {
			if err := upsertStatewide(ctx, tx, st); err != nil {
				return err
			}
		}
		for _, ts := range catalog.Territories {
			if err := upsertTerritory(ctx, tx, ts); err != nil {
				return err
			}
		}
		return nil
	})
	r.track("seed_catalog", start, n, err)
	return err
}

//Personal.AI order the ending
