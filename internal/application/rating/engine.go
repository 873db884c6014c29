package rating

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// PremiumRequest is the input of CalculatePremium.  ManualDiscounts and
// OverridePremium are optional underwriter inputs.
type PremiumRequest struct {
	Quote           *domain.Quote
	ManualDiscounts []domain.ManualDiscount
	OverridePremium *decimal.Decimal
}

// Calculator is the public rating operation, consumed by the HTTP layer,
// the CLI and the worker.
type Calculator interface {
	CalculatePremium(ctx context.Context, req PremiumRequest) (domain.RatingResult, error)
	GetPerformanceMetrics() PerformanceSnapshot
}

// Engine is the RatingEngine.  It is safe for concurrent use; the only
// shared mutable state is the cache, the monitor counters and the policy
// pointer.
type Engine struct {
	store       domain.RateTableStore
	territories domain.TerritoryStore
	signals     domain.ExternalSignalProvider
	scorer      domain.AIRiskScorer
	aiEnabled   atomic.Bool

	cache   *RatingCache
	monitor *PerformanceMonitor
	logger  logging.Logger
	clock   func() time.Time
	newID   func() string

	initial Policy
	current atomic.Pointer[pipeline]
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the initial policy.  The default is DefaultPolicy().
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.initial = p }
}

// WithSignalProvider enables external signal factors.
func WithSignalProvider(p domain.ExternalSignalProvider) Option {
	return func(e *Engine) { e.signals = p }
}

// WithAIScorer enables the statistical risk factor.
func WithAIScorer(s domain.AIRiskScorer) Option {
	return func(e *Engine) {
		e.scorer = s
		e.aiEnabled.Store(s != nil)
	}
}

// WithCache memoizes rate-table and territory lookups.
func WithCache(c *RatingCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMonitor replaces the engine's own PerformanceMonitor.
func WithMonitor(m *PerformanceMonitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the clock used for input validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithIDGenerator overrides calculation ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine creates a rating engine over the given stores.
func NewEngine(store domain.RateTableStore, territories domain.TerritoryStore, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidRatingConfiguration, "rate table store is required")
	}
	if territories == nil {
		return nil, errors.New(errors.ErrCodeInvalidRatingConfiguration, "territory store is required")
	}
	e := &Engine{
		store:       store,
		territories: territories,
		logger:      logging.NewNopLogger(),
		clock:       time.Now,
		newID:       uuid.NewString,
		initial:     DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(compile(e.initial, territories))
	if e.monitor == nil {
		e.monitor = NewPerformanceMonitor(e.initial.LatencyTarget, nil)
	}
	if e.cache == nil {
		e.cache = NewRatingCache(nil, 0, e.logger)
	}
	e.cache.SetTimeout(e.initial.StoreTimeout)
	e.logger = e.logger.Named("rating_engine")
	return e, nil
}

// Policy returns the policy currently in effect.
func (e *Engine) Policy() Policy { return e.current.Load().policy }

// UpdatePolicy atomically swaps the policy.  In-flight calculations finish on
// the snapshot they started with.
func (e *Engine) UpdatePolicy(p Policy) {
	e.current.Store(compile(p, e.territories))
	e.monitor.SetTarget(p.LatencyTarget)
	e.cache.SetTTL(p.CacheTTL)
	e.cache.SetTimeout(p.StoreTimeout)
	e.logger.Info("rating policy updated",
		logging.String("discount_cap", p.DiscountCap.String()),
		logging.Duration("signal_timeout", p.SignalTimeout),
		logging.Duration("ai_timeout", p.AITimeout))
}

// SetAIEnabled toggles the AI factor without rebuilding the engine.  It has
// no effect when no scorer is configured.
func (e *Engine) SetAIEnabled(enabled bool) { e.aiEnabled.Store(enabled && e.scorer != nil) }

// AIEnabled reports whether AI scoring participates in calculations.
func (e *Engine) AIEnabled() bool { return e.aiEnabled.Load() }

// GetPerformanceMetrics returns the monitor snapshot.
func (e *Engine) GetPerformanceMetrics() PerformanceSnapshot { return e.monitor.Snapshot() }

// Monitor exposes the engine's PerformanceMonitor.
func (e *Engine) Monitor() *PerformanceMonitor { return e.monitor }

// Cache exposes the engine's RatingCache.
func (e *Engine) Cache() *RatingCache { return e.cache }

// CalculatePremium runs the full pipeline for one quote.  Fatal problems
// (invalid input, missing rate tables, manual discounts over the cap, store
// failures) are returned as *errors.AppError; degraded factors only add
// warnings to the result.
func (e *Engine) CalculatePremium(ctx context.Context, req PremiumRequest) (domain.RatingResult, error) {
	start := time.Now()
	p := e.current.Load()
	calcID := e.newID()
	ctx = logging.WithCalculationID(ctx, calcID)

	state := ""
	if req.Quote != nil {
		state = req.Quote.State
	}
	log := e.logger.WithContext(ctx)
	if req.Quote != nil {
		log = log.With(logging.String(logging.FieldQuoteID, req.Quote.ID), logging.String(logging.FieldState, state))
	}

	res, err := e.calculate(ctx, p, calcID, req, start, log)
	elapsed := time.Since(start)
	e.monitor.Record(state, elapsed, err)
	if err != nil {
		log.WithError(err).Error("premium calculation failed", logging.Duration("elapsed", elapsed))
		return domain.RatingResult{}, err
	}
	log.Debug("premium calculated",
		logging.String("final_premium", res.FinalPremium.StringFixed(2)),
		logging.Int("warnings", len(res.Warnings)),
		logging.Duration("elapsed", elapsed))
	return res, nil
}

func (e *Engine) calculate(ctx context.Context, p *pipeline, calcID string, req PremiumRequest, start time.Time, log logging.Logger) (domain.RatingResult, error) {
	q := req.Quote
	if q == nil {
		return domain.RatingResult{}, errors.InvalidParam("quote is required")
	}
	if err := q.Validate(e.clock()); err != nil {
		return domain.RatingResult{}, err
	}
	if err := p.validator.CheckCoverageSelection(q); err != nil {
		return domain.RatingResult{}, err
	}
	if req.OverridePremium != nil && !req.OverridePremium.IsPositive() {
		return domain.RatingResult{}, errors.InvalidParam("override premium must be positive")
	}
	product, err := domain.InferProductType(q.Coverages)
	if err != nil {
		return domain.RatingResult{}, err
	}

	// Step 1: rate tables and rule catalogs.
	data, err := e.loadRatingData(ctx, p.policy, q, product)
	if err != nil {
		return domain.RatingResult{}, err
	}

	// Step 2: base premium, rounded once per coverage line.
	coverages := make([]domain.CoveragePremium, 0, len(q.Coverages))
	tables := make(map[domain.CoverageType]domain.RateTable, len(q.Coverages))
	base := decimal.Zero
	for i, c := range q.Coverages {
		t := data.tables[i]
		tables[c.Type] = t
		line := domain.RoundMoney(c.Limit.Mul(t.BaseRate))
		base = base.Add(line)
		coverages = append(coverages, domain.CoveragePremium{
			Coverage:         c.Type,
			Limit:            c.Limit,
			BaseRate:         t.BaseRate,
			RateTableID:      t.ID,
			RateTableVersion: t.Version,
			BasePremium:      line,
			Deductible:       copyDecimal(c.Deductible),
		})
	}

	// Steps 3 and 4: factors, then one combined multiplication.
	factors, warnings := e.computeFactors(ctx, p, q, log)
	factored := domain.ApplyFactors(base, factors)

	// Step 5: discounts, then surcharges on the post-discount balance.
	discounts := p.discounts.Apply(factored, domain.SelectCandidates(data.discountRules, q, product))
	discounts, err = p.discounts.ApplyManual(discounts, req.ManualDiscounts)
	if err != nil {
		return domain.RatingResult{}, err
	}
	surcharges := p.surcharge.Apply(discounts.After, domain.SelectCandidates(data.surchargeRules, q, product), q)

	// Step 6: clamp, disclosing any adjustment through the validator.
	unclamped := surcharges.After
	final := domain.RoundMoney(p.validator.PremiumBounds(q, tables).Clamp(unclamped))

	compliance := p.validator.Validate(domain.ValidationInput{
		Quote:            q,
		FinalPremium:     final,
		UnclampedPremium: unclamped,
		OverridePremium:  req.OverridePremium,
		Flags:            surcharges.Flags,
		DiscountCapped:   discounts.Capped,
	})

	// Step 7: assemble.
	return domain.NewRatingResult(domain.ResultParts{
		CalculationID:    calcID,
		Quote:            q,
		ProductType:      product,
		Coverages:        coverages,
		BasePremium:      base,
		FactoredPremium:  factored,
		Factors:          factors,
		Discounts:        discounts,
		Surcharges:       surcharges,
		UnclampedPremium: unclamped,
		FinalPremium:     final,
		OverridePremium:  req.OverridePremium,
		Compliance:       compliance,
		Warnings:         warnings,
		CalculatedAt:     e.clock(),
		Duration:         time.Since(start),
	}), nil
}

// ratingData is what step 1 loads from the store.
type ratingData struct {
	tables         []domain.RateTable
	discountRules  []domain.Rule
	surchargeRules []domain.Rule
}

// loadRatingData fetches every coverage's rate table and both rule catalogs
// concurrently.  Any failure is fatal and cancels the remaining lookups.
func (e *Engine) loadRatingData(ctx context.Context, pol Policy, q *domain.Quote, product domain.ProductType) (ratingData, error) {
	data := ratingData{tables: make([]domain.RateTable, len(q.Coverages))}
	g, gctx := errgroup.WithContext(ctx)

	for i, c := range q.Coverages {
		i, scope := i, domain.RateScope{State: q.State, ProductType: product, CoverageType: c.Type}
		g.Go(func() error {
			t, err := e.cache.RateTable(gctx, scope, q.EffectiveDate, func(ctx context.Context) (*domain.RateTable, error) {
				return callWithTimeout(ctx, pol.StoreTimeout, func(ctx context.Context) (*domain.RateTable, error) {
					return e.store.GetActiveRate(ctx, scope, q.EffectiveDate)
				})
			})
			if err != nil {
				return storeError(err, "rate table lookup failed", scope.State, string(scope.CoverageType))
			}
			data.tables[i] = *t
			return nil
		})
	}
	g.Go(func() error {
		rules, err := callWithTimeout(gctx, pol.StoreTimeout, func(ctx context.Context) ([]domain.Rule, error) {
			return e.store.GetDiscountRules(ctx, q.State, product)
		})
		if err != nil {
			return storeError(err, "discount rules lookup failed", q.State, "")
		}
		data.discountRules = rules
		return nil
	})
	g.Go(func() error {
		rules, err := callWithTimeout(gctx, pol.StoreTimeout, func(ctx context.Context) ([]domain.Rule, error) {
			return e.store.GetSurchargeRules(ctx, q.State, product)
		})
		if err != nil {
			return storeError(err, "surcharge rules lookup failed", q.State, "")
		}
		data.surchargeRules = rules
		return nil
	})

	if err := g.Wait(); err != nil {
		return ratingData{}, err
	}
	return data, nil
}

// storeError keeps taxonomy errors from the store and wraps anything else.
func storeError(err error, msg, state, coverage string) error {
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	detail := "state=" + state
	if coverage != "" {
		detail += " coverage=" + coverage
	}
	return errors.Wrap(err, errors.ErrCodeDatabaseError, msg).WithDetail(detail)
}

// factorSlot is one factor computation's output.
type factorSlot struct {
	factor  *domain.Factor
	warning *domain.Warning
}

// computeFactors evaluates every factor.  Driver and vehicle factors are
// pure; territory, external signals and the AI score run concurrently under
// per-call timeouts and degrade to 1.0 on failure.  It returns only after
// every call has finished or been abandoned, with factors in FactorOrder.
func (e *Engine) computeFactors(ctx context.Context, p *pipeline, q *domain.Quote, log logging.Logger) ([]domain.Factor, []domain.Warning) {
	slots := make(map[string]*factorSlot, len(domain.FactorOrder))
	for _, name := range domain.FactorOrder {
		slots[name] = &factorSlot{}
	}

	driver := p.drivers.Calculate(q.Drivers)
	vehicle := p.vehicles.Calculate(q.Vehicles, q.EffectiveDate.Year())
	slots[domain.FactorDriverRisk].factor = &driver
	slots[domain.FactorVehicleRisk].factor = &vehicle

	pol := p.policy
	var g errgroup.Group

	g.Go(func() error {
		slot := slots[domain.FactorTerritory]
		tf, err := e.cache.Territory(ctx, q.State, q.TerritoryCode, func(ctx context.Context) (domain.TerritoryFactor, error) {
			return callWithTimeout(ctx, pol.StoreTimeout, func(ctx context.Context) (domain.TerritoryFactor, error) {
				return p.territory.Resolve(ctx, q.State, q.TerritoryCode)
			})
		})
		if err != nil {
			f := domain.NeutralFactor(domain.FactorTerritory)
			f.Degraded = true
			slot.factor = &f
			slot.warning = e.degrade(log, domain.FactorTerritory, errors.ErrCodeTerritoryUnknown,
				"territory lookup failed; statewide average used", err)
			return nil
		}
		f := tf.Factor()
		slot.factor = &f
		if !tf.Known && q.TerritoryCode != "" {
			slot.warning = &domain.Warning{
				Code:      errors.ErrCodeTerritoryUnknown,
				Component: domain.FactorTerritory,
				Message:   fmt.Sprintf("territory %q has no loss-cost data; statewide average used", q.TerritoryCode),
			}
		}
		return nil
	})

	if e.signals != nil {
		loc := domain.Location{State: q.State, TerritoryCode: q.TerritoryCode}
		for _, kind := range pol.Signals {
			kind := kind
			name, ok := domain.SignalFactorNames[kind]
			if !ok {
				continue
			}
			slot := slots[name]
			g.Go(func() error {
				reading, err := callWithTimeout(ctx, pol.SignalTimeout, func(ctx context.Context) (domain.SignalReading, error) {
					return e.signals.FetchSignal(ctx, kind, loc)
				})
				if err == nil && !reading.Multiplier.IsPositive() {
					err = errors.Newf(errors.ErrCodeExternalService, "non-positive %s multiplier %s", kind, reading.Multiplier)
				}
				if err != nil {
					f := domain.NeutralFactor(name)
					f.Degraded = true
					slot.factor = &f
					slot.warning = e.degrade(log, name, errors.ErrCodeExternalSignalDegraded,
						fmt.Sprintf("%s signal unavailable; neutral factor used", kind), err)
					return nil
				}
				f := domain.Factor{Name: name, Multiplier: pol.FactorBounds.Clamp(reading.Multiplier), Source: domain.SourceExternal}
				slot.factor = &f
				return nil
			})
		}
	}

	if e.aiEnabled.Load() {
		slot := slots[domain.FactorAIRisk]
		g.Go(func() error {
			score, err := callWithTimeout(ctx, pol.AITimeout, func(ctx context.Context) (*domain.AIScore, error) {
				return e.scorer.Score(ctx, q)
			})
			if err == nil && (score == nil || !score.Multiplier.IsPositive()) {
				err = errors.New(errors.ErrCodeAIScoringUnavailable, "scorer returned no usable multiplier")
			}
			if err != nil {
				f := domain.NeutralFactor(domain.FactorAIRisk)
				f.Degraded = true
				f.ModelVersion = e.scorer.ModelVersion()
				slot.factor = &f
				slot.warning = e.degrade(log, domain.FactorAIRisk, errors.ErrCodeAIScoringUnavailable,
					"AI risk scoring unavailable; neutral factor used", err)
				return nil
			}
			f := domain.Factor{
				Name:          domain.FactorAIRisk,
				Multiplier:    pol.AIBounds.Clamp(score.Multiplier),
				Source:        domain.SourceModel,
				ModelVersion:  score.ModelVersion,
				Contributions: score.Contributions,
			}
			slot.factor = &f
			return nil
		})
	}

	_ = g.Wait()

	var (
		factors  []domain.Factor
		warnings []domain.Warning
	)
	for _, name := range domain.FactorOrder {
		slot := slots[name]
		if slot.factor != nil {
			factors = append(factors, *slot.factor)
		}
		if slot.warning != nil {
			warnings = append(warnings, *slot.warning)
		}
	}
	return factors, warnings
}

func (e *Engine) degrade(log logging.Logger, component string, code errors.ErrorCode, msg string, cause error) *domain.Warning {
	e.monitor.RecordDegradation(component)
	log.Warn("rating factor degraded",
		logging.String(logging.FieldComponent, component),
		logging.String(logging.FieldErrorCode, string(code)),
		logging.Err(cause))
	return &domain.Warning{Code: code, Component: component, Message: msg + ": " + cause.Error()}
}

// InvalidateState drops cached lookups for state.
func (e *Engine) InvalidateState(ctx context.Context, state string) (int64, error) {
	return e.cache.InvalidateState(ctx, state)
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

//Personal.AI order the ending
