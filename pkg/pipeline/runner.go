// Package pipeline orchestrates one full engine run: odds consensus,
// ratings fit, bivariate scoring, ensemble blending, calibration and the
// ticket optimizer.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/internal/config"
	"github.com/lotecalab/loteca-engine/pkg/ensemble"
	"github.com/lotecalab/loteca-engine/pkg/feed"
	"github.com/lotecalab/loteca-engine/pkg/metrics"
	"github.com/lotecalab/loteca-engine/pkg/odds"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
	"github.com/lotecalab/loteca-engine/pkg/risk"
	"github.com/lotecalab/loteca-engine/pkg/scoring"
)

// Input is everything one run consumes. Slate and Quotes are required;
// History powers the scoring model, Calibration the isotonic stage, and
// Context carries optional per-match tilt scores in [-1, 1].
type Input struct {
	Slate       []core.Match
	Quotes      []odds.Quote
	History     []ratings.Result
	Calibration []ensemble.Sample
	Context     map[string]float64
}

// Result is one run's full output.
type Result struct {
	RunID         string
	Rho           float64
	Consensus     []odds.Consensus
	Predictions   []scoring.Prediction
	Probabilities []feed.ProbabilityRow
	Edges         []risk.MatchEdge
	Plan          *risk.Plan
	Calibration   string
}

// Runner executes pipeline runs. Deterministic for a fixed rand source
// and fixed inputs.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
	met *metrics.EngineMetrics
	rng *rand.Rand
}

// NewRunner validates the configuration and wires the run dependencies.
// A nil logger logs nowhere, a nil metrics collector gets a private one,
// a nil rand source is seeded from the clock.
func NewRunner(cfg *config.Config, log *zap.Logger, met *metrics.EngineMetrics, rng *rand.Rand) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if met == nil {
		met = metrics.NewEngineMetrics()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Runner{cfg: cfg, log: log, met: met, rng: rng}, nil
}

// Run executes the full pipeline over one slate.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))

	res, err := r.run(ctx, log, runID, in)
	if err != nil {
		r.met.RecordRun("error", time.Since(started).Seconds())
		log.Error("pipeline run failed", zap.Error(err))
		return nil, err
	}
	r.met.RecordRun("ok", time.Since(started).Seconds())
	log.Info("pipeline run finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Float64("rho", res.Rho),
		zap.Float64("ev", res.Plan.Risk.EV),
		zap.Float64("var", res.Plan.Risk.VaR),
		zap.Float64("es", res.Plan.Risk.ES),
		zap.Bool("monetary", res.Plan.Risk.Monetary),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, log *zap.Logger, runID string, in Input) (*Result, error) {
	if len(in.Slate) != r.cfg.Risk.SlateSize {
		return nil, fmt.Errorf("pipeline: slate has %d matches, expected %d", len(in.Slate), r.cfg.Risk.SlateSize)
	}

	method, err := odds.ParseDevigMethod(r.cfg.Odds.DevigMethod)
	if err != nil {
		return nil, err
	}

	// Consensus.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage := time.Now()
	for _, q := range in.Quotes {
		r.met.RecordQuote(q.Provider, !q.Valid())
	}
	engine := odds.NewEngine(method, r.cfg.Odds.ProviderWeights)
	consensus := engine.MergeSlate(in.Slate, in.Quotes)
	for _, c := range consensus {
		if c.Source == core.SourceNone {
			r.met.RecordFallback("uniform-consensus")
			log.Warn("no valid quotes for match, using uniform consensus", zap.String("match_id", c.MatchID))
		}
	}
	r.met.RecordStage("consensus", time.Since(stage).Seconds())

	// Ratings fit and scoring. An empty history table is not fatal: the
	// scoring model simply goes absent and the ensemble runs on the
	// consensus alone.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage = time.Now()
	var (
		rho         float64
		predictions []scoring.Prediction
	)
	model := scoring.DixonColesModel{}
	haveModel := len(in.History) > 0
	r.met.HistoryRows.Set(float64(len(in.History)))
	if haveModel {
		book, err := ratings.Fit(in.History, ratings.FilterConfig{
			Gain:  r.cfg.Ratings.Gain,
			Decay: r.cfg.Ratings.Decay,
			Clip:  r.cfg.Ratings.Clip,
		})
		if err != nil {
			return nil, err
		}
		scored := normalizedSlate(in.Slate)
		for _, m := range scored {
			for _, team := range []string{m.Home, m.Away} {
				if !book.Known(team) {
					r.met.RecordFallback("neutral-rating")
					log.Warn("team has no history, using neutral rating",
						zap.String("match_id", m.ID), zap.String("team", team))
				}
			}
		}
		rho = scoring.EstimateRho(in.History, book, scoring.RhoSearch{
			Min:    r.cfg.Scoring.RhoMin,
			Max:    r.cfg.Scoring.RhoMax,
			Step:   r.cfg.Scoring.RhoStep,
			Window: r.cfg.Scoring.RhoWindow,
		})
		r.met.RhoEstimate.Set(rho)
		model = scoring.DixonColesModel{Rho: rho}
		predictions = scoring.ScoreSlate(book, model, scored)
		r.met.RecordScored(model.Name(), len(predictions))
		log.Info("slate scored", zap.Float64("rho", rho), zap.Int("teams", book.Teams()))
	} else {
		r.met.RecordFallback("no-history")
		log.Warn("no historical results, scoring model absent for this run")
	}
	r.met.RecordStage("scoring", time.Since(stage).Seconds())

	// Ensemble and calibration.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage = time.Now()
	blender, err := ensemble.NewBlender(r.cfg.Ensemble.Weights)
	if err != nil {
		return nil, err
	}
	cal := ensemble.FitCalibrator(in.Calibration, ensemble.CalibrationOptions{
		MinSamples:  r.cfg.Ensemble.MinSamples,
		MinDistinct: r.cfg.Ensemble.MinDistinct,
	})
	r.met.SetCalibrationMode(cal.Tag)
	if cal.Tag == core.CalibrationIdentity && len(in.Calibration) > 0 {
		r.met.RecordFallback("identity-calibration")
		log.Warn("calibration history too sparse, using identity",
			zap.Int("samples", len(in.Calibration)))
	}

	final := make([]core.Prob3, len(in.Slate))
	rows := make([]feed.ProbabilityRow, len(in.Slate))
	for i, m := range in.Slate {
		var inputs []ensemble.Input
		if consensus[i].Source != core.SourceNone {
			inputs = append(inputs, ensemble.Input{Name: "consensus", Prob: consensus[i].Prob})
		}
		if haveModel {
			inputs = append(inputs, ensemble.Input{Name: model.Name(), Prob: predictions[i].Prob})
		}

		blend := blender.Blend(m.ID, inputs)
		p := blend.Prob
		if r.cfg.Ensemble.TiltStrength > 0 {
			if score, ok := in.Context[m.ID]; ok {
				p = ensemble.Tilt(p, score, r.cfg.Ensemble.TiltStrength)
			}
		}
		p = cal.Apply(p)

		final[i] = p
		r.met.OutcomeEntropy.Observe(p.Entropy())
		rows[i] = feed.ProbabilityRow{
			Match:       m,
			Prob:        p,
			Sources:     blend.Sources,
			Weights:     blend.Weights,
			Calibration: cal.Tag,
		}
		if haveModel {
			rows[i].LambdaHome = predictions[i].LambdaHome
			rows[i].LambdaAway = predictions[i].LambdaAway
		}
	}
	r.met.RecordStage("ensemble", time.Since(stage).Seconds())

	// Risk and portfolio.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage = time.Now()
	riskOpts, err := r.riskOptions()
	if err != nil {
		return nil, err
	}
	optimizer := risk.NewOptimizer(riskOpts, r.rng)
	plan, err := optimizer.Build(final)
	if err != nil {
		return nil, err
	}
	for _, tp := range plan.Tickets {
		r.met.TicketWinProb.Observe(tp.WinProb)
	}
	topWeight := 0.0
	for _, tp := range plan.Tickets {
		if tp.StakeWeight > topWeight {
			topWeight = tp.StakeWeight
		}
	}
	r.met.RecordPortfolio(plan.Risk.VaR, plan.Risk.ES, topWeight)

	meanOdds := make([][3]float64, len(consensus))
	for i, c := range consensus {
		meanOdds[i] = c.MeanOdds
	}
	edges := risk.EdgeReport(in.Slate, final, meanOdds)
	r.met.RecordStage("risk", time.Since(stage).Seconds())

	return &Result{
		RunID:         runID,
		Rho:           rho,
		Consensus:     consensus,
		Predictions:   predictions,
		Probabilities: rows,
		Edges:         edges,
		Plan:          plan,
		Calibration:   cal.Tag,
	}, nil
}

// riskOptions maps the risk config onto optimizer options, parsing the
// bankroll and converting the paytable into decimals.
func (r *Runner) riskOptions() (risk.Options, error) {
	rc := r.cfg.Risk
	opts := risk.Options{
		SlateSize:          rc.SlateSize,
		Sims:               rc.Sims,
		Tickets:            rc.Tickets,
		MaxDuplos:          rc.MaxDuplos,
		MaxTriplos:         rc.MaxTriplos,
		KellyFraction:      rc.KellyFraction,
		KellyCap:           rc.KellyCap,
		MinDiversification: rc.MinDiversification,
		VaRConfidence:      rc.VaRConfidence,
	}
	if rc.Bankroll != "" {
		bankroll, err := decimal.NewFromString(rc.Bankroll)
		if err != nil {
			return risk.Options{}, fmt.Errorf("pipeline: invalid bankroll %q: %w", rc.Bankroll, err)
		}
		opts.Bankroll = bankroll
	}
	if len(rc.Paytable) > 0 {
		pt := make(risk.Paytable, len(rc.Paytable))
		for hits, payout := range rc.Paytable {
			pt[hits] = decimal.NewFromFloat(payout)
		}
		opts.Paytable = pt
	}
	return opts, nil
}

// normalizedSlate rewrites match team labels into the join keys the
// ratings book is indexed by.
func normalizedSlate(slate []core.Match) []core.Match {
	out := make([]core.Match, len(slate))
	for i, m := range slate {
		out[i] = core.Match{
			ID:      m.ID,
			Home:    feed.NormKey(m.Home),
			Away:    feed.NormKey(m.Away),
			Kickoff: m.Kickoff,
		}
	}
	return out
}
