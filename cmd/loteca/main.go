// loteca is the CLI for the probability-and-portfolio engine: it loads
// the slate's odds table and the supporting history, runs the full
// pipeline, and writes the probability, edge and portfolio tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lotecalab/loteca-engine/internal/config"
	"github.com/lotecalab/loteca-engine/internal/logger"
	"github.com/lotecalab/loteca-engine/pkg/ensemble"
	"github.com/lotecalab/loteca-engine/pkg/feed"
	"github.com/lotecalab/loteca-engine/pkg/metrics"
	"github.com/lotecalab/loteca-engine/pkg/pipeline"
	"github.com/lotecalab/loteca-engine/pkg/ratings"
)

var (
	// Input flags
	configFile = flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	oddsFile   = flag.String("odds", "", "Path to the odds table CSV (required)")
	histFile   = flag.String("history", "", "Path to the historical results CSV (optional)")
	calibFile  = flag.String("calib", "", "Path to the calibration history CSV (optional)")
	outDir     = flag.String("out-dir", ".", "Directory for the output tables")

	// Override flags
	sims        = flag.Int("sims", 0, "Override the configured simulation count")
	seed        = flag.Int64("seed", 0, "Random seed (0 means clock-seeded)")
	metricsAddr = flag.String("metrics-addr", "", "Optional address for a Prometheus /metrics listener")
	verbose     = flag.Bool("v", false, "Development logging")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "loteca:", err)
		os.Exit(1)
	}
}

func run() error {
	if *oddsFile == "" {
		return fmt.Errorf("missing required -odds flag")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *sims > 0 {
		cfg.Risk.Sims = *sims
	}
	env := cfg.Env
	if *verbose {
		env = "local"
	}

	log, err := logger.New("loteca-engine", env)
	if err != nil {
		return err
	}
	defer log.Sync()

	met := metrics.NewEngineMetrics()
	if *metricsAddr != "" {
		go serveMetrics(log, met, *metricsAddr)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	slate, quotes, err := feed.ReadOddsTable(*oddsFile)
	if err != nil {
		return err
	}
	var history []ratings.Result
	if *histFile != "" {
		if history, err = feed.ReadHistory(*histFile); err != nil {
			return err
		}
	}
	var calib []ensemble.Sample
	if *calibFile != "" {
		if calib, err = feed.ReadCalibration(*calibFile); err != nil {
			return err
		}
	}
	log.Info("inputs loaded",
		zap.Int("matches", len(slate)),
		zap.Int("quotes", len(quotes)),
		zap.Int("history_rows", len(history)),
		zap.Int("calibration_rows", len(calib)),
		zap.Int64("seed", rngSeed),
	)

	runner, err := pipeline.NewRunner(cfg, log, met, rng)
	if err != nil {
		return err
	}
	res, err := runner.Run(context.Background(), pipeline.Input{
		Slate:       slate,
		Quotes:      quotes,
		History:     history,
		Calibration: calib,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	probPath := filepath.Join(*outDir, "probabilities.csv")
	if err := feed.WriteProbabilityTable(probPath, res.Probabilities); err != nil {
		return err
	}
	edgePath := filepath.Join(*outDir, "risk_report.csv")
	if err := feed.WriteEdgeReport(edgePath, res.Edges); err != nil {
		return err
	}
	planPath := filepath.Join(*outDir, "portfolio_plan.csv")
	if err := feed.WritePortfolioTable(planPath, res.Plan, cfg.Risk.SlateSize); err != nil {
		return err
	}

	log.Info("outputs written",
		zap.String("run_id", res.RunID),
		zap.String("probabilities", probPath),
		zap.String("risk_report", edgePath),
		zap.String("portfolio_plan", planPath),
	)
	return nil
}

func serveMetrics(log *zap.Logger, met *metrics.EngineMetrics, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(met.Registry(), promhttp.HandlerOpts{}))
	log.Info("metrics listener up", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics listener stopped", zap.Error(err))
	}
}
