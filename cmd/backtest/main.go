// backtest is a CLI for out-of-sample evaluation of the scoring model:
// it splits a historical results table chronologically, fits on the
// front, scores the tail, and reports calibration metrics. The held-out
// predictions can be written as a calibration table for the main CLI.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/lotecalab/loteca-engine/core"
	"github.com/lotecalab/loteca-engine/pkg/backtest"
	"github.com/lotecalab/loteca-engine/pkg/feed"
)

var (
	histFile = flag.String("history", "", "Path to the historical results CSV (required)")
	split    = flag.Float64("split", 0.8, "Fraction of history used for fitting")
	bins     = flag.Int("bins", 10, "Reliability bins per outcome class")
	calibOut = flag.String("calib-out", "", "Optional path to write the held-out predictions as a calibration table")
	verbose  = flag.Bool("verbose", false, "Print per-class reliability bins")
)

func main() {
	flag.Parse()

	if *histFile == "" {
		log.Fatal("missing required -history flag")
	}

	history, err := feed.ReadHistory(*histFile)
	if err != nil {
		log.Fatalf("loading history: %v", err)
	}

	cfg := backtest.DefaultConfig()
	cfg.Split = *split
	cfg.Bins = *bins

	rep, err := backtest.Run(history, cfg)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	printReport(rep)

	if *calibOut != "" {
		if err := writeCalibration(*calibOut, rep); err != nil {
			log.Fatalf("writing calibration table: %v", err)
		}
		log.Printf("calibration table -> %s (%d rows)", *calibOut, len(rep.Samples))
	}
}

func printReport(rep *backtest.Report) {
	fmt.Println("=== Backtest Report ===")
	fmt.Printf("Train matches:  %d\n", rep.TrainMatches)
	fmt.Printf("Eval matches:   %d\n", rep.EvalMatches)
	fmt.Printf("Fitted rho:     %.3f\n", rep.Rho)
	fmt.Printf("Brier score:    %.4f\n", rep.Brier)
	fmt.Printf("Log loss:       %.4f\n", rep.LogLoss)
	fmt.Printf("Top-1 accuracy: %.2f%%\n", rep.Accuracy*100)

	if !*verbose {
		return
	}
	for _, o := range core.Outcomes {
		fmt.Printf("\nReliability (%s):\n", o.Symbol())
		fmt.Println("  range          mean_p   hit_rate  count")
		for _, b := range rep.Bins[o] {
			if b.Count == 0 {
				continue
			}
			fmt.Printf("  [%.2f, %.2f)   %.4f   %.4f    %d\n", b.Low, b.High, b.MeanPredicted, b.HitRate, b.Count)
		}
	}
}

func writeCalibration(path string, rep *backtest.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"p_home", "p_draw", "p_away", "result"}); err != nil {
		return err
	}
	for _, s := range rep.Samples {
		rec := []string{
			strconv.FormatFloat(s.Prob[core.Home], 'f', 6, 64),
			strconv.FormatFloat(s.Prob[core.Draw], 'f', 6, 64),
			strconv.FormatFloat(s.Prob[core.Away], 'f', 6, 64),
			s.Result.Symbol(),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
