// Command netoptd computes adaptive bandwidth rates for a shaped WAN link.
// It is designed to be invoked from cron: the external collaborators run the
// speedtest and ping and feed the converted numbers in through flags, and the
// enforcement point consumes the rate printed on stdout.
//
// Subcommands:
//
//	measure   --download D --upload U --latency L   full-measurement cycle
//	adjust    --latency L                           latency-adjustment cycle
//	recompute                                       rebuild baseline from samples
//	export                                          print baseline interchange map
//	import                                          replace baseline from interchange map on stdin
//	status                                          print state and completion
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lmittmann/tint"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/baseline"
	"github.com/ekobres/NetworkOptimizer-sub006/orchestrator"
	"github.com/ekobres/NetworkOptimizer-sub006/store"
	"github.com/ekobres/NetworkOptimizer-sub006/store/sqlite"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("NETOPT_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("bad configuration", "err", err)
		os.Exit(1)
	}

	st, err := sqlite.New(envOr("NETOPT_DB", "netopt.db"))
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	if err := run(ctx, os.Args[1], os.Args[2:], cfg, st, logger); err != nil {
		logger.Error(os.Args[1]+" failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, cfg netopt.RateControlConfig, st store.Store, logger *slog.Logger) error {
	switch cmd {
	case "measure":
		fs := flag.NewFlagSet("measure", flag.ExitOnError)
		download := fs.Float64("download", 0, "measured download rate in Mbps")
		upload := fs.Float64("upload", 0, "measured upload rate in Mbps")
		latency := fs.Float64("latency", 0, "average round-trip time in ms")
		_ = fs.Parse(args)

		eng := orchestrator.New(cfg, st,
			staticMeasurement{orchestrator.Measurement{
				DownloadMbps: *download,
				UploadMbps:   *upload,
				LatencyMs:    *latency,
			}},
			staticLatency{*latency},
			orchestrator.WithLogger(logger))
		state, err := eng.MeasurementCycle(ctx)
		if err != nil {
			return err
		}
		fmt.Println(formatRate(state.CurrentRateMbps))
		return nil

	case "adjust":
		fs := flag.NewFlagSet("adjust", flag.ExitOnError)
		latency := fs.Float64("latency", 0, "average round-trip time in ms")
		_ = fs.Parse(args)

		eng := orchestrator.New(cfg, st, nil, nil, orchestrator.WithLogger(logger))
		state, err := eng.AdjustmentCycle(ctx, *latency)
		if err != nil {
			return err
		}
		fmt.Println(formatRate(state.CurrentRateMbps))
		return nil

	case "recompute":
		eng := orchestrator.New(cfg, st, nil, nil, orchestrator.WithLogger(logger))
		table, err := eng.RecomputeBaseline(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("buckets=%d completion=%.1f%%\n", table.PopulatedCount(), table.CompletionPercentage())
		return nil

	case "export":
		eng := orchestrator.New(cfg, st, nil, nil)
		flat, err := eng.ExportBaseline(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(flat)

	case "import":
		var flat map[string]string
		if err := json.NewDecoder(os.Stdin).Decode(&flat); err != nil {
			return fmt.Errorf("decode baseline map: %w", err)
		}
		table, err := baseline.Import(flat)
		if err != nil {
			return err
		}
		if err := st.Baseline().Save(ctx, table); err != nil {
			return err
		}
		logger.Info("baseline imported", "buckets", table.PopulatedCount())
		return nil

	case "status":
		eng := orchestrator.New(cfg, st, nil, nil)
		state, found, err := st.State().Load(ctx)
		if err != nil {
			return err
		}
		table, err := st.Baseline().Load(ctx)
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no controller state yet")
		} else {
			fmt.Printf("rate=%s maxRate=%s reason=%q updated=%s\n",
				formatRate(state.CurrentRateMbps), formatRate(state.LastKnownMaxRateMbps),
				state.LastAdjustmentReason, state.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Printf("baseline: buckets=%d completion=%.1f%% complete=%v\n",
			table.PopulatedCount(), table.CompletionPercentage(), table.IsComplete())
		tracker, err := eng.LatencySummary(ctx, time.Now().AddDate(0, 0, -30))
		if err != nil {
			return err
		}
		if tracker.Count() > 0 {
			fmt.Printf("latency: p50=%.1fms p90=%.1fms min=%.1fms max=%.1fms samples=%d\n",
				tracker.Quantile(0.5), tracker.Quantile(0.9), tracker.Min(), tracker.Max(), tracker.Count())
		}
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// staticMeasurement feeds externally collected numbers to the engine.
type staticMeasurement struct {
	m orchestrator.Measurement
}

func (s staticMeasurement) Measure(context.Context) (orchestrator.Measurement, error) {
	return s.m, nil
}

type staticLatency struct {
	ms float64
}

func (s staticLatency) AverageRTT(context.Context, string) (float64, error) {
	return s.ms, nil
}

func configFromEnv() (netopt.RateControlConfig, error) {
	b := netopt.NewConfigBuilder().
		WithPingHost(envOr("NETOPT_PING_HOST", "8.8.8.8")).
		WithLatency(envFloat("NETOPT_BASELINE_LATENCY_MS", 15), envFloat("NETOPT_LATENCY_THRESHOLD_MS", 2)).
		WithAdjustmentFactors(envFloat("NETOPT_DECREASE_FACTOR", 0.97), envFloat("NETOPT_INCREASE_FACTOR", 1.01)).
		WithRates(envFloat("NETOPT_MIN_RATE_MBPS", 50), envFloat("NETOPT_MAX_RATE_MBPS", 940), envFloat("NETOPT_ABSOLUTE_MAX_RATE_MBPS", 940)).
		WithBlendWeights(envFloat("NETOPT_BLEND_WITHIN", 0.6), envFloat("NETOPT_BLEND_BELOW", 0.8)).
		WithOverheadMultiplier(envFloat("NETOPT_OVERHEAD", 1.05))
	return b.Build()
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring unparsable env value", "key", key, "value", v)
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: netoptd <measure|adjust|recompute|export|import|status> [flags]`)
}
