package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"github.com/vectra-quant/backsweep/internal/indicator"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/orchestrator"
	"github.com/vectra-quant/backsweep/internal/store"
	"github.com/vectra-quant/backsweep/internal/types"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	config := orchestrator.EmptyConfig()

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config, err = orchestrator.ParseConfig(string(content))
		if err != nil {
			return err
		}
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	timeRange := types.TimeRange{
		Start: cmd.Timestamp("start"),
		End:   cmd.Timestamp("end"),
	}

	core, manifest, err := loadCandles(cmd.String("data"), timeRange)
	if err != nil {
		return err
	}

	registry := indicator.NewRegistry()
	if err := indicator.RegisterBuiltins(registry); err != nil {
		return err
	}

	strat, err := buildStrategy(cmd.String("strategy"), int(cmd.Int("max-concurrent")))
	if err != nil {
		return err
	}

	ranges, err := parseRanges(cmd.StringSlice("range"))
	if err != nil {
		return err
	}

	constraints, err := parseConstraints(cmd.StringSlice("require-less"))
	if err != nil {
		return err
	}

	blackouts, err := parseBlackouts(cmd.StringSlice("blackout"))
	if err != nil {
		return err
	}

	o := orchestrator.NewOrchestrator(config, registry, log)

	sets, skipped, err := o.Plan(ranges, constraints)
	if err != nil {
		return err
	}

	experiment, err := o.NewExperiment(manifest.ID, strat, cmd.String("instrument"), timeRange, sets, skipped)
	if err != nil {
		return err
	}

	var resultStore *store.ResultStore

	if exportDir := cmd.String("export"); exportDir != "" {
		resultStore, err = store.NewResultStore("", log)
		if err != nil {
			return err
		}
		defer resultStore.Close()

		if err := resultStore.Initialize(); err != nil {
			return err
		}

		o.SetRecorder(resultStore)
	}

	bar := progressbar.Default(int64(len(experiment.Simulations)))
	bar.Describe(fmt.Sprintf("Sweeping %s with %s", manifest.ID, strat.Name()))

	o.SetEvents(orchestrator.Events{
		OnTaskFinished: func(*types.Simulation) {
			bar.Add(1)
		},
	})

	if err := o.Run(ctx, orchestrator.RunInput{
		Experiment: experiment,
		Core:       core,
		Strategy:   strat,
		Blackouts:  blackouts,
		Manifest:   manifest,
	}); err != nil {
		return err
	}

	result, err := o.Rank(experiment, config.RankMetric)
	if err != nil {
		return err
	}

	if err := result.WriteYAML(cmd.String("output")); err != nil {
		return err
	}

	if resultStore != nil {
		if err := resultStore.Write(cmd.String("export")); err != nil {
			return err
		}
	}

	printRanked(result, int(cmd.Int("top")))

	return nil
}

func printRanked(result *types.ExperimentResult, top int) {
	fmt.Printf("\nExperiment %s ranked by %s (%d completed, %d failed, %d skipped)\n\n",
		result.Name, result.RankedBy, len(result.Ranked), len(result.Failed), result.SkippedCombinations)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPARAMETERS\tMETRIC\tTRADES\tHASH")

	for i, simulation := range result.Ranked {
		if i >= top {
			break
		}

		value, _ := simulation.Results.Metric(result.RankedBy)
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%d\t%.12s\n",
			i+1,
			simulation.Parameters.CanonicalString(),
			value,
			simulation.Results.NumberOfTrades,
			simulation.ReproducibilityHash,
		)
	}

	w.Flush()
}
