package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vectra-quant/backsweep/internal/blackout"
	"github.com/vectra-quant/backsweep/internal/orchestrator"
	"github.com/vectra-quant/backsweep/internal/strategy"
)

var strategyFactories = map[string]func(maxConcurrent int) strategy.Strategy{
	"sma_crossover": func(maxConcurrent int) strategy.Strategy { return strategy.NewSMACrossover(maxConcurrent) },
	"rsi_reversion": func(maxConcurrent int) strategy.Strategy { return strategy.NewRSIReversion(maxConcurrent) },
}

func strategyNames() string {
	names := make([]string, 0, len(strategyFactories))
	for name := range strategyFactories {
		names = append(names, name)
	}

	return strings.Join(names, ", ")
}

func buildStrategy(name string, maxConcurrent int) (strategy.Strategy, error) {
	factory, ok := strategyFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %s)", name, strategyNames())
	}

	return factory(maxConcurrent), nil
}

// parseRanges turns "name=v1,v2,..." flags into parameter ranges.
func parseRanges(specs []string) ([]orchestrator.ParameterRange, error) {
	ranges := make([]orchestrator.ParameterRange, 0, len(specs))

	for _, raw := range specs {
		name, list, found := strings.Cut(raw, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid range %q, expected name=v1,v2,...", raw)
		}

		parts := strings.Split(list, ",")
		values := make([]float64, 0, len(parts))

		for _, part := range parts {
			value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q in range %q: %w", part, raw, err)
			}

			values = append(values, value)
		}

		ranges = append(ranges, orchestrator.ParameterRange{Name: name, Values: values})
	}

	return ranges, nil
}

// parseConstraints turns "a<b" flags into ordering constraints.
func parseConstraints(specs []string) ([]orchestrator.Constraint, error) {
	constraints := make([]orchestrator.Constraint, 0, len(specs))

	for _, raw := range specs {
		a, b, found := strings.Cut(raw, "<")
		if !found || a == "" || b == "" {
			return nil, fmt.Errorf("invalid constraint %q, expected a<b", raw)
		}

		constraints = append(constraints, orchestrator.LessThan(strings.TrimSpace(a), strings.TrimSpace(b)))
	}

	return constraints, nil
}

// parseBlackouts turns "start/end" RFC3339 flags into merged windows.
func parseBlackouts(specs []string) ([]blackout.Window, error) {
	windows := make([]blackout.Window, 0, len(specs))

	for _, raw := range specs {
		startRaw, endRaw, found := strings.Cut(raw, "/")
		if !found {
			return nil, fmt.Errorf("invalid blackout %q, expected start/end", raw)
		}

		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid blackout start %q: %w", startRaw, err)
		}

		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid blackout end %q: %w", endRaw, err)
		}

		if end.Before(start) {
			return nil, fmt.Errorf("blackout %q ends before it starts", raw)
		}

		windows = append(windows, blackout.Window{Start: start, End: end, Source: blackout.SourceManual})
	}

	return blackout.Merge(windows), nil
}
