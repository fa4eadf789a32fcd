package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vectra-quant/backsweep/internal/orchestrator"
	"github.com/vectra-quant/backsweep/internal/types"
	"gopkg.in/yaml.v2"
)

func generateAction(_ context.Context, cmd *cli.Command) error {
	output := cmd.String("output")
	bars := int(cmd.Int("bars"))
	interval := time.Duration(cmd.Int("interval-minutes")) * time.Minute

	if bars <= 0 {
		return fmt.Errorf("bars must be positive, got %d", bars)
	}

	start := cmd.Timestamp("start")
	if start.IsZero() {
		start = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -30)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	candles := syntheticCandles(start, bars, interval, cmd.Int("seed"))

	if err := writeCandlesCSV(output, candles); err != nil {
		return err
	}

	log.Printf("Generated %d candles at %s", bars, output)

	return nil
}

// syntheticCandles produces a seeded random walk with a sine overlay so
// moving-average strategies find crossovers in the output.
func syntheticCandles(start time.Time, bars int, interval time.Duration, seed int64) []types.Candle {
	rng := rand.New(rand.NewSource(seed))
	candles := make([]types.Candle, bars)
	price := 100.0

	for i := range candles {
		drift := 2 * math.Sin(float64(i)/40)
		price = math.Max(1, price+drift*0.05+rng.NormFloat64()*0.2)

		high := price + rng.Float64()*0.5
		low := price - rng.Float64()*0.5

		candles[i] = types.Candle{
			Time:   start.Add(time.Duration(i) * interval),
			Open:   price + rng.NormFloat64()*0.1,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: float64(1000 + rng.Intn(9000)),
		}
	}

	return candles
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")

	config := orchestrator.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	schemaName := "backsweep-config.json"
	schemaPath := filepath.Join(dir, schemaName)

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	samplePath := filepath.Join(dir, "backsweep-config.yaml")

	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		yamlBytes, err := yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal sample config: %w", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)

		if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}

		log.Printf("Sample config generated at %s", samplePath)
	}

	log.Printf("Schema generated at %s", schemaPath)

	return nil
}
