package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "backsweep",
		Usage: "Run parameter sweep backtests over candle datasets",
		Commands: []*cli.Command{
			runCommand(),
			generateCommand(),
			schemaCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a parameter sweep experiment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the sweep config YAML",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the candle data file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   fmt.Sprintf("Strategy to sweep (%s)", strategyNames()),
				Value:   "sma_crossover",
			},
			&cli.StringFlag{
				Name:  "instrument",
				Usage: "Instrument label recorded on every simulation",
				Value: "UNKNOWN",
			},
			&cli.StringSliceFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Usage:   "Parameter range as name=v1,v2,... (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "require-less",
				Usage: "Ordering constraint as a<b; combinations violating it are skipped (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "blackout",
				Usage: "Blackout window as start/end in RFC3339 (repeatable)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the YAML experiment result",
				Value:   "result.yaml",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Directory for Parquet export of the result store; empty disables export",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "How many ranked results to print",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "max-concurrent",
				Usage: "Maximum simultaneously open positions per simulation",
				Value: 1,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Restrict the dataset to candles at or after this `YYYY-MM-DD` date",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "Restrict the dataset to candles at or before this `YYYY-MM-DD` date",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02", time.RFC3339},
				},
			},
		},
		Action: runAction,
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a synthetic candle CSV for trying the engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path for the generated CSV",
				Value:   "data/synthetic.csv",
			},
			&cli.IntFlag{
				Name:  "bars",
				Usage: "Number of candles to generate",
				Value: 2000,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "First candle timestamp in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.IntFlag{
				Name:  "interval-minutes",
				Usage: "Minutes between candles",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed for the price walk",
				Value: 1,
			},
		},
		Action: generateAction,
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write the sweep config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory",
				Value: "config",
			},
		},
		Action: schemaAction,
	}
}
