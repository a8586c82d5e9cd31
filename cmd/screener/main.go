package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	engine "github.com/quantrill/stockscreen/internal/backtest/engine/engine_v1"
	"github.com/quantrill/stockscreen/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantrill/stockscreen/internal/logger"
	"github.com/quantrill/stockscreen/internal/screener"
	"github.com/quantrill/stockscreen/internal/strategy"
	"github.com/quantrill/stockscreen/internal/types"
)

// loadUniverse reads every instrument from the CSV datasource.
func loadUniverse(dataPath, benchmarkSymbol string) ([]*types.History, *types.History, error) {
	source, err := datasource.NewDuckDBDataSource(nil)
	if err != nil {
		return nil, nil, err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return nil, nil, err
	}

	symbols, err := source.Symbols()
	if err != nil {
		return nil, nil, err
	}

	var benchmark *types.History

	universe := make([]*types.History, 0, len(symbols))

	for _, symbol := range symbols {
		history, err := source.ReadHistory(symbol)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load %s: %w", symbol, err)
		}

		if symbol == benchmarkSymbol {
			benchmark = history

			continue
		}

		universe = append(universe, history)
	}

	return universe, benchmark, nil
}

func loadStrategyConfig(path string, tier string) (strategy.Config, error) {
	if path == "" {
		return strategy.DefaultConfig(strategy.Tier(tier))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("failed to read strategy config: %w", err)
	}

	return strategy.ParseConfig(data)
}

func screenAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadStrategyConfig(cmd.String("config"), cmd.String("tier"))
	if err != nil {
		return err
	}

	universe, benchmark, err := loadUniverse(cmd.String("data"), cmd.String("benchmark"))
	if err != nil {
		return err
	}

	s := screener.New(cfg, log, int(cmd.Int("workers")))

	report, err := s.Screen(ctx, universe, benchmark)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	configData, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read backtest config: %w", err)
	}

	universe, benchmark, err := loadUniverse(cmd.String("data"), cmd.String("benchmark"))
	if err != nil {
		return err
	}

	eng := engine.NewBacktestEngineV1(log)
	if err := eng.Initialize(string(configData)); err != nil {
		return err
	}

	if benchmark != nil {
		eng.SetBenchmark(benchmark)
	}

	for _, history := range universe {
		if err := eng.AddInstrument(history); err != nil {
			return err
		}
	}

	bar := progressbar.Default(-1, "simulating")
	eng.SetProgressCallback(func(done, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}

		_ = bar.Set(done)
	})

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	out, err := yaml.Marshal(result.Summary)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(string(out))

	for _, skipped := range result.Skipped {
		fmt.Printf("skipped %s: %s\n", skipped.Symbol, skipped.Reason)
	}

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if cmd.String("kind") == "strategy" {
		schema, err = strategy.GenerateSchemaJSON()
	} else {
		schema, err = engine.GenerateSchemaJSON()
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "screener",
		Usage: "Technical-indicator equity screening and backtesting",
		Commands: []*cli.Command{
			{
				Name:  "screen",
				Usage: "Screen the universe for buy candidates on the latest session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path or glob of bar CSV files",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "benchmark",
						Aliases: []string{"b"},
						Usage:   "Benchmark index symbol inside the data set",
						Value:   "000300",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Strategy config YAML (defaults to the tier preset)",
					},
					&cli.StringFlag{
						Name:  "tier",
						Usage: "Strategy tier when no config file is given (basic, enhanced, advanced)",
						Value: string(strategy.TierEnhanced),
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Parallel evaluation workers (0 = one per CPU)",
						Value:   0,
					},
				},
				Action: screenAction,
			},
			{
				Name:  "backtest",
				Usage: "Run a portfolio backtest over the universe",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path or glob of bar CSV files",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Backtest config YAML",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "benchmark",
						Aliases: []string{"b"},
						Usage:   "Benchmark index symbol inside the data set",
						Value:   "000300",
					},
				},
				Action: backtestAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of a config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Which schema to print (strategy or backtest)",
						Value: "backtest",
					},
				},
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
