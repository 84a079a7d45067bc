package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/engine"
	"futures-sim-lab/internal/feed"
	"futures-sim-lab/internal/features"
	"futures-sim-lab/internal/metrics"
	"futures-sim-lab/internal/reporting"
	"futures-sim-lab/internal/storage"
	chstore "futures-sim-lab/internal/storage/clickhouse"
	"futures-sim-lab/internal/storage/memory"
	"futures-sim-lab/internal/storage/migrations"
	pgstore "futures-sim-lab/internal/storage/postgres"
)

func main() {
	// Data
	candlesPath := flag.String("candles", "", "CSV file with OHLC candles (required)")
	symbol := flag.String("symbol", "XBTUSD", "Internal symbol")
	symbolShort := flag.String("symbol-short", "XBT", "Short display name")
	exchangeSymbol := flag.String("exchange-symbol", "", "Exchange symbol (defaults to --symbol)")
	precision := flag.Int("precision", 0, "Price display decimals")
	altcoin := flag.Bool("altcoin", false, "Quanto contract valuation instead of inverse")

	// Run
	strategies := flag.String("strategies", "trend", "Comma-separated strategies: trend, trendrev, chop")
	weights := flag.String("weights", "", "Comma-separated strategy weights (default: equal split)")
	leverage := flag.Float64("leverage", 3, "Leverage per strategy")
	startBalance := flag.Float64("start-balance", 1.0, "Starting wallet balance")
	startIndex := flag.Int("start-index", 200, "Candles to skip as feature warmup")
	record := flag.Bool("record", false, "Record per-candle snapshots")

	// Trend variants
	trendMeanRev := flag.Bool("trend-meanrev", false, "Arm the mean-reversion re-entry")
	trendOpposite := flag.Bool("trend-opposite", false, "Fade the breakout instead of following it")
	trendConf := flag.Bool("trend-conf", false, "Scale trend contracts by confidence")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	persist := flag.Bool("persist", false, "Persist trades, snapshots and aggregates")

	// Output
	outputCSV := flag.Bool("csv", false, "Output metrics as CSV instead of Markdown")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *candlesPath == "" {
		logger.Fatal("--candles is required")
	}
	if *exchangeSymbol == "" {
		*exchangeSymbol = *symbol
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	meta := domain.SymbolMeta{
		Symbol:         *symbol,
		SymbolShort:    *symbolShort,
		ExchangeSymbol: *exchangeSymbol,
		Precision:      *precision,
		IsAltcoin:      *altcoin,
	}

	candles, err := feed.LoadCSV(*candlesPath, *symbol)
	if err != nil {
		logger.Fatalf("load candles: %v", err)
	}
	features.Apply(candles, features.DefaultConfig())
	logger.Printf("Loaded %d candles for %s", len(candles), *symbol)

	strats, err := buildStrategies(*strategies, *weights, *leverage, *trendMeanRev, *trendOpposite, *trendConf)
	if err != nil {
		logger.Fatal(err)
	}

	bt := engine.NewBacktest(engine.BacktestConfig{
		Meta:         meta,
		Candles:      candles,
		Strategies:   strats,
		StartIndex:   *startIndex,
		StartBalance: *startBalance,
		Record:       *record || *persist,
	})

	if err := bt.Run(ctx); err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	results := bt.Results()
	logger.Printf("Run complete: %d trades, final balance %.6f", len(results), bt.Account.Balance())

	// Stores: in-memory unless DSNs are given.
	var symbolStore storage.SymbolStore = memory.NewSymbolStore()
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var snapStore storage.SnapshotStore = memory.NewSnapshotStore()
	var aggStore storage.AggregateStore = memory.NewAggregateStore()

	if *persist && *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		symbolStore = pgstore.NewSymbolStore(pool)
		tradeStore = pgstore.NewTradeStore(pool)
	}
	if *persist && *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		snapStore = chstore.NewSnapshotStore(conn)
		aggStore = chstore.NewAggregateStore(conn)
	}

	if err := symbolStore.Upsert(ctx, meta); err != nil {
		logger.Fatalf("store symbol: %v", err)
	}
	if err := tradeStore.InsertBulk(ctx, results); err != nil {
		logger.Fatalf("store trades: %v", err)
	}
	if len(bt.Snapshots) > 0 && *persist {
		if err := snapStore.InsertBulk(ctx, bt.Snapshots); err != nil {
			logger.Fatalf("store snapshots: %v", err)
		}
	}

	agg := metrics.NewAggregator(tradeStore, aggStore)
	for _, s := range strats {
		if s.TradeCount() == 0 {
			continue
		}
		if _, err := agg.ComputeAggregate(ctx, *symbol, s.Name()); err != nil {
			logger.Fatalf("aggregate %s: %v", s.Name(), err)
		}
	}

	report, err := reporting.NewGenerator(symbolStore, tradeStore, aggStore).Generate(ctx)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}
	if *outputCSV {
		fmt.Print(reporting.RenderCSV(report.StrategyMetrics))
	} else {
		fmt.Print(reporting.RenderMarkdown(report))
	}
}

// buildStrategies parses the strategy and weight lists.
func buildStrategies(names, weights string, lev float64, meanRev, opposite, useConf bool) ([]engine.Strategy, error) {
	parts := strings.Split(names, ",")

	w := make([]float64, len(parts))
	if weights == "" {
		for i := range w {
			w[i] = 1.0 / float64(len(parts))
		}
	} else {
		wparts := strings.Split(weights, ",")
		if len(wparts) != len(parts) {
			return nil, fmt.Errorf("--weights has %d entries for %d strategies", len(wparts), len(parts))
		}
		for i, p := range wparts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("parse weight %q: %w", p, err)
			}
			w[i] = v
		}
	}

	var out []engine.Strategy
	for i, name := range parts {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "trend":
			out = append(out, engine.NewTrendStrategy(engine.TrendConfig{
				Weight:        w[i],
				Leverage:      lev,
				MeanRev:       meanRev,
				Opposite:      opposite,
				UseConfidence: useConf,
			}))
		case "trendrev":
			out = append(out, engine.NewRevStrategy(engine.RevConfig{Weight: w[i], Leverage: lev}))
		case "chop":
			out = append(out, engine.NewChopStrategy(engine.ChopConfig{Weight: w[i], Leverage: lev}))
		default:
			return nil, fmt.Errorf("unknown strategy %q, must be trend, trendrev or chop", name)
		}
	}
	return out, nil
}
