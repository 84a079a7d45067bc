package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"futures-sim-lab/internal/metrics"
	"futures-sim-lab/internal/reporting"
	chstore "futures-sim-lab/internal/storage/clickhouse"
	pgstore "futures-sim-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")
	recompute := flag.Bool("recompute", false, "Recompute aggregates from the trade log first")
	format := flag.String("format", "markdown", "Output format: markdown, csv, trades-csv")
	outPath := flag.String("out", "", "Output file (default: stdout)")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	symbolStore := pgstore.NewSymbolStore(pool)
	tradeStore := pgstore.NewTradeStore(pool)
	aggStore := chstore.NewAggregateStore(conn)

	if *recompute {
		symbols, err := symbolStore.List(ctx)
		if err != nil {
			logger.Fatalf("list symbols: %v", err)
		}
		names := make([]string, 0, len(symbols))
		for _, m := range symbols {
			names = append(names, m.Symbol)
		}

		aggs, err := metrics.NewAggregator(tradeStore, aggStore).ComputeAll(ctx, names)
		if err != nil {
			logger.Fatalf("recompute aggregates: %v", err)
		}
		logger.Printf("Recomputed %d aggregates", len(aggs))
	}

	var output string
	switch *format {
	case "markdown", "csv":
		report, err := reporting.NewGenerator(symbolStore, tradeStore, aggStore).Generate(ctx)
		if err != nil {
			logger.Fatalf("generate report: %v", err)
		}
		if *format == "csv" {
			output = reporting.RenderCSV(report.StrategyMetrics)
		} else {
			output = reporting.RenderMarkdown(report)
		}
	case "trades-csv":
		symbols, err := symbolStore.List(ctx)
		if err != nil {
			logger.Fatalf("list symbols: %v", err)
		}
		for _, m := range symbols {
			trades, err := tradeStore.GetBySymbol(ctx, m.Symbol)
			if err != nil {
				logger.Fatalf("load trades for %s: %v", m.Symbol, err)
			}
			csv := reporting.RenderTradesCSV(trades)
			if output != "" {
				// Drop repeated headers after the first symbol.
				if i := indexAfterHeader(csv); i > 0 {
					csv = csv[i:]
				}
			}
			output += csv
		}
	default:
		logger.Fatalf("unknown format %q, must be markdown, csv or trades-csv", *format)
	}

	if *outPath == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*outPath, []byte(output), 0o644); err != nil {
		logger.Fatalf("write %s: %v", *outPath, err)
	}
	logger.Printf("Wrote %s", *outPath)
}

// indexAfterHeader returns the offset just past the first line.
func indexAfterHeader(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	return 0
}
