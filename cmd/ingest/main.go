package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/feed"
	"futures-sim-lab/internal/storage"
	chstore "futures-sim-lab/internal/storage/clickhouse"
	"futures-sim-lab/internal/storage/memory"
	"futures-sim-lab/internal/storage/migrations"
	pgstore "futures-sim-lab/internal/storage/postgres"
)

func main() {
	// Source: exactly one of --candles or --ws-endpoint.
	candlesPath := flag.String("candles", "", "CSV file with OHLC candles")
	wsEndpoint := flag.String("ws-endpoint", "", "Exchange WebSocket endpoint to stream candles from")

	symbol := flag.String("symbol", "XBTUSD", "Internal symbol")
	symbolShort := flag.String("symbol-short", "XBT", "Short display name")
	exchangeSymbol := flag.String("exchange-symbol", "", "Exchange symbol (defaults to --symbol)")
	precision := flag.Int("precision", 0, "Price display decimals")
	altcoin := flag.Bool("altcoin", false, "Quanto contract valuation instead of inverse")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	batchSize := flag.Int("batch-size", 1, "Candles per insert batch when streaming")

	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if (*candlesPath == "") == (*wsEndpoint == "") {
		logger.Fatal("exactly one of --candles or --ws-endpoint is required")
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

	// Stores: in-memory only makes sense for dry runs.
	var symbolStore storage.SymbolStore = memory.NewSymbolStore()
	var candleStore storage.CandleStore = memory.NewCandleStore()

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("postgres migrations: %v", err)
		}
		symbolStore = pgstore.NewSymbolStore(pool)
	}
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("clickhouse migrations: %v", err)
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	}

	meta := domain.SymbolMeta{
		Symbol:         *symbol,
		SymbolShort:    *symbolShort,
		ExchangeSymbol: *exchangeSymbol,
		Precision:      *precision,
		IsAltcoin:      *altcoin,
	}
	if err := symbolStore.Upsert(ctx, meta); err != nil {
		logger.Fatalf("store symbol: %v", err)
	}

	if *candlesPath != "" {
		ingestCSV(ctx, logger, candleStore, *candlesPath, *symbol)
		return
	}
	ingestStream(ctx, logger, candleStore, *wsEndpoint, *exchangeSymbol, *symbol, *batchSize)
}

func ingestCSV(ctx context.Context, logger *log.Logger, store storage.CandleStore, path, symbol string) {
	candles, err := feed.LoadCSV(path, symbol)
	if err != nil {
		logger.Fatalf("load candles: %v", err)
	}
	if err := store.InsertBulk(ctx, candles); err != nil {
		logger.Fatalf("store candles: %v", err)
	}
	logger.Printf("Ingested %d candles for %s", len(candles), symbol)
}

func ingestStream(ctx context.Context, logger *log.Logger, store storage.CandleStore, endpoint, exchangeSymbol, symbol string, batchSize int) {
	stream, err := feed.NewStream(ctx, endpoint, exchangeSymbol, nil)
	if err != nil {
		logger.Fatalf("connect stream: %v", err)
	}
	defer stream.Close()

	logger.Printf("Streaming %s candles from %s", exchangeSymbol, endpoint)

	var batch []domain.Candle
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := store.InsertBulk(ctx, batch); err != nil {
			logger.Fatalf("store candles: %v", err)
		}
		logger.Printf("Stored %d candles, last %s", len(batch), batch[len(batch)-1].Timestamp)
		batch = batch[:0]
	}

	total := 0
	for {
		select {
		case c, ok := <-stream.Candles():
			if !ok {
				flush()
				logger.Printf("Stream closed after %d candles", total)
				return
			}
			c.Symbol = symbol
			batch = append(batch, c)
			total++
			if len(batch) >= batchSize {
				flush()
			}
		case <-ctx.Done():
			flush()
			logger.Printf("Shutdown after %d candles", total)
			return
		}
	}
}
