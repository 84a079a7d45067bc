package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"futures-sim-lab/internal/domain"
	"futures-sim-lab/internal/livesync"
)

// reconcile diffs the theoretical order set (as rendered by the
// strategies' final orders) against the orders actually resting on the
// exchange, and prints what to submit, amend and cancel. Exit code 1
// means the two sets drifted.
func main() {
	theoPath := flag.String("theo", "", "JSON file with theoretical orders (required)")
	actualPath := flag.String("actual", "", "JSON file with live exchange orders (required)")
	outputJSON := flag.Bool("json", false, "Output the diff as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[reconcile] ", log.LstdFlags)

	if *theoPath == "" || *actualPath == "" {
		logger.Fatal("--theo and --actual are required")
	}

	theo, err := loadOrders(*theoPath)
	if err != nil {
		logger.Fatalf("load theoretical orders: %v", err)
	}
	actual, err := loadOrders(*actualPath)
	if err != nil {
		logger.Fatalf("load live orders: %v", err)
	}

	diff := livesync.Reconcile(theo, actual)
	amendments := diff.Amendments()

	if *outputJSON {
		out, _ := json.MarshalIndent(struct {
			Submit []domain.OrderSnapshot
			Amend  []livesync.MatchedOrder
			Cancel []domain.OrderSnapshot
		}{diff.Missing, amendments, diff.Unmatched}, "", "  ")
		fmt.Println(string(out))
	} else {
		printDiff(diff, amendments)
	}

	if len(diff.Missing) > 0 || len(amendments) > 0 || len(diff.Unmatched) > 0 {
		os.Exit(1)
	}
}

func loadOrders(path string) ([]domain.OrderSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orders []domain.OrderSnapshot
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return orders, nil
}

func printDiff(diff livesync.Diff, amendments []livesync.MatchedOrder) {
	fmt.Printf("matched %d, submit %d, amend %d, cancel %d\n\n",
		len(diff.Matched), len(diff.Missing), len(amendments), len(diff.Unmatched))

	if len(diff.Missing) > 0 {
		fmt.Println("Submit:")
		for _, o := range diff.Missing {
			fmt.Printf("  %-28s %s side=%+d contracts=%d price=%g\n",
				o.Key, o.OrderKind, o.Side, o.Contracts, o.Price)
		}
		fmt.Println()
	}

	if len(amendments) > 0 {
		fmt.Println("Amend:")
		for _, m := range amendments {
			fmt.Printf("  %-28s contracts %d -> %d, price %g -> %g\n",
				m.Theo.Key, m.Actual.Contracts, m.Theo.Contracts, m.Actual.Price, m.Theo.Price)
		}
		fmt.Println()
	}

	if len(diff.Unmatched) > 0 {
		fmt.Println("Cancel:")
		for _, o := range diff.Unmatched {
			fmt.Printf("  %-28s %s side=%+d contracts=%d price=%g\n",
				o.Key, o.OrderKind, o.Side, o.Contracts, o.Price)
		}
		fmt.Println()
	}
}
