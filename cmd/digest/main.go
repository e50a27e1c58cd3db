// Command digest prints the two assistant-facing projections of a seed
// ledger to stdout, plus the audit receipts its flagged entries would
// produce. Useful for inspecting digests and prompts without running a
// session.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/guardianai/sentinel/internal/audit"
	"github.com/guardianai/sentinel/internal/baseline"
	"github.com/guardianai/sentinel/internal/digest"
	"github.com/guardianai/sentinel/internal/ledger"
	"github.com/guardianai/sentinel/internal/logger"
)

func main() {
	var (
		seedPath = flag.String("seed", "", "Optional YAML seed ledger file (defaults to the built-in seed)")
		receipts = flag.Bool("receipts", false, "Also print audit receipts for flagged transactions")
	)
	flag.Parse()

	log := logger.New()

	seed, err := ledger.DefaultSeed()
	if *seedPath != "" {
		seed, err = ledger.SeedFromFile(*seedPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed ledger")
	}

	book, err := ledger.New(seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger")
	}

	snapshot := book.Snapshot()

	fmt.Println("=== TRANSACTIONS ===")
	fmt.Println(digest.Transactions(snapshot))
	fmt.Println()
	fmt.Println("=== ALERTS ===")
	fmt.Println(digest.Alerts(snapshot))

	if *receipts {
		recorder := audit.NewRecorder(audit.NopArchiver{}, log)
		ctx := context.Background()

		fmt.Println()
		fmt.Println("=== AUDIT RECEIPTS ===")
		for _, tx := range book.Flagged() {
			r := recorder.Record(ctx, tx, baseline.Explain(snapshot, tx))
			fmt.Println(r.Body)
		}
	}
}
