package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
)

func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Required.")
	to := flag.String("to", "", "End date (YYYY-MM-DD). Defaults to -from (single day).")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates daily_summaries if missing).
	models.MigrateTable()

	start, err := time.Parse("2006-01-02", strings.TrimSpace(*from))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -from: %v\n", err)
		os.Exit(1)
	}
	end := start
	if strings.TrimSpace(*to) != "" {
		end, err = time.Parse("2006-01-02", strings.TrimSpace(*to))
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -to: %v\n", err)
			os.Exit(1)
		}
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "-to is before -from")
		os.Exit(1)
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		fmt.Printf("Recomputing daily_summaries for %s\n", d.Format("2006-01-02"))
		if err := models.RecomputeDailySummary(db.WithContext(ctx), d); err != nil {
			fmt.Fprintf(os.Stderr, "date %s recompute failed: %v\n", d.Format("2006-01-02"), err)
			continue
		}
	}

	fmt.Println("Backfill complete")
}
