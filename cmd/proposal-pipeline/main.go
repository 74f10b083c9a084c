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
	"bitbucket.org/mmdatafocus/proposals_backend/notify"
	"bitbucket.org/mmdatafocus/proposals_backend/sourcequery"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
	"bitbucket.org/mmdatafocus/proposals_backend/workflow"
)

func main() {
	dateFlag := flag.String("date", "", "Target proposal date (YYYY-MM-DD). Defaults to today in PIPELINE_TIMEZONE.")
	modeFlag := flag.String("mode", "", "Validation mode: duplicata or seuno. Defaults to PIPELINE_VALIDATION_MODE.")
	dryRun := flag.Bool("dry-run", false, "Classify and count only; skip all writes and alerts.")
	skipAlerts := flag.Bool("skip-alerts", false, "Run the pipeline but do not dispatch alerts.")
	flag.Parse()

	ctx := context.Background()
	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()
	config.ConnectRedisWithRetry()

	tz := strings.TrimSpace(os.Getenv("PIPELINE_TIMEZONE"))
	if tz == "" {
		tz = "America/Sao_Paulo"
	}

	targetDate, err := resolveTargetDate(*dateFlag, tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -date: %v\n", err)
		os.Exit(1)
	}

	mode := config.ValidationModeFromEnv()
	if strings.TrimSpace(*modeFlag) != "" {
		switch strings.ToLower(strings.TrimSpace(*modeFlag)) {
		case string(config.ValidationModeDuplicata):
			mode = config.ValidationModeDuplicata
		case string(config.ValidationModeSeuno):
			mode = config.ValidationModeSeuno
		default:
			fmt.Fprintf(os.Stderr, "bad -mode %q: want duplicata or seuno\n", *modeFlag)
			os.Exit(1)
		}
	}

	source := sourcequery.New(db)
	result := workflow.ProcessProposalBatch(ctx, db, logger, source, workflow.RunOptions{
		TargetDate: targetDate,
		Mode:       mode,
		DryRun:     *dryRun,
	})
	run := result.Run
	ctx = utils.SetRunIdInContext(ctx, run.ID)

	fmt.Printf("run=%s date=%s mode=%s input=%d valid=%d invalid(format=%d check=%d range=%d) skipped=%d elapsed=%dms\n",
		run.ID, targetDate.Format("2006-01-02"), mode,
		run.InputCount, run.ValidCount, run.InvalidFormat, run.InvalidCheck, run.InvalidRange,
		run.SkippedCount, run.ElapsedMs)
	if run.ErrorMessage != "" {
		fmt.Fprintf(os.Stderr, "run finished with error: %s\n", run.ErrorMessage)
		os.Exit(1)
	}

	if *dryRun || *skipAlerts {
		return
	}

	windows, err := config.AlertWindowsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad alert window config: %v\n", err)
		os.Exit(1)
	}
	transport, err := notify.NewChatClient()
	if err != nil {
		// Missing transport config degrades to a no-alert run; the
		// classification results above are already committed.
		fmt.Fprintf(os.Stderr, "alert transport unavailable: %v\n", err)
		return
	}
	gate := &workflow.AlertGate{
		Calendar:         models.NewBusinessCalendar(db, logger),
		Dedup:            models.NewGormAlertDedupStore(db, config.AlertDedupRetentionDays()),
		Windows:          windows,
		ExcludedProducts: config.ExcludedProductsFromEnv(),
	}
	sent := workflow.DispatchAlerts(ctx, gate, transport, logger, result.Candidates)
	fmt.Printf("alerts sent=%d of %d candidates\n", sent, len(result.Candidates))
}

func resolveTargetDate(raw string, tz string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return utils.ConvertToDate(time.Now(), tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), loc)
}
