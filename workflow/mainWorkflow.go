package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
	"bitbucket.org/mmdatafocus/proposals_backend/validation"
)

// persistAttempts bounds the retry loop around each key's transaction.
// After the last attempt the key is skipped and counted, not fatal.
const persistAttempts = 3

// RunOptions parameterizes one pipeline execution.
type RunOptions struct {
	TargetDate time.Time
	Mode       config.ValidationMode
	DryRun     bool
}

// RunResult summarizes one execution for the caller; the same numbers land
// in the processing_runs audit row.
type RunResult struct {
	Run        *models.ProcessingRun
	Candidates []AlertCandidate
}

// ProcessProposalBatch is the pipeline entrypoint: classify the batch,
// persist valid rows under per-key locks, record invalid rows, recompute
// the daily summary and write the audit row. Always writes exactly one
// processing_runs row, even when the source fetch fails.
func ProcessProposalBatch(ctx context.Context, db *gorm.DB, logger *logrus.Logger, source ProposalSource, opts RunOptions) RunResult {
	mode := models.RunModeNormal
	if opts.DryRun {
		mode = models.RunModeDryRun
	}
	run := models.NewProcessingRun(opts.TargetDate, string(opts.Mode), mode)

	batch, err := source.FetchBatch(ctx, opts.TargetDate)
	if err != nil {
		config.LogError(logger, "mainWorkflow.go", "ProcessProposalBatch", "fetching source batch", opts.TargetDate, err)
		run.ErrorMessage = err.Error()
		models.WriteProcessingRun(db, logger, run)
		return RunResult{Run: run}
	}
	run.InputCount = len(batch)

	resolver := models.NewClientMetadataResolver(db)
	result := ClassifyBatch(batch, opts.Mode, resolver, logger)
	run.ValidCount = len(result.Valid)

	typeCounts := CountReasonsByType(result.Invalid)
	run.InvalidFormat = typeCounts[validation.ValidationFormat]
	run.InvalidCheck = typeCounts[validation.ValidationChecksum]
	run.InvalidRange = typeCounts[validation.ValidationRange]

	if !opts.DryRun {
		run.SkippedCount = persistClassification(ctx, db, logger, result)

		if err := models.RecomputeDailySummary(db.WithContext(ctx), opts.TargetDate); err != nil {
			config.LogError(logger, "mainWorkflow.go", "ProcessProposalBatch", "recomputing daily summary", opts.TargetDate, err)
			run.ErrorMessage = err.Error()
		}
	}

	models.WriteProcessingRun(db, logger, run)
	return RunResult{Run: run, Candidates: collectCandidates(result.Valid)}
}

// persistClassification writes every classified proposal, each key inside
// its own advisory lock + transaction so a concurrent run never interleaves
// a diff with a half-committed upsert. Returns the number of keys skipped
// after exhausting retries.
func persistClassification(ctx context.Context, db *gorm.DB, logger *logrus.Logger, result ClassificationResult) (skipped int) {
	for _, p := range result.Valid {
		if err := retryPersist(func() error {
			return persistValidProposal(ctx, db, p)
		}); err != nil {
			config.LogError(logger, "mainWorkflow.go", "persistClassification", "persisting valid proposal", p.Snapshot.Key.String(), err)
			skipped++
		}
	}
	for _, p := range result.Invalid {
		if err := retryPersist(func() error {
			return persistInvalidProposal(ctx, db, p)
		}); err != nil {
			config.LogError(logger, "mainWorkflow.go", "persistClassification", "persisting invalid proposal", p.Snapshot.Key.String(), err)
			skipped++
		}
	}
	return skipped
}

func retryPersist(fn func() error) error {
	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return err
}

// persistValidProposal diffs against the stored row, appends the changelog
// entry, upserts the valid row and closes any open invalid rows, all in one
// transaction under the key's advisory lock. GET_LOCK is connection-scoped
// and gorm commits after the Transaction closure returns, so the lock is
// taken on a pinned connection and released only after the transaction —
// COMMIT included — is done. Releasing inside the closure would let a
// concurrent run diff against the not-yet-committed old row and append a
// duplicate history entry.
func persistValidProposal(ctx context.Context, db *gorm.DB, p ClassifiedProposal) error {
	key := p.Snapshot.Key
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return holdLockAround(
			func() error { return AcquireProposalLock(conn, key) },
			func() error {
				return conn.Transaction(func(tx *gorm.DB) error {
					stored, err := models.GetValidProposal(tx, key)
					if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
						return err
					}

					if entry := models.ComputeStatusChange(stored, p.Snapshot, p.Aggregate); entry != nil {
						if err := models.AppendStatusHistory(tx, entry); err != nil {
							return err
						}
					}
					if err := models.UpsertValidProposal(tx, p.Snapshot, p.Aggregate); err != nil {
						return err
					}
					return models.ResolveInvalidProposals(tx, key)
				})
			},
			func() { ReleaseProposalLock(conn, key) },
		)
	})
}

func persistInvalidProposal(ctx context.Context, db *gorm.DB, p ClassifiedProposal) error {
	key := p.Snapshot.Key
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range p.Reasons {
			if err := models.RecordInvalidProposal(tx, key, r.Type, r.Reason, r.Suggestion); err != nil {
				return err
			}
		}
		// A failure mode that cleared since the last run resolves its row
		// even though the key is still invalid for another type.
		return models.ResolveInvalidProposalsExcept(tx, key, p.ReasonTypes())
	})
}

// collectCandidates folds valid proposals into one alert candidate per
// client, carrying the union of product names for the exclusion check.
func collectCandidates(valid []ClassifiedProposal) []AlertCandidate {
	byClient := map[string]*AlertCandidate{}
	var order []string
	for _, p := range valid {
		clientID := p.Snapshot.Key.ClientID
		cand, ok := byClient[clientID]
		if !ok {
			cand = &AlertCandidate{ClientID: clientID}
			byClient[clientID] = cand
			order = append(order, clientID)
		}
		cand.Products = append(cand.Products, p.Snapshot.ProductNames()...)
	}
	out := make([]AlertCandidate, 0, len(order))
	for _, id := range order {
		out = append(out, *byClient[id])
	}
	return out
}
