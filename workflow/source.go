package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/proposals_backend/models"
)

// ProposalSource supplies one read-only batch of proposal snapshots per
// invocation for a target date. It is the boundary to the source-of-record
// query layer; the pipeline never writes back through it.
type ProposalSource interface {
	FetchBatch(ctx context.Context, targetDate time.Time) ([]models.ProposalSnapshot, error)
}
