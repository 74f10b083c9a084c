package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ChangeSource string

const (
	ChangeSourceAuto     ChangeSource = "auto"
	ChangeSourceOperator ChangeSource = "operator"
)

// ProposalStatusHistory is the append-only changelog. Rows are immutable
// once written; there is no update or delete path in this package.
type ProposalStatusHistory struct {
	ID int `gorm:"primaryKey" json:"id"`
	ProposalKey
	OldStatus        *ProposalStatus `gorm:"size:20" json:"old_status"`
	NewStatus        ProposalStatus  `gorm:"size:20" json:"new_status"`
	OldApprovedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"old_approved_value"`
	NewApprovedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"new_approved_value"`
	OldTitleCount    int             `gorm:"default:0" json:"old_title_count"`
	NewTitleCount    int             `gorm:"default:0" json:"new_title_count"`
	ChangedAt        time.Time       `gorm:"autoCreateTime" json:"changed_at"`
	ChangeSource     ChangeSource    `gorm:"size:10;default:'auto'" json:"change_source"`
}

// ComputeStatusChange compares the freshly classified state against the
// last persisted row and returns the entry to append, or nil when nothing
// observable changed. stored == nil means first observation: one entry with
// a null old status.
//
// This is a snapshot diff, not an event replay; it survives process
// restarts as long as the valid_proposals row does.
func ComputeStatusChange(stored *ValidProposal, snap ProposalSnapshot, agg TitleAggregate) *ProposalStatusHistory {
	if stored == nil {
		return &ProposalStatusHistory{
			ProposalKey:      snap.Key,
			OldStatus:        nil,
			NewStatus:        snap.Status,
			OldApprovedValue: decimal.Zero,
			NewApprovedValue: snap.ApprovedValue,
			OldTitleCount:    0,
			NewTitleCount:    agg.TitleCount,
			ChangeSource:     ChangeSourceAuto,
		}
	}

	if stored.Status == snap.Status &&
		stored.ApprovedValue.Equal(snap.ApprovedValue) &&
		stored.TitleCount == agg.TitleCount {
		return nil
	}

	old := stored.Status
	return &ProposalStatusHistory{
		ProposalKey:      snap.Key,
		OldStatus:        &old,
		NewStatus:        snap.Status,
		OldApprovedValue: stored.ApprovedValue,
		NewApprovedValue: snap.ApprovedValue,
		OldTitleCount:    stored.TitleCount,
		NewTitleCount:    agg.TitleCount,
		ChangeSource:     ChangeSourceAuto,
	}
}

// AppendStatusHistory writes one changelog entry.
func AppendStatusHistory(tx *gorm.DB, entry *ProposalStatusHistory) error {
	return tx.Create(entry).Error
}

// CountStatusChangesByDate feeds the daily summary.
func CountStatusChangesByDate(tx *gorm.DB, date time.Time) (int64, error) {
	var count int64
	err := tx.Model(&ProposalStatusHistory{}).
		Where("proposal_date = ?", date).
		Count(&count).Error
	return count, err
}
