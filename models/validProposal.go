package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// ValidProposal is the durable row for a proposal that classified valid at
// least once. Identity columns (key, manager, company) are written on first
// insert only; operator fields and processing flags belong to the operator
// flow and are never touched by the pipeline upsert.
type ValidProposal struct {
	ProposalKey
	ManagerName   string          `gorm:"size:120" json:"manager_name"`
	CompanyCode   string          `gorm:"size:30" json:"company_code"`
	Status        ProposalStatus  `gorm:"size:20;index" json:"status"`
	ApprovedCount int             `gorm:"default:0" json:"approved_count"`
	ApprovedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"approved_value"`
	TitleValue    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"title_value"`
	TitleCount    int             `gorm:"default:0" json:"title_count"`
	UpdateCount   int             `gorm:"default:0" json:"update_count"`
	Processed     bool            `gorm:"default:false" json:"processed"`
	BotProcessed  bool            `gorm:"default:false" json:"bot_processed"`
	OperatorFront string          `gorm:"size:120" json:"operator_front"`
	OperatorBot   string          `gorm:"size:120" json:"operator_bot"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// mutableProposalColumns are the only columns an upsert may change on an
// existing row. update_count is bumped alongside them. Everything else is
// structurally excluded from the ON DUPLICATE KEY UPDATE list.
var mutableProposalColumns = []string{
	"status",
	"approved_count",
	"approved_value",
	"title_value",
	"title_count",
}

// MutableProposalColumns exposes the update list so tests can pin the
// protected column set.
func MutableProposalColumns() []string {
	out := make([]string, len(mutableProposalColumns))
	copy(out, mutableProposalColumns)
	return out
}

// UpsertValidProposal inserts the row on first classification and on later
// runs updates only the mutable columns, incrementing update_count. The
// identity columns appear exclusively in the INSERT list, so an interleaved
// writer can never overwrite them.
func UpsertValidProposal(tx *gorm.DB, snap ProposalSnapshot, agg TitleAggregate) error {
	assignments := make([]string, 0, len(mutableProposalColumns)+2)
	for _, col := range mutableProposalColumns {
		assignments = append(assignments, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	assignments = append(assignments, "update_count = update_count + 1", "updated_at = NOW()")

	return tx.Exec(fmt.Sprintf(`
        INSERT INTO valid_proposals
            (proposal_date, proposal_number, client_id, rating_sector,
             manager_name, company_code,
             status, approved_count, approved_value, title_value, title_count,
             update_count, processed, bot_processed, operator_front, operator_bot,
             created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, '', '', NOW(), NOW())
        ON DUPLICATE KEY UPDATE %s
    `, strings.Join(assignments, ", ")),
		snap.Key.ProposalDate, snap.Key.ProposalNumber, snap.Key.ClientID, snap.Key.RatingSector,
		snap.ManagerName, snap.CompanyCode,
		snap.Status, snap.ApprovedCount, snap.ApprovedValue, agg.TitleValue, agg.TitleCount,
	).Error
}

// GetValidProposal fetches the stored row for a key, or
// utils.ErrorRecordNotFound when the key has never classified valid.
func GetValidProposal(tx *gorm.DB, key ProposalKey) (*ValidProposal, error) {
	var row ValidProposal
	err := tx.Where(
		"proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ?",
		key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector,
	).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &row, nil
}

// SetOperatorFields records the operator-driven selection on an existing
// row. This is the only path that writes the operator columns, and it
// refuses to touch anything else.
func SetOperatorFields(tx *gorm.DB, key ProposalKey, operatorFront string, operatorBot string) error {
	return tx.Model(&ValidProposal{}).
		Where("proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ?",
			key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector).
		Updates(map[string]interface{}{
			"operator_front": operatorFront,
			"operator_bot":   operatorBot,
		}).Error
}

// MarkProcessed flips one of the two independent processing flags.
func MarkProcessed(tx *gorm.DB, key ProposalKey, bot bool) error {
	col := "processed"
	if bot {
		col = "bot_processed"
	}
	return tx.Model(&ValidProposal{}).
		Where("proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ?",
			key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector).
		Update(col, true).Error
}

// ListValidProposalsByDate returns the valid rows of a proposal date.
func ListValidProposalsByDate(tx *gorm.DB, date time.Time) ([]ValidProposal, error) {
	var rows []ValidProposal
	err := tx.Where("proposal_date = ?", date).Find(&rows).Error
	return rows, err
}
