package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailySummary is one row per proposal date, always recomputed in full from
// current valid/invalid/history state. Never patched incrementally, so a
// re-run after any correction converges instead of drifting.
type DailySummary struct {
	ProposalDate       time.Time       `gorm:"primaryKey" json:"proposal_date"`
	ValidCount         int             `gorm:"default:0" json:"valid_count"`
	InvalidCount       int             `gorm:"default:0" json:"invalid_count"`
	TotalCount         int             `gorm:"default:0" json:"total_count"`
	TotalApprovedValue decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_approved_value"`
	DigitadaCount      int             `gorm:"default:0" json:"digitada_count"`
	EmAnaliseCount     int             `gorm:"default:0" json:"em_analise_count"`
	ChecagemCount      int             `gorm:"default:0" json:"checagem_count"`
	AprovadaCount      int             `gorm:"default:0" json:"aprovada_count"`
	RecusadaCount      int             `gorm:"default:0" json:"recusada_count"`
	PagaCount          int             `gorm:"default:0" json:"paga_count"`
	StatusChangeCount  int             `gorm:"default:0" json:"status_change_count"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ComputeDailySummary builds the summary row from in-memory state. Pure, so
// the recompute semantics are testable without a database.
func ComputeDailySummary(date time.Time, valid []ValidProposal, invalidCount int, statusChangeCount int) DailySummary {
	s := DailySummary{
		ProposalDate:       date,
		ValidCount:         len(valid),
		InvalidCount:       invalidCount,
		TotalCount:         len(valid) + invalidCount,
		TotalApprovedValue: decimal.Zero,
		StatusChangeCount:  statusChangeCount,
	}
	for _, v := range valid {
		s.TotalApprovedValue = s.TotalApprovedValue.Add(v.ApprovedValue)
		switch v.Status {
		case ProposalStatusDigitada:
			s.DigitadaCount++
		case ProposalStatusEmAnalise:
			s.EmAnaliseCount++
		case ProposalStatusChecagem:
			s.ChecagemCount++
		case ProposalStatusAprovada:
			s.AprovadaCount++
		case ProposalStatusRecusada:
			s.RecusadaCount++
		case ProposalStatusPaga:
			s.PagaCount++
		}
	}
	return s
}

// RecomputeDailySummary rebuilds and upserts the summary for one date.
// Running it twice with unchanged underlying data writes identical values.
func RecomputeDailySummary(tx *gorm.DB, date time.Time) error {
	valid, err := ListValidProposalsByDate(tx, date)
	if err != nil {
		return err
	}
	invalidCount, err := CountInvalidProposalsByDate(tx, date)
	if err != nil {
		return err
	}
	changeCount, err := CountStatusChangesByDate(tx, date)
	if err != nil {
		return err
	}

	s := ComputeDailySummary(date, valid, int(invalidCount), int(changeCount))

	return tx.Exec(`
        INSERT INTO daily_summaries
            (proposal_date, valid_count, invalid_count, total_count, total_approved_value,
             digitada_count, em_analise_count, checagem_count, aprovada_count, recusada_count, paga_count,
             status_change_count, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
        ON DUPLICATE KEY UPDATE
            valid_count = VALUES(valid_count),
            invalid_count = VALUES(invalid_count),
            total_count = VALUES(total_count),
            total_approved_value = VALUES(total_approved_value),
            digitada_count = VALUES(digitada_count),
            em_analise_count = VALUES(em_analise_count),
            checagem_count = VALUES(checagem_count),
            aprovada_count = VALUES(aprovada_count),
            recusada_count = VALUES(recusada_count),
            paga_count = VALUES(paga_count),
            status_change_count = VALUES(status_change_count),
            updated_at = NOW()
    `, s.ProposalDate, s.ValidCount, s.InvalidCount, s.TotalCount, s.TotalApprovedValue,
		s.DigitadaCount, s.EmAnaliseCount, s.ChecagemCount, s.AprovadaCount, s.RecusadaCount, s.PagaCount,
		s.StatusChangeCount,
	).Error
}
