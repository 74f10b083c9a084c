package models

import (
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/validation"
)

// InvalidProposal is append-oriented: a row is inserted when a key is first
// seen failing a given validation type and marked resolved (never deleted)
// once the condition clears.
type InvalidProposal struct {
	ID int `gorm:"primaryKey" json:"id"`
	ProposalKey
	ValidationType validation.ValidationType `gorm:"size:20;index" json:"validation_type"`
	Reason         string                    `gorm:"size:255" json:"reason"`
	// Suggestion carries the best-effort duplicata repair. Informational
	// only; it is never applied to the stored identifiers.
	Suggestion string     `gorm:"size:60" json:"suggestion"`
	DetectedAt time.Time  `gorm:"autoCreateTime" json:"detected_at"`
	Resolved   bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// RecordInvalidProposal inserts an unresolved row unless one with the same
// key and validation type is already open, keeping re-runs append-safe.
func RecordInvalidProposal(tx *gorm.DB, key ProposalKey, vType validation.ValidationType, reason string, suggestion string) error {
	var count int64
	err := tx.Model(&InvalidProposal{}).
		Where("proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ? AND validation_type = ? AND resolved = 0",
			key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector, vType).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	row := InvalidProposal{
		ProposalKey:    key,
		ValidationType: vType,
		Reason:         reason,
		Suggestion:     suggestion,
	}
	return tx.Create(&row).Error
}

// ResolveInvalidProposals closes every open invalid row of a key, used when
// a later run reclassifies the key as valid.
func ResolveInvalidProposals(tx *gorm.DB, key ProposalKey) error {
	now := time.Now()
	return tx.Model(&InvalidProposal{}).
		Where("proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ? AND resolved = 0",
			key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": &now}).Error
}

// ResolveInvalidProposalsExcept closes open invalid rows of the key whose
// validation type is not among the current run's failure types. A key that
// was invalid for format yesterday and fails only the checksum today must
// not keep a stale open format row.
func ResolveInvalidProposalsExcept(tx *gorm.DB, key ProposalKey, current []validation.ValidationType) error {
	if len(current) == 0 {
		return ResolveInvalidProposals(tx, key)
	}
	now := time.Now()
	return tx.Model(&InvalidProposal{}).
		Where("proposal_date = ? AND proposal_number = ? AND client_id = ? AND rating_sector = ? AND resolved = 0 AND validation_type NOT IN ?",
			key.ProposalDate, key.ProposalNumber, key.ClientID, key.RatingSector, current).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": &now}).Error
}

// CountInvalidProposalsByDate returns open invalid keys for a proposal
// date, feeding the daily summary.
func CountInvalidProposalsByDate(tx *gorm.DB, date time.Time) (int64, error) {
	var count int64
	err := tx.Model(&InvalidProposal{}).
		Where("proposal_date = ? AND resolved = 0", date).
		Distinct("proposal_number", "client_id", "rating_sector").
		Count(&count).Error
	return count, err
}
