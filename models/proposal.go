package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProposalStatus follows the ordered progression of the credit desk.
type ProposalStatus string

const (
	ProposalStatusDigitada  ProposalStatus = "digitada"
	ProposalStatusEmAnalise ProposalStatus = "em_analise"
	ProposalStatusChecagem  ProposalStatus = "checagem"
	ProposalStatusAprovada  ProposalStatus = "aprovada"
	ProposalStatusRecusada  ProposalStatus = "recusada"
	ProposalStatusPaga      ProposalStatus = "paga"
)

// AllProposalStatuses lists the fixed vocabulary in progression order.
// Daily summary bucket columns are derived from this list.
var AllProposalStatuses = []ProposalStatus{
	ProposalStatusDigitada,
	ProposalStatusEmAnalise,
	ProposalStatusChecagem,
	ProposalStatusAprovada,
	ProposalStatusRecusada,
	ProposalStatusPaga,
}

// ProposalKey is the composite natural key shared by every persisted
// proposal entity.
type ProposalKey struct {
	ProposalDate   time.Time `gorm:"primaryKey" json:"proposal_date"`
	ProposalNumber string    `gorm:"primaryKey;size:30" json:"proposal_number"`
	ClientID       string    `gorm:"primaryKey;size:40" json:"client_id"`
	RatingSector   string    `gorm:"primaryKey;size:60" json:"rating_sector"`
}

// String renders the key for lock names and log lines.
func (k ProposalKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.ProposalDate.Format("2006-01-02"), k.ProposalNumber, k.ClientID, k.RatingSector)
}

// TitleLine is one receivable title inside a proposal. Input only; titles
// are aggregated into the valid row, never persisted individually.
type TitleLine struct {
	InvoiceNumber int
	DuplicataCode string
	SeunoCode     string
	Value         decimal.Decimal
	ProductName   *string
}

// ProposalSnapshot is the immutable per-run view of one proposal as read
// from the source of record. Each run builds a fresh batch of snapshots and
// compares them against persisted state; snapshots are never mutated.
type ProposalSnapshot struct {
	Key           ProposalKey
	ManagerName   string
	CompanyCode   string
	Status        ProposalStatus
	ApprovedCount int
	ApprovedValue decimal.Decimal
	Titles        []TitleLine
}

// TitleAggregate is the per-proposal rollup of its title lines, produced by
// classification and written to the valid row.
type TitleAggregate struct {
	TitleCount int
	TitleValue decimal.Decimal
}

// Aggregate sums the snapshot's title lines.
func (p ProposalSnapshot) Aggregate() TitleAggregate {
	agg := TitleAggregate{TitleValue: decimal.Zero}
	for _, t := range p.Titles {
		agg.TitleCount++
		agg.TitleValue = agg.TitleValue.Add(t.Value)
	}
	return agg
}

// ProductNames returns the distinct non-empty product names of the titles.
func (p ProposalSnapshot) ProductNames() []string {
	var names []string
	seen := map[string]struct{}{}
	for _, t := range p.Titles {
		if t.ProductName == nil || *t.ProductName == "" {
			continue
		}
		if _, ok := seen[*t.ProductName]; ok {
			continue
		}
		seen[*t.ProductName] = struct{}{}
		names = append(names, *t.ProductName)
	}
	return names
}
