package sourcequery

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// GormProposalSource reads the day's proposals from the source-of-record
// schema. Read-only: the pipeline never writes through this package.
type GormProposalSource struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormProposalSource {
	return &GormProposalSource{DB: db}
}

type proposalRow struct {
	ProposalDate   time.Time
	ProposalNumber string
	ClientID       string
	RatingSector   string
	ManagerName    string
	CompanyCode    string
	Status         string
	ApprovedCount  int
	ApprovedValue  string
}

type titleRow struct {
	ProposalNumber string
	ClientID       string
	RatingSector   string
	InvoiceNumber  int
	DuplicataCode  string
	SeunoCode      string
	TitleValue     string
	ProductName    *string
}

// FetchBatch builds one immutable snapshot batch for the target date.
// Monetary columns arrive as strings in source locale format and are
// parsed into decimals here, at the boundary.
func (s *GormProposalSource) FetchBatch(ctx context.Context, targetDate time.Time) ([]models.ProposalSnapshot, error) {
	var proposals []proposalRow
	err := s.DB.WithContext(ctx).Raw(`
        SELECT proposal_date, proposal_number, client_id, rating_sector,
               manager_name, company_code, status, approved_count, approved_value
        FROM source_proposals
        WHERE proposal_date = ?
        ORDER BY proposal_number, client_id
    `, targetDate).Scan(&proposals).Error
	if err != nil {
		return nil, err
	}

	var titles []titleRow
	err = s.DB.WithContext(ctx).Raw(`
        SELECT t.proposal_number, t.client_id, t.rating_sector,
               t.invoice_number, t.duplicata_code, t.seuno_code, t.title_value, t.product_name
        FROM source_title_lines t
        JOIN source_proposals p
          ON p.proposal_number = t.proposal_number
         AND p.client_id = t.client_id
         AND p.rating_sector = t.rating_sector
        WHERE p.proposal_date = ?
    `, targetDate).Scan(&titles).Error
	if err != nil {
		return nil, err
	}

	titlesByKey := map[string][]models.TitleLine{}
	for _, t := range titles {
		value, perr := utils.ParseDecimal(t.TitleValue)
		if perr != nil {
			// An unparseable value is input noise, not a run failure;
			// the zero value keeps the title visible to validation.
			value = decimal.Zero
		}
		k := t.ProposalNumber + "|" + t.ClientID + "|" + t.RatingSector
		titlesByKey[k] = append(titlesByKey[k], models.TitleLine{
			InvoiceNumber: t.InvoiceNumber,
			DuplicataCode: t.DuplicataCode,
			SeunoCode:     t.SeunoCode,
			Value:         value,
			ProductName:   t.ProductName,
		})
	}

	batch := make([]models.ProposalSnapshot, 0, len(proposals))
	for _, p := range proposals {
		approved, perr := utils.ParseDecimal(p.ApprovedValue)
		if perr != nil {
			approved = decimal.Zero
		}
		k := p.ProposalNumber + "|" + p.ClientID + "|" + p.RatingSector
		batch = append(batch, models.ProposalSnapshot{
			Key: models.ProposalKey{
				ProposalDate:   p.ProposalDate,
				ProposalNumber: p.ProposalNumber,
				ClientID:       p.ClientID,
				RatingSector:   p.RatingSector,
			},
			ManagerName:   p.ManagerName,
			CompanyCode:   p.CompanyCode,
			Status:        models.ProposalStatus(p.Status),
			ApprovedCount: p.ApprovedCount,
			ApprovedValue: approved,
			Titles:        titlesByKey[k],
		})
	}
	return batch, nil
}
