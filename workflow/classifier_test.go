package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
	"bitbucket.org/mmdatafocus/proposals_backend/validation"
)

type fakeResolver struct {
	prefixes map[string]string
}

func (r *fakeResolver) RangePrefix(clientID string) (string, error) {
	return r.prefixes[clientID], nil
}

func (r *fakeResolver) NormalizeCompany(clientID string, rawCompany string) (string, error) {
	return utils.NormalizeName(rawCompany), nil
}

func proposal(number string, client string, titles ...models.TitleLine) models.ProposalSnapshot {
	return models.ProposalSnapshot{
		Key: models.ProposalKey{
			ProposalDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			ProposalNumber: number,
			ClientID:       client,
			RatingSector:   "industria",
		},
		ManagerName:   "Ana Souza",
		CompanyCode:   "BM01",
		Status:        models.ProposalStatusEmAnalise,
		ApprovedValue: decimal.RequireFromString("1000.00"),
		Titles:        titles,
	}
}

func duplicataTitle(invoice int, code string, value string) models.TitleLine {
	return models.TitleLine{
		InvoiceNumber: invoice,
		DuplicataCode: code,
		Value:         decimal.RequireFromString(value),
	}
}

func TestClassifyBatch_DuplicataMode_Partitions(t *testing.T) {
	batch := []models.ProposalSnapshot{
		proposal("1001", "c1",
			duplicataTitle(21467, "021467-1", "500.00"),
			duplicataTitle(21468, "21468/2", "250.00"),
		),
		proposal("1002", "c2",
			duplicataTitle(33000, "033000-1", "100.00"),
			duplicataTitle(33001, "0330011", "100.00"), // concatenated
		),
	}

	result := ClassifyBatch(batch, config.ValidationModeDuplicata, &fakeResolver{}, config.GetLogger())

	if len(result.Valid) != 1 || len(result.Invalid) != 1 {
		t.Fatalf("partition = (%d valid, %d invalid), want (1, 1)", len(result.Valid), len(result.Invalid))
	}

	valid := result.Valid[0]
	if valid.Aggregate.TitleCount != 2 {
		t.Fatalf("valid aggregate title count = %d, want 2", valid.Aggregate.TitleCount)
	}
	if want := decimal.RequireFromString("750.00"); !valid.Aggregate.TitleValue.Equal(want) {
		t.Fatalf("valid aggregate title value = %s, want %s", valid.Aggregate.TitleValue, want)
	}

	invalid := result.Invalid[0]
	if len(invalid.Reasons) != 1 {
		t.Fatalf("invalid reasons = %+v, want exactly one", invalid.Reasons)
	}
	if invalid.Reasons[0].Type != validation.ValidationFormat {
		t.Fatalf("reason type = %q, want format", invalid.Reasons[0].Type)
	}
	if invalid.Reasons[0].Suggestion != "033001-1" {
		t.Fatalf("suggestion = %q, want 033001-1", invalid.Reasons[0].Suggestion)
	}
}

func TestClassifyBatch_SingleBadTitleInvalidatesProposal(t *testing.T) {
	batch := []models.ProposalSnapshot{
		proposal("1001", "c1",
			duplicataTitle(21467, "021467-1", "500.00"),
			duplicataTitle(21468, "wrong", "1.00"),
		),
	}
	result := ClassifyBatch(batch, config.ValidationModeDuplicata, &fakeResolver{}, config.GetLogger())
	if len(result.Valid) != 0 || len(result.Invalid) != 1 {
		t.Fatalf("partition = (%d valid, %d invalid), want (0, 1)", len(result.Valid), len(result.Invalid))
	}
}

func TestClassifyBatch_ReasonsDeduplicated(t *testing.T) {
	batch := []models.ProposalSnapshot{
		proposal("1001", "c1",
			duplicataTitle(1, "bad", "1.00"),
			duplicataTitle(2, "bad", "1.00"),
			duplicataTitle(3, "bad", "1.00"),
		),
	}
	result := ClassifyBatch(batch, config.ValidationModeDuplicata, &fakeResolver{}, config.GetLogger())
	if len(result.Invalid) != 1 {
		t.Fatalf("want 1 invalid proposal, got %d", len(result.Invalid))
	}
	if got := len(result.Invalid[0].Reasons); got != 1 {
		t.Fatalf("identical failures must dedup to one reason, got %d", got)
	}
}

func TestClassifyBatch_SeunoMode_UsesClientRange(t *testing.T) {
	inRange := "518300121527"
	resolver := &fakeResolver{prefixes: map[string]string{"c1": "518", "c2": "999"}}

	batch := []models.ProposalSnapshot{
		proposal("1001", "c1", models.TitleLine{SeunoCode: inRange, Value: decimal.RequireFromString("10.00")}),
		proposal("1002", "c2", models.TitleLine{SeunoCode: inRange, Value: decimal.RequireFromString("10.00")}),
	}
	result := ClassifyBatch(batch, config.ValidationModeSeuno, resolver, config.GetLogger())

	if len(result.Valid) != 1 || len(result.Invalid) != 1 {
		t.Fatalf("partition = (%d valid, %d invalid), want (1, 1)", len(result.Valid), len(result.Invalid))
	}
	if result.Invalid[0].Reasons[0].Type != validation.ValidationRange {
		t.Fatalf("reason type = %q, want range", result.Invalid[0].Reasons[0].Type)
	}
}

// A key that failed format on an earlier run but today fails only the
// checksum must report only checksum, so persistence can close the stale
// open format row for the key.
func TestClassifiedProposal_ReasonTypes(t *testing.T) {
	resolver := &fakeResolver{prefixes: map[string]string{"c1": "518"}}
	batch := []models.ProposalSnapshot{
		proposal("1001", "c1", models.TitleLine{SeunoCode: "518300121520", Value: decimal.New(1, 0)}),
	}
	result := ClassifyBatch(batch, config.ValidationModeSeuno, resolver, config.GetLogger())
	if len(result.Invalid) != 1 {
		t.Fatalf("want 1 invalid proposal, got %d", len(result.Invalid))
	}

	types := result.Invalid[0].ReasonTypes()
	if len(types) != 1 || types[0] != validation.ValidationChecksum {
		t.Fatalf("reason types = %v, want [checksum] only", types)
	}

	mixed := ClassifiedProposal{Reasons: []InvalidReason{
		{Type: validation.ValidationFormat},
		{Type: validation.ValidationChecksum},
		{Type: validation.ValidationFormat},
	}}
	types = mixed.ReasonTypes()
	if len(types) != 2 || types[0] != validation.ValidationFormat || types[1] != validation.ValidationChecksum {
		t.Fatalf("reason types = %v, want [format checksum]", types)
	}
}

func TestCountReasonsByType(t *testing.T) {
	invalid := []ClassifiedProposal{
		{Reasons: []InvalidReason{
			{Type: validation.ValidationFormat},
			{Type: validation.ValidationFormat},
			{Type: validation.ValidationChecksum},
		}},
		{Reasons: []InvalidReason{{Type: validation.ValidationChecksum}}},
	}
	counts := CountReasonsByType(invalid)
	if counts[validation.ValidationFormat] != 1 {
		t.Fatalf("format count = %d, want 1 (per proposal, not per title)", counts[validation.ValidationFormat])
	}
	if counts[validation.ValidationChecksum] != 2 {
		t.Fatalf("checksum count = %d, want 2", counts[validation.ValidationChecksum])
	}
}
