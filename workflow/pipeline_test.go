package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/validation"
)

// Exercises the whole classify -> diff -> summarize chain on a fresh day,
// the way a first pipeline run over a new batch behaves.
func TestPipeline_FirstRunOverBatch(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	batch := []models.ProposalSnapshot{
		proposal("88123", "cedente-42",
			duplicataTitle(21467, "021467-1", "700.00"),
			duplicataTitle(21468, "21468/1", "300.00"),
		),
		proposal("88124", "cedente-42",
			duplicataTitle(21500, "021500-1", "450.00"),
		),
		proposal("88125", "cedente-77",
			duplicataTitle(30001, "99999-1", "100.00"), // wrong invoice
		),
	}
	batch[1].Status = models.ProposalStatusAprovada

	result := ClassifyBatch(batch, config.ValidationModeDuplicata, &fakeResolver{}, config.GetLogger())
	if len(result.Valid) != 2 || len(result.Invalid) != 1 {
		t.Fatalf("partition = (%d valid, %d invalid)", len(result.Valid), len(result.Invalid))
	}

	// First observation: every valid key diffs against nothing and emits
	// one changelog entry.
	statusChanges := 0
	var rows []models.ValidProposal
	for _, p := range result.Valid {
		entry := models.ComputeStatusChange(nil, p.Snapshot, p.Aggregate)
		if entry == nil {
			t.Fatalf("first observation of %s emitted no entry", p.Snapshot.Key.String())
		}
		statusChanges++
		rows = append(rows, models.ValidProposal{
			ProposalKey:   p.Snapshot.Key,
			Status:        p.Snapshot.Status,
			ApprovedValue: p.Snapshot.ApprovedValue,
			TitleValue:    p.Aggregate.TitleValue,
			TitleCount:    p.Aggregate.TitleCount,
		})
	}

	summary := models.ComputeDailySummary(date, rows, len(result.Invalid), statusChanges)
	if summary.ValidCount != 2 || summary.InvalidCount != 1 || summary.TotalCount != 3 {
		t.Fatalf("summary counts = (%d, %d, %d)", summary.ValidCount, summary.InvalidCount, summary.TotalCount)
	}
	if summary.AprovadaCount != 1 || summary.EmAnaliseCount != 1 {
		t.Fatalf("buckets = aprovada=%d em_analise=%d", summary.AprovadaCount, summary.EmAnaliseCount)
	}
	if want := decimal.RequireFromString("2000.00"); !summary.TotalApprovedValue.Equal(want) {
		t.Fatalf("total approved value = %s, want %s", summary.TotalApprovedValue, want)
	}
	if summary.StatusChangeCount != 2 {
		t.Fatalf("status change count = %d, want 2", summary.StatusChangeCount)
	}
}

func TestPipeline_RunCountsMatchReasonTypes(t *testing.T) {
	resolver := &fakeResolver{prefixes: map[string]string{"c1": "518"}}
	batch := []models.ProposalSnapshot{
		proposal("1", "c1", models.TitleLine{SeunoCode: "518300121527", Value: decimal.New(1, 0)}),
		proposal("2", "c1", models.TitleLine{SeunoCode: "518300121520", Value: decimal.New(1, 0)}), // bad check digit
		proposal("3", "c1", models.TitleLine{SeunoCode: "51830", Value: decimal.New(1, 0)}),        // too short
	}

	result := ClassifyBatch(batch, config.ValidationModeSeuno, resolver, config.GetLogger())
	counts := CountReasonsByType(result.Invalid)

	if counts[validation.ValidationChecksum] != 1 {
		t.Fatalf("checksum count = %d, want 1", counts[validation.ValidationChecksum])
	}
	if counts[validation.ValidationFormat] != 1 {
		t.Fatalf("format count = %d, want 1", counts[validation.ValidationFormat])
	}
	if counts[validation.ValidationRange] != 0 {
		t.Fatalf("range count = %d, want 0", counts[validation.ValidationRange])
	}
}

func TestCollectCandidates_OnePerClientWithProductUnion(t *testing.T) {
	descontoName := "Desconto de Duplicatas"
	garantidaName := "Conta Garantida"

	p1 := proposal("1", "cedente-42", duplicataTitle(1, "1-1", "1.00"))
	p1.Titles[0].ProductName = &descontoName
	p2 := proposal("2", "cedente-42", duplicataTitle(2, "2-1", "1.00"))
	p2.Titles[0].ProductName = &garantidaName
	p3 := proposal("3", "cedente-77", duplicataTitle(3, "3-1", "1.00"))

	valid := []ClassifiedProposal{
		{Snapshot: p1, Aggregate: p1.Aggregate()},
		{Snapshot: p2, Aggregate: p2.Aggregate()},
		{Snapshot: p3, Aggregate: p3.Aggregate()},
	}

	cands := collectCandidates(valid)
	if len(cands) != 2 {
		t.Fatalf("candidates = %+v, want one per client", cands)
	}
	if cands[0].ClientID != "cedente-42" || cands[1].ClientID != "cedente-77" {
		t.Fatalf("candidate order = %+v, want input order", cands)
	}
	if len(cands[0].Products) != 2 {
		t.Fatalf("cedente-42 products = %v, want union of both proposals", cands[0].Products)
	}
	if len(cands[1].Products) != 0 {
		t.Fatalf("cedente-77 products = %v, want none", cands[1].Products)
	}
}
