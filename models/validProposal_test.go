package models

import "testing"

// The upsert's ON DUPLICATE KEY UPDATE list is built from
// mutableProposalColumns; this test pins the protected set so a column can
// only become updatable through a deliberate change here.
func TestMutableProposalColumns_ProtectsIdentityAndOperatorFields(t *testing.T) {
	protected := []string{
		"proposal_date", "proposal_number", "client_id", "rating_sector",
		"manager_name", "company_code",
		"processed", "bot_processed",
		"operator_front", "operator_bot",
		"created_at",
	}
	mutable := map[string]struct{}{}
	for _, col := range MutableProposalColumns() {
		mutable[col] = struct{}{}
	}
	for _, col := range protected {
		if _, ok := mutable[col]; ok {
			t.Errorf("protected column %q is in the upsert update list", col)
		}
	}

	want := []string{"status", "approved_count", "approved_value", "title_value", "title_count"}
	if len(MutableProposalColumns()) != len(want) {
		t.Fatalf("mutable columns = %v, want %v", MutableProposalColumns(), want)
	}
	for i, col := range want {
		if MutableProposalColumns()[i] != col {
			t.Fatalf("mutable columns = %v, want %v", MutableProposalColumns(), want)
		}
	}
}

func TestMutableProposalColumns_ReturnsCopy(t *testing.T) {
	cols := MutableProposalColumns()
	cols[0] = "tampered"
	if MutableProposalColumns()[0] != "status" {
		t.Fatal("MutableProposalColumns leaks internal slice")
	}
}
