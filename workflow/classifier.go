package workflow

import (
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
	"bitbucket.org/mmdatafocus/proposals_backend/validation"
)

// InvalidReason is one deduplicated failure attached to an invalid proposal.
type InvalidReason struct {
	Type   validation.ValidationType
	Reason string
	// Suggestion is the best-effort duplicata repair of the first failing
	// title. Informational only.
	Suggestion string
}

// ClassifiedProposal pairs a snapshot with its classification outcome.
type ClassifiedProposal struct {
	Snapshot  models.ProposalSnapshot
	Aggregate models.TitleAggregate
	Reasons   []InvalidReason
}

func (c ClassifiedProposal) Valid() bool {
	return len(c.Reasons) == 0
}

// ReasonTypes returns the distinct validation types of the proposal's
// reasons. Persistence uses it to close open invalid rows whose type is no
// longer failing.
func (c ClassifiedProposal) ReasonTypes() []validation.ValidationType {
	types := make([]validation.ValidationType, 0, len(c.Reasons))
	for _, r := range c.Reasons {
		types = append(types, r.Type)
	}
	return utils.UniqueSlice(types)
}

// ClassificationResult partitions one batch.
type ClassificationResult struct {
	Valid   []ClassifiedProposal
	Invalid []ClassifiedProposal
}

// ClassifyBatch validates every title of every proposal and partitions the
// batch. A proposal is valid only when all of its titles pass; a failing
// title never raises, it classifies.
func ClassifyBatch(batch []models.ProposalSnapshot, mode config.ValidationMode, resolver models.ClientMetadataResolver, logger *logrus.Logger) ClassificationResult {
	var result ClassificationResult

	for _, snap := range batch {
		classified := classifyProposal(snap, mode, resolver, logger)
		if classified.Valid() {
			result.Valid = append(result.Valid, classified)
		} else {
			result.Invalid = append(result.Invalid, classified)
		}
	}
	return result
}

func classifyProposal(snap models.ProposalSnapshot, mode config.ValidationMode, resolver models.ClientMetadataResolver, logger *logrus.Logger) ClassifiedProposal {
	classified := ClassifiedProposal{
		Snapshot:  snap,
		Aggregate: snap.Aggregate(),
	}

	rangePrefix := ""
	if mode == config.ValidationModeSeuno {
		prefix, err := resolver.RangePrefix(snap.Key.ClientID)
		if err != nil {
			// Metadata lookup failure degrades to "no assigned range";
			// the checksum still protects the record.
			config.LogError(logger, "classifier.go", "classifyProposal", "resolving range prefix", snap.Key.String(), err)
		} else {
			rangePrefix = prefix
		}
	}

	seen := map[string]struct{}{}
	for _, title := range snap.Titles {
		var reason *InvalidReason
		switch mode {
		case config.ValidationModeSeuno:
			reason = checkSeunoTitle(title, rangePrefix)
		default:
			reason = checkDuplicataTitle(title)
		}
		if reason == nil {
			continue
		}
		dedupKey := string(reason.Type) + "|" + reason.Reason
		if _, ok := seen[dedupKey]; ok {
			continue
		}
		seen[dedupKey] = struct{}{}
		classified.Reasons = append(classified.Reasons, *reason)
	}
	return classified
}

func checkDuplicataTitle(title models.TitleLine) *InvalidReason {
	if validation.ValidDuplicata(title.DuplicataCode, title.InvoiceNumber) {
		return nil
	}
	return &InvalidReason{
		Type:       validation.ValidationFormat,
		Reason:     "duplicata does not match its invoice number followed by a separator",
		Suggestion: validation.SuggestDuplicataCorrection(title.DuplicataCode, title.InvoiceNumber),
	}
}

func checkSeunoTitle(title models.TitleLine, rangePrefix string) *InvalidReason {
	ok, vType, reason := validation.ValidateSeuno(title.SeunoCode, rangePrefix)
	if ok {
		return nil
	}
	return &InvalidReason{Type: vType, Reason: reason}
}

// CountReasonsByType tallies invalid proposals per validation type for the
// processing-run audit row. A proposal with several reasons counts once per
// distinct type.
func CountReasonsByType(invalid []ClassifiedProposal) map[validation.ValidationType]int {
	counts := map[validation.ValidationType]int{}
	for _, p := range invalid {
		var types []validation.ValidationType
		for _, r := range p.Reasons {
			types = append(types, r.Type)
		}
		for _, t := range utils.UniqueSlice(types) {
			counts[t]++
		}
	}
	return counts
}
