package recurring

import (
	"context"
	"fmt"

	"github.com/nordkorb/nordkorb/app/models"
)

// EditLine is one entry of a proposal edit request. Remove must be set
// explicitly; a zero or negative quantity without it is a validation error,
// not an implied removal.
type EditLine struct {
	ProductID uint
	Quantity  int
	Remove    bool
}

// EditProposal replaces a pending proposal's snapshot with a re-priced one
// built from the submitted lines. Prices and availability are re-read from
// the live catalog; unavailable products stay visible in the snapshot's
// unavailable list. The proposal's status never changes here.
func (s *Service) EditProposal(ctx context.Context, proposal *models.PendingProposal, edits []EditLine) (models.ItemsSnapshot, error) {
	if !proposal.IsPending() {
		return models.ItemsSnapshot{}, models.ErrProposalProcessed
	}

	lines := make([]Line, 0, len(edits))
	for _, edit := range edits {
		if edit.Remove {
			continue
		}
		if edit.Quantity <= 0 {
			return models.ItemsSnapshot{}, ErrInvalidQuantity
		}
		lines = append(lines, Line{ProductID: edit.ProductID, Quantity: edit.Quantity})
	}
	if len(lines) == 0 {
		return models.ItemsSnapshot{}, ErrEmptyEdit
	}

	quotes, err := s.prices.Quotes(ctx, productIDs(lines))
	if err != nil {
		return models.ItemsSnapshot{}, fmt.Errorf("quoting catalog for proposal %d: %w", proposal.ID, err)
	}
	for _, line := range lines {
		if _, ok := quotes[line.ProductID]; !ok {
			return models.ItemsSnapshot{}, ErrUnknownProduct
		}
	}

	snapshot := BuildSnapshot(lines, quotes, s.shipping, s.vatRate)
	if err := s.repos.Proposal.UpdateSnapshot(proposal.ID, snapshot); err != nil {
		return models.ItemsSnapshot{}, fmt.Errorf("saving snapshot for proposal %d: %w", proposal.ID, err)
	}

	proposal.ItemsSnapshot = snapshot
	return snapshot, nil
}
