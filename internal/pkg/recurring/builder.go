package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
)

// CreateProposalForPlan snapshots one cycle of a plan into a pending
// proposal. An existing pending proposal for the same cycle wins; the call
// then returns nil without creating anything.
func (s *Service) CreateProposalForPlan(ctx context.Context, plan *models.RecurringPlan, cycleDate time.Time) (*models.PendingProposal, error) {
	exists, err := s.repos.Proposal.HasPendingForCycle(plan.ID, cycleDate)
	if err != nil {
		return nil, fmt.Errorf("checking existing proposal for plan %d: %w", plan.ID, err)
	}
	if exists {
		return nil, nil
	}

	lines := linesFromPlan(plan.Items)
	quotes, err := s.prices.Quotes(ctx, productIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("quoting catalog for plan %d: %w", plan.ID, err)
	}

	proposal := models.NewPendingProposal(plan.ID, cycleDate, BuildSnapshot(lines, quotes, s.shipping, s.vatRate))
	if err := s.repos.Proposal.Create(proposal); err != nil {
		return nil, fmt.Errorf("creating proposal for plan %d: %w", plan.ID, err)
	}
	return proposal, nil
}

// RunDueCycle is the single operation the external scheduler invokes. It
// creates a proposal for every active plan whose due date has arrived,
// advances those plans to their next cycle, and notifies the customers.
// Per-plan failures are logged and skipped so one broken plan cannot stall
// the whole run. Returns the number of proposals created.
func (s *Service) RunDueCycle(ctx context.Context, now time.Time) (int, error) {
	today := dateOnly(now)

	plans, err := s.repos.Plan.ListDueActive(today)
	if err != nil {
		return 0, fmt.Errorf("listing due plans: %w", err)
	}

	created := 0
	for i := range plans {
		plan := &plans[i]

		proposal, err := s.CreateProposalForPlan(ctx, plan, plan.NextDueDate)
		if err != nil {
			log.Errorf("due cycle: plan %d: %v", plan.ID, err)
			continue
		}

		// Advance the plan even when the cycle already had a proposal;
		// otherwise tomorrow's run would pick it up again.
		plan.NextDueDate = schedule.Next(plan.NextDueDate, plan.Frequency)
		if err := s.repos.Plan.Save(plan); err != nil {
			log.Errorf("due cycle: advancing plan %d: %v", plan.ID, err)
			continue
		}

		if proposal != nil {
			created++
			s.notifyProposalCreated(plan, proposal)
		}
	}

	return created, nil
}

// ExpireStaleProposals is the age-based sweep: every proposal still pending
// whose cycle date lies more than maxAge in the past is marked expired.
func (s *Service) ExpireStaleProposals(now time.Time, maxAge time.Duration) (int64, error) {
	cutoff := dateOnly(now.Add(-maxAge))
	return s.repos.Proposal.ExpireScheduledBefore(cutoff, now)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
