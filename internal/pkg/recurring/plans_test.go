package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
)

func TestSkipNextCycleExpiresSkippedProposal(t *testing.T) {
	proposals := newFakeProposalRepo()
	plans := newFakePlanRepo()
	svc := newTestService(proposals, plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	due := plan.NextDueDate
	proposals.pending[cycleKey(plan.ID, due)] = true

	require.NoError(t, svc.SkipNextCycle(plan, time.Now()))

	assert.Equal(t, day(2025, time.July, 1), plan.NextDueDate)
	assert.Len(t, plans.saved, 1)
	assert.False(t, proposals.pending[cycleKey(plan.ID, due)], "skipped cycle's proposal must be expired")
}

func TestSkipNextCycleRequiresActivePlan(t *testing.T) {
	plans := newFakePlanRepo()
	svc := newTestService(newFakeProposalRepo(), plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	plan.Status = models.PlanStatusPaused

	err := svc.SkipNextCycle(plan, time.Now())

	assert.ErrorIs(t, err, models.ErrPlanNotActive)
	assert.Empty(t, plans.saved)
}

func TestCancelPlanExpiresAllPendingProposals(t *testing.T) {
	proposals := newFakeProposalRepo()
	plans := newFakePlanRepo()
	svc := newTestService(proposals, plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	proposals.pending[cycleKey(plan.ID, day(2025, time.June, 1))] = true
	proposals.pending[cycleKey(plan.ID, day(2025, time.July, 1))] = true

	require.NoError(t, svc.CancelPlan(plan, time.Now()))

	assert.Equal(t, models.PlanStatusCancelled, plan.Status)
	assert.NotNil(t, plan.CancelledAt)
	assert.Empty(t, proposals.pending)

	// terminal: nothing transitions out
	assert.ErrorIs(t, svc.PausePlan(plan, time.Now()), models.ErrPlanCancelled)
	assert.ErrorIs(t, svc.ResumePlan(plan, schedule.ResumeASAP, time.Now()), models.ErrPlanCancelled)
	assert.ErrorIs(t, svc.CancelPlan(plan, time.Now()), models.ErrPlanCancelled)
}

func TestPauseThenResumeOriginalSchedule(t *testing.T) {
	plans := newFakePlanRepo()
	svc := newTestService(newFakeProposalRepo(), plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	plan.NextDueDate = day(2025, time.March, 1)

	require.NoError(t, svc.PausePlan(plan, time.Now()))
	assert.Equal(t, models.PlanStatusPaused, plan.Status)

	// resumed on May 1st, two cycles stale
	now := time.Date(2025, time.May, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, svc.ResumePlan(plan, schedule.ResumeOriginalSchedule, now))

	assert.Equal(t, models.PlanStatusActive, plan.Status)
	assert.Nil(t, plan.PausedAt)
	assert.Equal(t, day(2025, time.June, 1), plan.NextDueDate)
}

func TestUpdatePlanItemsMergeAndReprice(t *testing.T) {
	plans := newFakePlanRepo()
	quotes := testQuotes()
	quotes[3] = quoteFor(3, "Honig", d("6.80"))
	svc := newTestService(newFakeProposalRepo(), plans, &fakePrices{quotes: quotes}, &fakeProcessor{})
	plan := testPlan(1)

	err := svc.UpdatePlanItems(context.Background(), plan, []ItemUpdate{
		{ProductID: 1, Quantity: 4},          // change quantity
		{ProductID: 2, Remove: true},         // drop line
		{ProductID: 3, Quantity: 1},          // attach new product
	})
	require.NoError(t, err)

	require.Len(t, plan.Items, 2)
	byProduct := make(map[uint]models.RecurringPlanItem)
	for _, item := range plan.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 4, byProduct[1].Quantity)
	// existing line keeps its remembered price
	assert.True(t, byProduct[1].UnitPrice.Equal(d("3.00")))
	// new line remembers the live catalog price
	assert.True(t, byProduct[3].UnitPrice.Equal(d("6.80")))
	assert.Len(t, plans.items[plan.ID], 2)
}

func TestUpdatePlanItemsActivePlanMustKeepOneItem(t *testing.T) {
	plans := newFakePlanRepo()
	svc := newTestService(newFakeProposalRepo(), plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)

	err := svc.UpdatePlanItems(context.Background(), plan, []ItemUpdate{
		{ProductID: 1, Remove: true},
		{ProductID: 2, Remove: true},
	})

	assert.ErrorIs(t, err, models.ErrPlanNeedsItems)
	assert.Empty(t, plans.items, "nothing may be persisted")
}

func TestUpdatePlanItemsPausedPlanMayRunEmpty(t *testing.T) {
	plans := newFakePlanRepo()
	svc := newTestService(newFakeProposalRepo(), plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	plan.Status = models.PlanStatusPaused

	err := svc.UpdatePlanItems(context.Background(), plan, []ItemUpdate{
		{ProductID: 1, Remove: true},
		{ProductID: 2, Remove: true},
	})

	require.NoError(t, err)
	assert.Empty(t, plan.Items)
}

func TestUpdatePlanItemsRejectsCancelledPlan(t *testing.T) {
	svc := newTestService(newFakeProposalRepo(), newFakePlanRepo(), &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	plan.Status = models.PlanStatusCancelled

	err := svc.UpdatePlanItems(context.Background(), plan, []ItemUpdate{
		{ProductID: 1, Quantity: 1},
	})

	assert.ErrorIs(t, err, models.ErrPlanCancelled)
}

func TestUpdatePlanItemsRejectsUnorderableNewProduct(t *testing.T) {
	quotes := testQuotes()
	quotes[3] = quoteFor(3, "Ausverkauft", d("6.80"))
	q := quotes[3]
	q.Orderable = false
	quotes[3] = q
	svc := newTestService(newFakeProposalRepo(), newFakePlanRepo(), &fakePrices{quotes: quotes}, &fakeProcessor{})
	plan := testPlan(1)

	err := svc.UpdatePlanItems(context.Background(), plan, []ItemUpdate{
		{ProductID: 3, Quantity: 1},
	})

	assert.ErrorIs(t, err, ErrUnknownProduct)
}
