package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordkorb/nordkorb/app/models"
)

func TestCreateProposalForPlanSnapshotsLivePrices(t *testing.T) {
	proposals := newFakeProposalRepo()
	svc := newTestService(proposals, newFakePlanRepo(), &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)

	proposal, err := svc.CreateProposalForPlan(context.Background(), plan, plan.NextDueDate)
	require.NoError(t, err)
	require.NotNil(t, proposal)

	assert.Equal(t, models.ProposalStatusPending, proposal.Status)
	assert.NotEmpty(t, proposal.UUID)
	assert.Equal(t, plan.NextDueDate, proposal.ScheduledFor)
	require.Len(t, proposal.ItemsSnapshot.Items, 2)
	// live catalog prices, not the plan's remembered ones
	assert.True(t, proposal.ItemsSnapshot.Items[0].Price.Equal(d("3.50")))
	assert.True(t, proposal.ItemsSnapshot.Subtotal.Equal(d("19.90")))
}

func TestCreateProposalForPlanSkipsExistingPendingCycle(t *testing.T) {
	proposals := newFakeProposalRepo()
	svc := newTestService(proposals, newFakePlanRepo(), &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	proposals.pending[cycleKey(plan.ID, plan.NextDueDate)] = true

	proposal, err := svc.CreateProposalForPlan(context.Background(), plan, plan.NextDueDate)

	require.NoError(t, err)
	assert.Nil(t, proposal, "existing pending proposal wins")
	assert.Empty(t, proposals.created)
}

func TestRunDueCycleCreatesAndAdvances(t *testing.T) {
	proposals := newFakeProposalRepo()
	plans := newFakePlanRepo()
	svc := newTestService(proposals, plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plans.due = []models.RecurringPlan{*testPlan(1), *testPlan(2)}

	created, err := svc.RunDueCycle(context.Background(), time.Date(2025, time.June, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, created)
	assert.Len(t, proposals.created, 2)
	require.Len(t, plans.saved, 2)
	for _, plan := range plans.saved {
		assert.Equal(t, day(2025, time.July, 1), plan.NextDueDate)
	}
}

func TestRunDueCycleAdvancesEvenWhenCycleAlreadyProposed(t *testing.T) {
	proposals := newFakeProposalRepo()
	plans := newFakePlanRepo()
	svc := newTestService(proposals, plans, &fakePrices{quotes: testQuotes()}, &fakeProcessor{})
	plan := testPlan(1)
	plans.due = []models.RecurringPlan{*plan}
	proposals.pending[cycleKey(plan.ID, plan.NextDueDate)] = true

	created, err := svc.RunDueCycle(context.Background(), time.Date(2025, time.June, 2, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, created)
	assert.Empty(t, proposals.created)
	require.Len(t, plans.saved, 1, "plan must still advance or tomorrow repeats the cycle")
	assert.Equal(t, day(2025, time.July, 1), plans.saved[0].NextDueDate)
}

func TestExpireStaleProposalsUsesCutoff(t *testing.T) {
	proposals := newFakeProposalRepo()
	svc := newTestService(proposals, newFakePlanRepo(), &fakePrices{quotes: testQuotes()}, &fakeProcessor{})

	now := time.Date(2025, time.June, 20, 14, 0, 0, 0, time.UTC)
	n, err := svc.ExpireStaleProposals(now, 14*24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, day(2025, time.June, 6), proposals.sweepCut)
}
