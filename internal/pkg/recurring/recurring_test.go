package recurring

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordkorb/nordkorb/app/models"
	"github.com/nordkorb/nordkorb/app/repository"
	"github.com/nordkorb/nordkorb/internal/pkg/catalog"
	"github.com/nordkorb/nordkorb/internal/pkg/payment"
	"github.com/nordkorb/nordkorb/internal/pkg/schedule"
)

// Shared test doubles for the engine tests.

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

type fakePrices struct {
	quotes map[uint]catalog.Quote
	err    error
}

func (f *fakePrices) Quotes(_ context.Context, ids []uint) (map[uint]catalog.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uint]catalog.Quote, len(ids))
	for _, id := range ids {
		if q, ok := f.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

type fakeProcessor struct {
	calls []payment.ChargeRequest
	err   error
}

func (f *fakeProcessor) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.ChargeResult{TransactionID: "ch_test"}, nil
}

type fakeTxStore struct {
	orders      []*models.Order
	createErr   error
	saveErr     error
	savedStatus string
}

func (f *fakeTxStore) CreateOrder(order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uint(len(f.orders) + 1)
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeTxStore) SaveProposal(proposal *models.PendingProposal) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedStatus = proposal.Status
	return nil
}

type fakeProposalRepo struct {
	created    []*models.PendingProposal
	pending    map[string]bool // "planID|date" → pending exists
	snapshots  map[uint]models.ItemsSnapshot
	processed  map[uint]bool // stored rows already in a terminal status
	expiredFor []string
	sweepCut   time.Time
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{
		pending:   make(map[string]bool),
		snapshots: make(map[uint]models.ItemsSnapshot),
		processed: make(map[uint]bool),
	}
}

func cycleKey(planID uint, t time.Time) string {
	return t.Format("2006-01-02") + "|" + string(rune('0'+planID))
}

func (f *fakeProposalRepo) Create(p *models.PendingProposal) error {
	p.ID = uint(len(f.created) + 1)
	f.created = append(f.created, p)
	f.pending[cycleKey(p.RecurringPlanID, p.ScheduledFor)] = true
	return nil
}

func (f *fakeProposalRepo) GetByID(uint) (*models.PendingProposal, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProposalRepo) GetByUUID(string) (*models.PendingProposal, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProposalRepo) HasPendingForCycle(planID uint, scheduledFor time.Time) (bool, error) {
	return f.pending[cycleKey(planID, scheduledFor)], nil
}

func (f *fakeProposalRepo) ExpirePendingForCycle(planID uint, scheduledFor time.Time, _ time.Time) (int64, error) {
	key := cycleKey(planID, scheduledFor)
	f.expiredFor = append(f.expiredFor, key)
	if f.pending[key] {
		delete(f.pending, key)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeProposalRepo) ExpirePendingForPlan(planID uint, _ time.Time) (int64, error) {
	var n int64
	for key := range f.pending {
		if key[len(key)-1] == byte('0'+planID) {
			delete(f.pending, key)
			n++
		}
	}
	f.expiredFor = append(f.expiredFor, "plan")
	return n, nil
}

func (f *fakeProposalRepo) ExpireScheduledBefore(cutoff time.Time, _ time.Time) (int64, error) {
	f.sweepCut = cutoff
	return 3, nil
}

// UpdateSnapshot mirrors the status-guarded update of the real repository:
// a row that already turned terminal is never rewritten.
func (f *fakeProposalRepo) UpdateSnapshot(proposalID uint, snapshot models.ItemsSnapshot) error {
	if f.processed[proposalID] {
		return models.ErrProposalProcessed
	}
	f.snapshots[proposalID] = snapshot
	return nil
}

type fakePlanRepo struct {
	due   []models.RecurringPlan
	saved []*models.RecurringPlan
	items map[uint][]models.RecurringPlanItem
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{items: make(map[uint][]models.RecurringPlanItem)}
}

func (f *fakePlanRepo) Create(*models.RecurringPlan) error { return nil }

func (f *fakePlanRepo) GetByID(uint) (*models.RecurringPlan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanRepo) GetByIDForUser(uint, uint) (*models.RecurringPlan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanRepo) ListByUser(uint) ([]models.RecurringPlan, error) { return nil, nil }

func (f *fakePlanRepo) ListDueActive(time.Time) ([]models.RecurringPlan, error) {
	return f.due, nil
}

func (f *fakePlanRepo) Save(plan *models.RecurringPlan) error {
	f.saved = append(f.saved, plan)
	return nil
}

func (f *fakePlanRepo) ReplaceItems(planID uint, items []models.RecurringPlanItem) error {
	f.items[planID] = items
	return nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) Create(*models.User) error { return nil }
func (fakeUserRepo) GetByID(uint) (*models.User, error) {
	return nil, errors.New("not wired in tests")
}
func (fakeUserRepo) GetByEmail(string) (*models.User, error)           { return nil, gorm.ErrRecordNotFound }
func (fakeUserRepo) GetByActivationToken(string) (*models.User, error) { return nil, gorm.ErrRecordNotFound }
func (fakeUserRepo) Update(*models.User) error                         { return nil }

func newTestService(proposals *fakeProposalRepo, plans *fakePlanRepo, prices *fakePrices, proc *fakeProcessor) *Service {
	return &Service{
		repos: &repository.Repositories{
			Proposal: proposals,
			Plan:     plans,
			User:     fakeUserRepo{},
		},
		prices:    prices,
		processor: proc,
		shipping:  d("4.90"),
		vatRate:   d("0.20"),
		currency:  "EUR",
		secret:    "test-secret",
		baseURL:   "https://shop.test",
	}
}

func testPlan(id uint) *models.RecurringPlan {
	return &models.RecurringPlan{
		ID:               id,
		UserID:           1,
		Frequency:        schedule.FrequencyEveryMonth,
		Status:           models.PlanStatusActive,
		NextDueDate:      day(2025, time.June, 1),
		PaymentMethodRef: "pm_test_123",
		Items: []models.RecurringPlanItem{
			{RecurringPlanID: id, ProductID: 1, Quantity: 2, UnitPrice: d("3.00"), Product: models.Product{ID: 1, Name: "Haferflocken"}},
			{RecurringPlanID: id, ProductID: 2, Quantity: 1, UnitPrice: d("12.00"), Product: models.Product{ID: 2, Name: "Kaffee"}},
		},
	}
}

func quoteFor(id uint, name string, price decimal.Decimal) catalog.Quote {
	return catalog.Quote{ProductID: id, Name: name, Price: price, Orderable: true}
}

func testQuotes() map[uint]catalog.Quote {
	return map[uint]catalog.Quote{
		1: {ProductID: 1, Name: "Haferflocken", VariantName: "500g", Price: d("3.50"), Orderable: true},
		2: {ProductID: 2, Name: "Kaffee", VariantName: "Ganze Bohne", Price: d("12.90"), Orderable: true},
	}
}
