package dispatch

import (
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeCapacity struct {
	rows []model.CapacityRow
	err  error
}

func (f *fakeCapacity) MonthRows(context.Context, time.Time) ([]model.CapacityRow, error) {
	return f.rows, f.err
}

type fakeStaff struct {
	staff []model.Staff
}

func (f *fakeStaff) List(context.Context) ([]model.Staff, error) {
	return f.staff, nil
}

func (f *fakeStaff) Get(_ context.Context, id int64) (model.Staff, error) {
	for _, st := range f.staff {
		if st.ID == id {
			return st, nil
		}
	}
	return model.Staff{}, errs.ErrStaffNotFound
}

type fakeCustomers struct{}

func (fakeCustomers) Get(_ context.Context, id int64) (model.Customer, error) {
	return model.Customer{ID: id, FirstName: "Olga", LastName: "Smirnova", Phone: "+79991112233", Email: "olga@example.com"}, nil
}

type fakeOrderStore struct {
	mu       sync.Mutex
	orders   map[int64]model.Order
	assigned int
}

func newFakeOrderStore(orders ...model.Order) *fakeOrderStore {
	f := &fakeOrderStore{orders: make(map[int64]model.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderStore) Get(_ context.Context, id int64) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, errs.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) TransitionUnassigned(_ context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := f.orders[id]
	if o.StaffID != nil || !containsStatus(from, o.Status) {
		return false, nil
	}
	o.Status = to
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrderStore) AssignStaff(_ context.Context, id, staffID int64, from []model.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := f.orders[id]
	if o.StaffID != nil || !containsStatus(from, o.Status) {
		return false, nil
	}
	o.StaffID = &staffID
	o.Status = model.OrderStatusAssigned
	f.orders[id] = o
	f.assigned++
	return true, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	sent      []model.Notification
	retracted []string
	onNotify  func(ctx context.Context, n model.Notification)
	onRetract func(ctx context.Context, handle string)
}

func (f *fakeNotifier) Notify(ctx context.Context, n model.Notification) (string, error) {
	f.mu.Lock()
	f.sent = append(f.sent, n)
	handle := fmt.Sprintf("handle-%d", len(f.sent))
	hook := f.onNotify
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, n)
	}
	return handle, nil
}

func (f *fakeNotifier) Retract(ctx context.Context, handle string) (model.RetractResult, error) {
	f.mu.Lock()
	for _, h := range f.retracted {
		if h == handle {
			f.mu.Unlock()
			return model.RetractUnchanged, nil
		}
	}
	f.retracted = append(f.retracted, handle)
	hook := f.onRetract
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, handle)
	}
	return model.RetractRetracted, nil
}

func (f *fakeNotifier) byTemplate(t model.NotifyTemplate) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Notification
	for _, n := range f.sent {
		if n.Template == t {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotifier) byChannel(c model.NotifyChannel) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, n := range f.sent {
		if n.Channel == c {
			count++
		}
	}
	return count
}

func (f *fakeNotifier) retractedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.retracted)
}

type proposalKey struct {
	orderID int64
	staffID int64
}

type fakeProposals struct {
	mu      sync.Mutex
	items   map[proposalKey]model.Proposal
	current map[int64]int64
	saved   []model.Proposal
}

func newFakeProposals() *fakeProposals {
	return &fakeProposals{items: make(map[proposalKey]model.Proposal), current: make(map[int64]int64)}
}

func (f *fakeProposals) Save(_ context.Context, p model.Proposal, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[proposalKey{p.OrderID, p.StaffID}] = p
	f.current[p.OrderID] = p.StaffID
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakeProposals) Take(_ context.Context, orderID, staffID int64) (model.Proposal, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := proposalKey{orderID, staffID}
	p, ok := f.items[k]
	delete(f.items, k)
	return p, ok, nil
}

func (f *fakeProposals) Update(_ context.Context, p model.Proposal, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := proposalKey{p.OrderID, p.StaffID}
	if _, ok := f.items[k]; !ok {
		return false, nil
	}
	f.items[k] = p
	return true, nil
}

func (f *fakeProposals) Current(_ context.Context, orderID int64) (model.Proposal, model.ProposalState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	staffID, ok := f.current[orderID]
	if !ok {
		return model.Proposal{}, model.ProposalMissing, nil
	}
	p, ok := f.items[proposalKey{orderID, staffID}]
	if !ok {
		return model.Proposal{OrderID: orderID, StaffID: staffID}, model.ProposalInFlight, nil
	}
	return p, model.ProposalLive, nil
}

func (f *fakeProposals) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.saved)
}
