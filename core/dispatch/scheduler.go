package dispatch

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrProposalExpired = errors.New("proposal is no longer available")
	ErrAlreadyAssigned = errors.New("order already assigned")
)

var (
	dispatchable  = []model.OrderStatus{model.OrderStatusSubmitted, model.OrderStatusPendingAssignment}
	proposable    = []model.OrderStatus{model.OrderStatusPendingAssignment, model.OrderStatusAwaitingStaffConfirmation}
	awaiting      = []model.OrderStatus{model.OrderStatusAwaitingStaffConfirmation}
	escalatable   = []model.OrderStatus{model.OrderStatusSubmitted, model.OrderStatusPendingAssignment, model.OrderStatusAwaitingStaffConfirmation}
	manualAssigns = []model.OrderStatus{model.OrderStatusEscalated}
)

type OrderStore interface {
	Get(ctx context.Context, id int64) (model.Order, error)
	TransitionUnassigned(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error)
	AssignStaff(ctx context.Context, id, staffID int64, from []model.OrderStatus) (bool, error)
}

type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (model.Customer, error)
}

type Notifier interface {
	Notify(ctx context.Context, n model.Notification) (string, error)
	Retract(ctx context.Context, handle string) (model.RetractResult, error)
}

type ProposalStore interface {
	Save(ctx context.Context, p model.Proposal, ttl time.Duration) error
	Update(ctx context.Context, p model.Proposal, ttl time.Duration) (bool, error)
	Take(ctx context.Context, orderID, staffID int64) (model.Proposal, bool, error)
	Current(ctx context.Context, orderID int64) (model.Proposal, model.ProposalState, error)
}

// Scheduler owns the proposal lifecycle of every order it dispatches: one
// live proposal and one expiry timer per order. Whoever takes the proposal
// from the store (accept or expiry) owns the next transition, and staff_id is
// only ever written while it is still null, so a late accept racing a timeout
// can never assign twice.
type Scheduler struct {
	Orders    OrderStore
	Staff     StaffDirectory
	Customers CustomerDirectory
	Notifier  Notifier
	Proposals ProposalStore
	Selector  Selector

	AcceptWindow             time.Duration
	ExcludePreviouslyOffered bool
	SupervisorEmail          string
	Timeout                  time.Duration
	Currency                 *message.Printer
	TimeNow                  func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

// Dispatch takes a freshly submitted order into assignment: it proposes it
// to one candidate or escalates it when nobody is eligible.
func (s *Scheduler) Dispatch(ctx context.Context, orderID int64) error {
	ctx, span := otel.Tracer.Start(ctx, "Scheduler.Dispatch")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, orderID)

	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		common.UtilSpanError(span, err)
		return fmt.Errorf("get order: %w", err)
	}

	if !containsStatus(dispatchable, order.Status) {
		slog.InfoContext(ctx, "order already past dispatch", traceIdAttr, orderIdAttr, slog.String("status", string(order.Status)))
		return nil
	}

	if order.Status == model.OrderStatusSubmitted {
		ok, err := s.Orders.TransitionUnassigned(ctx, orderID, []model.OrderStatus{model.OrderStatusSubmitted}, model.OrderStatusPendingAssignment)
		if err != nil {
			common.UtilSpanError(span, err)
			return fmt.Errorf("mark pending assignment: %w", err)
		}
		if !ok {
			slog.InfoContext(ctx, "order moved on concurrently", traceIdAttr, orderIdAttr)
			return nil
		}
		order.Status = model.OrderStatusPendingAssignment
	}

	required := s.Selector.RequiredHours(order.TotalTime)

	pool, err := s.Selector.Pool(ctx, order.AppointmentAt, required)
	if err != nil {
		if errors.Is(err, ErrNoCandidate) || errors.Is(err, ErrOutsideWorkingDay) {
			return s.escalate(ctx, order, err.Error())
		}
		common.UtilSpanError(span, err)
		return err
	}

	candidate, err := s.Selector.Choose(pool, nil)
	if err != nil {
		return s.escalate(ctx, order, err.Error())
	}

	return s.propose(ctx, order, candidate, pool, nil)
}

// Accept handles a candidate's accept action. A token whose proposal was
// already consumed returns ErrProposalExpired and changes nothing.
func (s *Scheduler) Accept(ctx context.Context, token string) (model.Order, error) {
	ctx, span := otel.Tracer.Start(ctx, "Scheduler.Accept")
	defer span.End()

	orderID, staffID, err := DecodeToken(token)
	if err != nil {
		return model.Order{}, err
	}

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, orderID)
	staffIdAttr := slog.Int64(constant.LogFieldStaffId, staffID)

	_, ok, err := s.Proposals.Take(ctx, orderID, staffID)
	if err != nil {
		common.UtilSpanError(span, err)
		return model.Order{}, fmt.Errorf("take proposal: %w", err)
	}

	if !ok {
		slog.InfoContext(ctx, "late accept ignored", traceIdAttr, orderIdAttr, staffIdAttr)
		return model.Order{}, ErrProposalExpired
	}

	s.Cancel(orderID)

	assigned, err := s.Orders.AssignStaff(ctx, orderID, staffID, awaiting)
	if err != nil {
		common.UtilSpanError(span, err)
		return model.Order{}, fmt.Errorf("assign staff: %w", err)
	}

	if !assigned {
		slog.WarnContext(ctx, "order no longer awaiting confirmation", traceIdAttr, orderIdAttr, staffIdAttr)
		return model.Order{}, ErrAlreadyAssigned
	}

	slog.InfoContext(ctx, "order assigned", traceIdAttr, orderIdAttr, staffIdAttr)

	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		common.UtilSpanError(span, err)
		return model.Order{}, fmt.Errorf("reload order: %w", err)
	}

	s.announceAssignment(ctx, order, staffID)

	return order, nil
}

// Expire runs when a proposal's accept window closes. It retracts the offer
// and re-proposes from the same pool, or escalates when the pool is spent.
func (s *Scheduler) Expire(ctx context.Context, orderID, staffID int64) error {
	ctx, span := otel.Tracer.Start(ctx, "Scheduler.Expire")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, orderID)

	s.forget(orderID)

	p, ok, err := s.Proposals.Take(ctx, orderID, staffID)
	if err != nil {
		common.UtilSpanError(span, err)
		return fmt.Errorf("take proposal: %w", err)
	}

	if !ok {
		slog.DebugContext(ctx, "proposal already resolved", traceIdAttr, orderIdAttr)
		return nil
	}

	result, err := s.Notifier.Retract(ctx, p.Handle)
	if err != nil {
		slog.WarnContext(ctx, "failed to retract proposal", traceIdAttr, orderIdAttr, slog.Any(constant.LogFieldErr, err))
	} else {
		slog.DebugContext(ctx, "proposal retracted", traceIdAttr, orderIdAttr, slog.String("result", string(result)))
	}

	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		common.UtilSpanError(span, err)
		return fmt.Errorf("get order: %w", err)
	}

	if order.StaffID != nil || order.Status != model.OrderStatusAwaitingStaffConfirmation {
		slog.InfoContext(ctx, "expired proposal for settled order", traceIdAttr, orderIdAttr)
		return nil
	}

	var exclude []int64
	if s.ExcludePreviouslyOffered {
		exclude = p.Offered
	}

	candidate, err := s.Selector.Choose(p.Pool, exclude)
	if err != nil {
		return s.escalate(ctx, order, "no candidate accepted in time")
	}

	return s.propose(ctx, order, candidate, p.Pool, p.Offered)
}

// Recover re-arms an order awaiting confirmation that has no local timer, e.g.
// after a restart. Overdue proposals expire now. An order whose proposal was
// taken but not yet replaced is left to whoever took it; only an order with
// nothing stored escalates.
func (s *Scheduler) Recover(ctx context.Context, order model.Order) error {
	if order.Status != model.OrderStatusAwaitingStaffConfirmation || s.hasTimer(order.ID) {
		return nil
	}

	p, state, err := s.Proposals.Current(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("current proposal: %w", err)
	}

	switch state {
	case model.ProposalMissing:
		return s.escalate(ctx, order, "proposal lost")
	case model.ProposalInFlight:
		slog.DebugContext(ctx, "proposal hand-off in progress",
			common.ExtractTraceIDFromCtx(ctx),
			slog.Int64(constant.LogFieldOrderId, order.ID),
			slog.Int64(constant.LogFieldStaffId, p.StaffID),
		)
		return nil
	}

	wait := p.ExpiresAt.Sub(s.now())
	if wait <= 0 {
		return s.Expire(ctx, order.ID, p.StaffID)
	}

	s.Schedule(order.ID, p.StaffID, wait)

	return nil
}

// AssignManually lets a supervisor place an escalated order.
func (s *Scheduler) AssignManually(ctx context.Context, orderID, staffID int64) (model.Order, error) {
	ctx, span := otel.Tracer.Start(ctx, "Scheduler.AssignManually")
	defer span.End()

	if _, err := s.Staff.Get(ctx, staffID); err != nil {
		return model.Order{}, err
	}

	assigned, err := s.Orders.AssignStaff(ctx, orderID, staffID, manualAssigns)
	if err != nil {
		common.UtilSpanError(span, err)
		return model.Order{}, fmt.Errorf("assign staff: %w", err)
	}

	if !assigned {
		return model.Order{}, ErrAlreadyAssigned
	}

	order, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, fmt.Errorf("reload order: %w", err)
	}

	s.announceAssignment(ctx, order, staffID)

	return order, nil
}

// Schedule arms the expiry timer of an order, replacing any previous one.
func (s *Scheduler) Schedule(orderID, staffID int64, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timers == nil {
		s.timers = make(map[int64]*time.Timer)
	}

	if t, ok := s.timers[orderID]; ok {
		t.Stop()
	}

	s.timers[orderID] = time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
		defer cancel()

		if err := s.Expire(ctx, orderID, staffID); err != nil {
			slog.ErrorContext(ctx, "proposal expiry failed",
				slog.Int64(constant.LogFieldOrderId, orderID),
				slog.Any(constant.LogFieldErr, err),
			)
		}
	})
}

// Cancel stops the pending timer of an order, if any.
func (s *Scheduler) Cancel(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[orderID]; ok {
		t.Stop()
		delete(s.timers, orderID)
	}
}

// Stop cancels every pending timer. Proposals stay in the store and are
// picked up again by Recover.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

func (s *Scheduler) hasTimer(orderID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[orderID]
	return ok
}

// forget drops the map entry of a timer that has already fired.
func (s *Scheduler) forget(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.timers, orderID)
}

// propose stores the offer before the order turns awaiting confirmation and
// before the candidate is told. The notification handle is attached after.
func (s *Scheduler) propose(ctx context.Context, order model.Order, candidate model.Candidate, pool []model.Candidate, offered []int64) error {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, order.ID)
	staffIdAttr := slog.Int64(constant.LogFieldStaffId, candidate.StaffID)

	member, err := s.Staff.Get(ctx, candidate.StaffID)
	if err != nil {
		return fmt.Errorf("get staff: %w", err)
	}

	now := s.now()
	window := s.acceptWindow()
	ttl := window + constant.ProposalTTLGrace

	p := model.Proposal{
		OrderID:      order.ID,
		StaffID:      candidate.StaffID,
		DispatchedAt: now,
		ExpiresAt:    now.Add(window),
		Pool:         pool,
		Offered:      appendUnique(offered, candidate.StaffID),
	}

	if err := s.Proposals.Save(ctx, p, ttl); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}

	ok, err := s.Orders.TransitionUnassigned(ctx, order.ID, proposable, model.OrderStatusAwaitingStaffConfirmation)
	if err != nil {
		return fmt.Errorf("mark awaiting confirmation: %w", err)
	}

	if !ok {
		if _, _, err := s.Proposals.Take(ctx, order.ID, candidate.StaffID); err != nil {
			slog.WarnContext(ctx, "failed to drop unused proposal", traceIdAttr, orderIdAttr, staffIdAttr, slog.Any(constant.LogFieldErr, err))
		}
		slog.InfoContext(ctx, "order settled before proposal", traceIdAttr, orderIdAttr)
		return nil
	}

	fields := s.orderFields(order)
	fields["staff_name"] = member.DisplayName()
	fields["accept_token"] = EncodeToken(order.ID, candidate.StaffID)
	fields["expires_at"] = p.ExpiresAt.Format("02.01.2006 15:04")

	handle, err := s.Notifier.Notify(ctx, model.Notification{
		Channel:   model.ChannelAssignedStaff,
		Template:  model.TemplateStaffProposal,
		Recipient: member.Email,
		Fields:    fields,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to notify candidate", traceIdAttr, orderIdAttr, staffIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	if handle != "" {
		p.Handle = handle
		live, err := s.Proposals.Update(ctx, p, ttl)
		if err != nil {
			return fmt.Errorf("attach proposal handle: %w", err)
		}
		if !live {
			slog.InfoContext(ctx, "proposal resolved during notification", traceIdAttr, orderIdAttr, staffIdAttr)
			return nil
		}
	}

	s.Schedule(order.ID, candidate.StaffID, window)

	slog.InfoContext(ctx, "order proposed", traceIdAttr, orderIdAttr, staffIdAttr, slog.Int("pool", len(pool)))

	return nil
}

func (s *Scheduler) escalate(ctx context.Context, order model.Order, reason string) error {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, order.ID)

	ok, err := s.Orders.TransitionUnassigned(ctx, order.ID, escalatable, model.OrderStatusEscalated)
	if err != nil {
		return fmt.Errorf("escalate order: %w", err)
	}

	if !ok {
		slog.InfoContext(ctx, "order settled before escalation", traceIdAttr, orderIdAttr)
		return nil
	}

	slog.InfoContext(ctx, "order escalated", traceIdAttr, orderIdAttr, slog.String("reason", reason))

	fields := s.orderFields(order)
	fields["reason"] = reason

	s.notify(ctx, model.Notification{
		Channel:   model.ChannelSupervisor,
		Template:  model.TemplateSupervisorEscalated,
		Recipient: s.SupervisorEmail,
		Fields:    fields,
	})

	return nil
}

func (s *Scheduler) announceAssignment(ctx context.Context, order model.Order, staffID int64) {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	member, err := s.Staff.Get(ctx, staffID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load assigned staff", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	fields := s.orderFields(order)
	fields["staff_name"] = member.DisplayName()

	customer, err := s.Customers.Get(ctx, order.CustomerID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load customer", traceIdAttr, slog.Any(constant.LogFieldErr, err))
	} else {
		fields["customer_name"] = customer.FullName()
		fields["customer_phone"] = customer.Phone
	}

	s.notify(ctx, model.Notification{
		Channel:   model.ChannelAssignedStaff,
		Template:  model.TemplateStaffAssigned,
		Recipient: member.Email,
		Fields:    fields,
	})

	s.notify(ctx, model.Notification{
		Channel:   model.ChannelSupervisor,
		Template:  model.TemplateSupervisorAssigned,
		Recipient: s.SupervisorEmail,
		Fields:    fields,
	})

	if customer.Email != "" {
		s.notify(ctx, model.Notification{
			Channel:   model.ChannelCustomer,
			Template:  model.TemplateCustomerAssigned,
			Recipient: customer.Email,
			Fields:    fields,
		})
	}
}

// notify is fire and forget; delivery problems never roll back dispatch state.
func (s *Scheduler) notify(ctx context.Context, n model.Notification) {
	if _, err := s.Notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification failed",
			common.ExtractTraceIDFromCtx(ctx),
			slog.String("template", string(n.Template)),
			slog.Any(constant.LogFieldErr, err),
		)
	}
}

func (s *Scheduler) orderFields(order model.Order) map[string]string {
	return map[string]string{
		"order_id":    strconv.FormatInt(order.ID, 10),
		"appointment": order.AppointmentAt.Format("02.01.2006 15:04"),
		"address":     order.Address,
		"duration":    strconv.FormatFloat(order.TotalTime, 'f', 1, 64),
		"price":       s.formatPrice(order.TotalPrice),
	}
}

// formatPrice groups the whole rubles with the printer's locale and keeps the
// kopecks exactly as stored.
func (s *Scheduler) formatPrice(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	if s.Currency == nil {
		return fixed
	}

	whole, kopecks, _ := strings.Cut(fixed, ".")
	rubles, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fixed + " ₽"
	}

	separator := strings.Trim(s.Currency.Sprintf("%.1f", 0.5), "05")

	return s.Currency.Sprintf("%d", rubles) + separator + kopecks + " ₽"
}

func (s *Scheduler) acceptWindow() time.Duration {
	if s.AcceptWindow > 0 {
		return s.AcceptWindow
	}
	return constant.DefaultAcceptWindow
}

func (s *Scheduler) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 30 * time.Second
}

func (s *Scheduler) now() time.Time {
	if s.TimeNow != nil {
		return s.TimeNow()
	}
	return time.Now()
}

func containsStatus(list []model.OrderStatus, st model.OrderStatus) bool {
	for _, v := range list {
		if v == st {
			return true
		}
	}
	return false
}

func appendUnique(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids)+1)
	out = append(out, ids...)
	if !containsID(out, id) {
		out = append(out, id)
	}
	return out
}
