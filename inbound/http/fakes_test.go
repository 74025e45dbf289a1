package http

import (
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/core/session"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"time"
)

type fakeSessions struct {
	reply  session.Reply
	err    error
	chatID int64
	input  session.Input
}

func (f *fakeSessions) Handle(_ context.Context, chatID int64, in session.Input) (session.Reply, error) {
	f.chatID = chatID
	f.input = in
	return f.reply, f.err
}

type fakeAcceptor struct {
	order model.Order
	err   error
	token string
}

func (f *fakeAcceptor) Accept(_ context.Context, token string) (model.Order, error) {
	f.token = token
	return f.order, f.err
}

type fakeStaff struct {
	byChat  map[int64]model.Staff
	list    []model.Staff
	err     error
	created []model.CreateStaffRequest
}

func (f *fakeStaff) GetByChatID(_ context.Context, chatID int64) (model.Staff, error) {
	if f.err != nil {
		return model.Staff{}, f.err
	}
	st, ok := f.byChat[chatID]
	if !ok {
		return model.Staff{}, errs.Mark(errors.New("no rows in result set"), errs.ErrStaffNotFound)
	}
	return st, nil
}

func (f *fakeStaff) List(context.Context) ([]model.Staff, error) {
	return f.list, nil
}

func (f *fakeStaff) Create(_ context.Context, req model.CreateStaffRequest) (model.Staff, error) {
	f.created = append(f.created, req)
	return model.Staff{
		ID:        int64(10 + len(f.created)),
		ChatID:    req.ChatID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsAdmin:   req.IsAdmin,
	}, nil
}

type fakeOrders struct {
	history   []model.OrderHistoryItem
	statuses  []model.OrderStatus
	limit     int32
	orders    []model.Order
	count     int
	since     time.Time
	filter    model.OrderFilter
	update    model.OrderUpdate
	updated   model.Order
	updateErr error
	listErr   error
}

func (f *fakeOrders) List(_ context.Context, filter model.OrderFilter) ([]model.Order, error) {
	f.filter = filter
	return f.orders, f.listErr
}

func (f *fakeOrders) Update(_ context.Context, id int64, u model.OrderUpdate) (model.Order, error) {
	f.update = u
	if f.updateErr != nil {
		return model.Order{}, f.updateErr
	}
	o := f.updated
	o.ID = id
	return o, nil
}

func (f *fakeOrders) CountSince(_ context.Context, _ int64, since time.Time) (int, error) {
	f.since = since
	return f.count, nil
}

func (f *fakeOrders) History(_ context.Context, _ int64, statuses []model.OrderStatus, limit int32) ([]model.OrderHistoryItem, error) {
	f.statuses = statuses
	f.limit = limit
	return f.history, nil
}

type fakeCustomers struct {
	customers map[int64]model.Customer
}

func (f *fakeCustomers) FindByChatID(_ context.Context, chatID int64) (model.Customer, error) {
	c, ok := f.customers[chatID]
	if !ok {
		return model.Customer{}, errs.Mark(errors.New("no rows in result set"), errs.ErrCustomerNotFound)
	}
	return c, nil
}

type fakeDiscounts struct {
	discounts []model.Discount
}

func (f *fakeDiscounts) ListActive(context.Context) ([]model.Discount, error) {
	return f.discounts, nil
}

type fakeAssigner struct {
	order   model.Order
	err     error
	orderID int64
	staffID int64
}

func (f *fakeAssigner) AssignManually(_ context.Context, orderID, staffID int64) (model.Order, error) {
	f.orderID = orderID
	f.staffID = staffID
	return f.order, f.err
}
