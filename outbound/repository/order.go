package repository

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/contract"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/model"
	"cleanny-dispatch/outbound/sqlgen"
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"log/slog"
	"math"
	"time"
)

const defaultListLimit = 100

type OrderRepository struct {
	Db      contract.DbConn
	Querier *sqlgen.Queries
}

func NewOrderRepository(db contract.DbConn) *OrderRepository {
	return &OrderRepository{Db: db, Querier: sqlgen.New(db)}
}

// Create stores the order together with its line items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o model.NewOrder) (model.Order, error) {
	ctx, span := otel.Tracer.Start(ctx, "OrderRepository.Create")
	defer span.End()

	tx, err := r.Db.Begin(ctx)
	if err != nil {
		return model.Order{}, errs.Wrap(err, "begin order transaction")
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback order transaction", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		}
	}()

	withTx := r.Querier.WithTx(tx)

	row, err := withTx.InsertOrder(ctx, sqlgen.InsertOrderParams{
		CustomerID:    o.CustomerID,
		AppointmentAt: o.AppointmentAt,
		TotalPrice:    o.TotalPrice.Round(2),
		TotalTime:     roundTenth(o.TotalTime),
		Address:       o.Address,
		Payment:       string(o.Payment),
		OrderDate:     o.OrderDate,
		DiscountID:    int8Of(o.DiscountID),
	})
	if err != nil {
		return model.Order{}, errs.Wrap(err, "insert order")
	}

	for _, line := range o.Lines {
		err = withTx.InsertOrderService(ctx, sqlgen.InsertOrderServiceParams{
			OrderID:   row.ID,
			ServiceID: line.ServiceID,
			Quantity:  line.Quantity,
		})
		if err != nil {
			return model.Order{}, errs.Wrap(err, "insert order service")
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return model.Order{}, errs.Wrap(err, "commit order transaction")
	}

	return toOrder(row), nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (model.Order, error) {
	row, err := r.Querier.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, errs.Mark(err, errs.ErrOrderNotFound)
		}
		return model.Order{}, errs.Wrap(err, "get order")
	}

	return toOrder(row), nil
}

// Update applies a partial update. It returns ErrOrderNotUpdated when the
// order does not exist or no longer has the expected status.
func (r *OrderRepository) Update(ctx context.Context, id int64, u model.OrderUpdate) (model.Order, error) {
	row, err := r.Querier.UpdateOrder(ctx, sqlgen.UpdateOrderParams{
		Status:       textOf(u.Status),
		Address:      textOf(u.Address),
		Payment:      textOf(u.Payment),
		ID:           id,
		ExpectStatus: textOf(u.ExpectStatus),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, errs.Mark(err, errs.ErrOrderNotUpdated)
		}
		return model.Order{}, errs.Wrap(err, "update order")
	}

	return toOrder(row), nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.Querier.ListOrders(ctx, sqlgen.ListOrdersParams{
		CustomerID: int8Of(f.CustomerID),
		Statuses:   statusStrings(f.Statuses),
		RowLimit:   limit,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list orders")
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, toOrder(row))
	}

	return orders, nil
}

// CountSince counts the customer's orders placed at or after since.
func (r *OrderRepository) CountSince(ctx context.Context, customerID int64, since time.Time) (int, error) {
	count, err := r.Querier.CountOrdersSince(ctx, sqlgen.CountOrdersSinceParams{
		CustomerID: customerID,
		OrderDate:  since,
	})
	if err != nil {
		return 0, errs.Wrap(err, "count orders")
	}

	return int(count), nil
}

// AssignStaff sets staff_id only while it is still null and the status is one
// of from. false means another writer got there first.
func (r *OrderRepository) AssignStaff(ctx context.Context, id, staffID int64, from []model.OrderStatus) (bool, error) {
	cmd, err := r.Querier.AssignOrderStaff(ctx, sqlgen.AssignOrderStaffParams{
		ID:       id,
		StaffID:  pgtype.Int8{Int64: staffID, Valid: true},
		Statuses: statusStrings(from),
	})
	if err != nil {
		return false, errs.Wrap(err, "assign order staff")
	}

	return cmd.RowsAffected() == 1, nil
}

func (r *OrderRepository) TransitionUnassigned(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	cmd, err := r.Querier.TransitionUnassignedOrder(ctx, sqlgen.TransitionUnassignedOrderParams{
		ID:       id,
		Status:   string(to),
		Statuses: statusStrings(from),
	})
	if err != nil {
		return false, errs.Wrap(err, "transition order")
	}

	return cmd.RowsAffected() == 1, nil
}

// History lists a customer's most recent orders in the given statuses by chat
// id.
func (r *OrderRepository) History(ctx context.Context, chatID int64, statuses []model.OrderStatus, limit int32) ([]model.OrderHistoryItem, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.Querier.ListCustomerOrderHistory(ctx, sqlgen.ListCustomerOrderHistoryParams{
		ChatID:   chatID,
		Statuses: statusStrings(statuses),
		RowLimit: limit,
	})
	if err != nil {
		return nil, errs.Wrap(err, "list order history")
	}

	items := make([]model.OrderHistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.OrderHistoryItem{
			ID:            row.ID,
			AppointmentAt: row.AppointmentAt,
			TotalPrice:    row.TotalPrice,
			Status:        model.OrderStatus(row.Status),
			StaffName:     row.StaffName,
		})
	}

	return items, nil
}

func toOrder(row sqlgen.Order) model.Order {
	return model.Order{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		StaffID:       ptrOf(row.StaffID),
		AppointmentAt: row.AppointmentAt,
		TotalPrice:    row.TotalPrice,
		TotalTime:     row.TotalTime,
		Status:        model.OrderStatus(row.Status),
		Address:       row.Address,
		Payment:       model.PaymentMethod(row.Payment),
		OrderDate:     row.OrderDate,
		DiscountID:    ptrOf(row.DiscountID),
	}
}

func statusStrings(list []model.OrderStatus) []string {
	out := make([]string, 0, len(list))
	for _, st := range list {
		out = append(out, string(st))
	}
	return out
}

func int8Of(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func ptrOf(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func textOf[T ~string](v *T) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: string(*v), Valid: true}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
