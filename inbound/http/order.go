package http

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/core/pricing"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const historyLimit = 20

// historyStatuses are the orders a customer sees as taken.
var historyStatuses = []model.OrderStatus{model.OrderStatusAssigned, model.OrderStatusCompleted}

type OrderService interface {
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, id int64, u model.OrderUpdate) (model.Order, error)
	CountSince(ctx context.Context, customerID int64, since time.Time) (int, error)
	History(ctx context.Context, chatID int64, statuses []model.OrderStatus, limit int32) ([]model.OrderHistoryItem, error)
}

type CustomerFinder interface {
	FindByChatID(ctx context.Context, chatID int64) (model.Customer, error)
}

type DiscountLister interface {
	ListActive(ctx context.Context) ([]model.Discount, error)
}

type ManualAssigner interface {
	AssignManually(ctx context.Context, orderID, staffID int64) (model.Order, error)
}

type OrderHttp struct {
	Orders    OrderService
	Customers CustomerFinder
	Discounts DiscountLister
	Staff     StaffLookup
	Assigner  ManualAssigner
	Validate  *validator.Validate
	TimeNow   func() time.Time
}

func RegisterOrderHttp(
	mux *http.ServeMux,
	orders OrderService,
	customers CustomerFinder,
	discounts DiscountLister,
	staff StaffLookup,
	assigner ManualAssigner,
	validate *validator.Validate,
) *OrderHttp {
	in := &OrderHttp{
		Orders:    orders,
		Customers: customers,
		Discounts: discounts,
		Staff:     staff,
		Assigner:  assigner,
		Validate:  validate,
		TimeNow:   time.Now,
	}

	mux.HandleFunc("GET /api/customers/{chat_id}/orders", in.history)
	mux.HandleFunc("GET /api/orders", in.list)
	mux.HandleFunc("POST /api/orders/{id}/complete", in.complete)
	mux.HandleFunc("POST /api/orders/{id}/assign", in.assign)

	return in
}

// history shows a customer their taken orders and the discount their next
// order would get.
func (in OrderHttp) history(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathInt64(r, "chat_id")
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	res := model.CustomerOrdersResponse{Orders: []model.OrderHistoryResponse{}}

	customer, err := in.Customers.FindByChatID(ctx, chatID)
	if errs.Is(err, errs.ErrCustomerNotFound) {
		writeJSONResponse(w, http.StatusOK, res)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find customer", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	items, err := in.Orders.History(ctx, chatID, historyStatuses, historyLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list order history", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	for _, item := range items {
		res.Orders = append(res.Orders, model.OrderHistoryResponse{
			ID:            item.ID,
			AppointmentAt: formatTime(item.AppointmentAt),
			TotalPrice:    item.TotalPrice.StringFixed(2),
			Status:        string(item.Status),
			StaffName:     item.StaffName,
		})
	}

	frequency, err := in.Orders.CountSince(ctx, customer.ID, in.TimeNow().Add(-constant.DiscountLookback))
	if err != nil {
		slog.ErrorContext(ctx, "failed to count customer orders", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	discounts, err := in.Discounts.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list discounts", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	if best, ok := pricing.SelectDiscount(discounts, frequency); ok {
		res.DiscountPercent = best.Percent
	}

	writeJSONResponse(w, http.StatusOK, res)
}

func (in OrderHttp) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(ctx, r, in.Staff); err != nil {
		writeErrorResponse(w, err)
		return
	}

	filter := model.OrderFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := model.OrderStatus(strings.TrimSpace(part))
			if !status.Valid() {
				writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid status", Data: part})
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || limit <= 0 {
			writeErrorResponse(w, errInvalidRequest)
			return
		}
		filter.Limit = int32(limit)
	}

	orders, err := in.Orders.List(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list orders", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	res := model.ListOrdersResponse{Orders: make([]model.OrderResponse, 0, len(orders))}
	for _, o := range orders {
		res.Orders = append(res.Orders, toOrderResponse(o))
	}

	writeJSONResponse(w, http.StatusOK, res)
}

// complete closes an assigned order after the cleaning took place.
func (in OrderHttp) complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(ctx, r, in.Staff); err != nil {
		writeErrorResponse(w, err)
		return
	}

	id, err := pathInt64(r, "id")
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	completed := model.OrderStatusCompleted
	assigned := model.OrderStatusAssigned
	order, err := in.Orders.Update(ctx, id, model.OrderUpdate{Status: &completed, ExpectStatus: &assigned})
	if err != nil {
		slog.WarnContext(ctx, "order not completed",
			common.ExtractTraceIDFromCtx(ctx),
			slog.Int64(constant.LogFieldOrderId, id),
			slog.Any(constant.LogFieldErr, err),
		)
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}

// assign places an escalated order with the staff member a supervisor picked.
func (in OrderHttp) assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(ctx, r, in.Staff); err != nil {
		writeErrorResponse(w, err)
		return
	}

	id, err := pathInt64(r, "id")
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	var req model.AssignOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, errInvalidRequest)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	order, err := in.Assigner.AssignManually(ctx, id, req.StaffID)
	if err != nil {
		slog.WarnContext(ctx, "manual assignment failed",
			common.ExtractTraceIDFromCtx(ctx),
			slog.Int64(constant.LogFieldOrderId, id),
			slog.Int64(constant.LogFieldStaffId, req.StaffID),
			slog.Any(constant.LogFieldErr, err),
		)
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toOrderResponse(order))
}
