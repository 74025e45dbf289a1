package http

import (
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/core/dispatch"
	"cleanny-dispatch/core/session"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"errors"
	"github.com/go-playground/validator/v10"
	"net/http"
	"strconv"
	"time"
)

const headerChatID = "X-Chat-Id"

var (
	errInvalidRequest = &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"}
	errForbidden      = &errs.HttpError{Code: http.StatusForbidden, Message: "Forbidden"}
)

// StaffLookup resolves the caller of a supervisor endpoint.
type StaffLookup interface {
	GetByChatID(ctx context.Context, chatID int64) (model.Staff, error)
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	err = toHttpError(err)

	w.Header().Set("Content-Type", "application/json")

	var message string
	var data any
	var httpErr *errs.HttpError
	var validationErr validator.ValidationErrors
	if errors.As(err, &httpErr) {
		message = httpErr.Message
		data = httpErr.Data
		w.WriteHeader(httpErr.Code)
	} else if errors.As(err, &validationErr) {
		message = "Validation failed"
		w.WriteHeader(http.StatusBadRequest)

		validationErrors := make(map[string]string)
		for _, fieldErr := range validationErr {
			validationErrors[fieldErr.Field()] = fieldErr.Tag()
		}

		data = validationErrors
	} else {
		message = "Internal Server Error"
		w.WriteHeader(http.StatusInternalServerError)
	}

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// toHttpError maps domain sentinels to their HTTP status. Anything else is
// returned as is.
func toHttpError(err error) error {
	switch {
	case errs.Is(err, dispatch.ErrInvalidToken):
		return &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid token"}
	case errs.Is(err, session.ErrUnknownInput):
		return &errs.HttpError{Code: http.StatusBadRequest, Message: "Unknown input"}
	case errs.Is(err, dispatch.ErrAlreadyAssigned), errs.Is(err, dispatch.ErrProposalExpired):
		return &errs.HttpError{Code: http.StatusConflict, Message: "Order already assigned"}
	case errs.Is(err, errs.ErrOrderNotUpdated):
		return &errs.HttpError{Code: http.StatusConflict, Message: "Order status changed"}
	case errs.Is(err, errs.ErrOrderNotFound):
		return &errs.HttpError{Code: http.StatusNotFound, Message: "Order not found"}
	case errs.Is(err, errs.ErrStaffNotFound):
		return &errs.HttpError{Code: http.StatusNotFound, Message: "Staff not found"}
	case errs.Is(err, errs.ErrCustomerNotFound):
		return &errs.HttpError{Code: http.StatusNotFound, Message: "Customer not found"}
	}
	return err
}

func pathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidRequest
	}
	return id, nil
}

// requireAdmin checks the X-Chat-Id header against the staff table.
func requireAdmin(ctx context.Context, r *http.Request, staff StaffLookup) error {
	chatID, err := strconv.ParseInt(r.Header.Get(headerChatID), 10, 64)
	if err != nil || chatID <= 0 {
		return errForbidden
	}

	caller, err := staff.GetByChatID(ctx, chatID)
	if errs.Is(err, errs.ErrStaffNotFound) {
		return errForbidden
	}
	if err != nil {
		return err
	}

	if !caller.IsAdmin {
		return errForbidden
	}

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toOrderResponse(o model.Order) model.OrderResponse {
	return model.OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		StaffID:       o.StaffID,
		AppointmentAt: formatTime(o.AppointmentAt),
		TotalPrice:    o.TotalPrice.StringFixed(2),
		TotalTime:     o.TotalTime,
		Status:        string(o.Status),
		Address:       o.Address,
		Payment:       string(o.Payment),
		OrderDate:     formatTime(o.OrderDate),
		DiscountID:    o.DiscountID,
	}
}
