package http

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
)

type StaffService interface {
	StaffLookup
	List(ctx context.Context) ([]model.Staff, error)
	Create(ctx context.Context, req model.CreateStaffRequest) (model.Staff, error)
}

// StaffHttp lets supervisors register cleaners. Every route requires an admin
// caller.
type StaffHttp struct {
	Staff    StaffService
	Validate *validator.Validate
}

func RegisterStaffHttp(
	mux *http.ServeMux,
	staff StaffService,
	validate *validator.Validate,
) *StaffHttp {
	in := &StaffHttp{
		Staff:    staff,
		Validate: validate,
	}

	mux.HandleFunc("GET /api/staff", in.list)
	mux.HandleFunc("POST /api/staff", in.create)

	return in
}

func (in StaffHttp) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(ctx, r, in.Staff); err != nil {
		writeErrorResponse(w, err)
		return
	}

	staff, err := in.Staff.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list staff", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	res := make([]model.StaffResponse, 0, len(staff))
	for _, st := range staff {
		res = append(res, toStaffResponse(st))
	}

	writeJSONResponse(w, http.StatusOK, res)
}

func (in StaffHttp) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireAdmin(ctx, r, in.Staff); err != nil {
		writeErrorResponse(w, err)
		return
	}

	var req model.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, errInvalidRequest)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	st, err := in.Staff.Create(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create staff", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "staff registered", common.ExtractTraceIDFromCtx(ctx), slog.Int64(constant.LogFieldStaffId, st.ID))

	writeJSONResponse(w, http.StatusCreated, toStaffResponse(st))
}

func toStaffResponse(st model.Staff) model.StaffResponse {
	return model.StaffResponse{
		ID:      st.ID,
		ChatID:  st.ChatID,
		Name:    st.DisplayName(),
		Email:   st.Email,
		IsAdmin: st.IsAdmin,
	}
}
