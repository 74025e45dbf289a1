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

type ProposalAcceptor interface {
	Accept(ctx context.Context, token string) (model.Order, error)
}

type ProposalHttp struct {
	Scheduler ProposalAcceptor
	Validate  *validator.Validate
}

func RegisterProposalHttp(
	mux *http.ServeMux,
	scheduler ProposalAcceptor,
	validate *validator.Validate,
) *ProposalHttp {
	in := &ProposalHttp{
		Scheduler: scheduler,
		Validate:  validate,
	}

	mux.HandleFunc("POST /api/proposals/accept", in.accept)

	return in
}

func (in ProposalHttp) accept(w http.ResponseWriter, r *http.Request) {
	var req model.AcceptProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, errInvalidRequest)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	order, err := in.Scheduler.Accept(ctx, req.Token)
	if err != nil {
		slog.InfoContext(ctx, "proposal not accepted", common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, err)
		return
	}

	res := model.AcceptProposalResponse{OrderID: order.ID}
	if order.StaffID != nil {
		res.StaffID = *order.StaffID
	}

	writeJSONResponse(w, http.StatusOK, res)
}
