package http

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/core/session"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
)

type SessionHandler interface {
	Handle(ctx context.Context, chatID int64, in session.Input) (session.Reply, error)
}

// SessionHttp stands in for the chat transport: every button press or text
// message of a customer arrives as one input.
type SessionHttp struct {
	Machine  SessionHandler
	Validate *validator.Validate
}

func RegisterSessionHttp(
	mux *http.ServeMux,
	machine SessionHandler,
	validate *validator.Validate,
) *SessionHttp {
	in := &SessionHttp{
		Machine:  machine,
		Validate: validate,
	}

	mux.HandleFunc("POST /api/sessions/{chat_id}/inputs", in.input)

	return in
}

func (in SessionHttp) input(w http.ResponseWriter, r *http.Request) {
	chatID, err := pathInt64(r, "chat_id")
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	var req model.SessionInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, errInvalidRequest)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	reply, err := in.Machine.Handle(ctx, chatID, session.Input{Kind: session.InputKind(req.Kind), Value: req.Value})
	if err != nil {
		slog.WarnContext(ctx, "session input rejected",
			common.ExtractTraceIDFromCtx(ctx),
			slog.Int64(constant.LogFieldCustomerId, chatID),
			slog.Any(constant.LogFieldErr, err),
		)
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toSessionReply(reply))
}

func toSessionReply(reply session.Reply) model.SessionReplyResponse {
	res := model.SessionReplyResponse{
		State:   reply.State.String(),
		Prompt:  string(reply.Prompt),
		Field:   string(reply.Field),
		Ignored: reply.Ignored,
		OrderID: reply.OrderID,
	}

	if d := reply.Draft; d != nil {
		quote := &model.QuoteResponse{
			Rooms:           d.Rooms,
			Bathrooms:       d.Bathrooms,
			Addons:          d.Addons,
			AppointmentAt:   formatTime(d.AppointmentAt),
			Price:           d.Quote.Price.StringFixed(2),
			Duration:        d.Quote.Duration,
			Payment:         string(d.Payment),
			DiscountPercent: d.DiscountPercent,
		}
		if d.Payment != "" {
			quote.FinalPrice = d.FinalPrice.StringFixed(2)
		}
		res.Quote = quote
	}

	return res
}
