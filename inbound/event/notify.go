package event

import (
	"bytes"
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/model"
	notifyOutbound "cleanny-dispatch/outbound/notify"
	"context"
	"encoding/json"
	"fmt"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"strings"
	"text/template"
	"time"
)

type Mailer interface {
	Send(to []string, subject string, body string) error
}

// NotifyEvent delivers queued notifications by email.
type NotifyEvent struct {
	Mailer  Mailer
	Cache   *redis.Client
	Timeout time.Duration
}

func (in NotifyEvent) SendHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.NotifySendEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "notify send event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "NotifyEvent.SendHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	handleAttr := slog.String("handle", req.Handle)

	retracted, err := in.Cache.Exists(ctx, notifyOutbound.RetractMarkKey(req.Handle)).Result()
	if err != nil {
		slog.ErrorContext(ctx, "failed to check retraction mark", traceIdAttr, handleAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return err
	}

	if retracted > 0 {
		slog.InfoContext(ctx, "notification retracted before delivery", traceIdAttr, handleAttr)
		return nil
	}

	return in.deliver(ctx, req.Notification.Template, req.Notification)
}

// RetractHandler tells the recipient of a withdrawn proposal that it is gone.
func (in NotifyEvent) RetractHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.NotifyRetractEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "notify retract event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "NotifyEvent.RetractHandler")
	defer span.End()

	if req.Notification.Template != model.TemplateStaffProposal {
		slog.DebugContext(ctx, "nothing to withdraw", common.ExtractTraceIDFromCtx(ctx), slog.String("template", string(req.Notification.Template)))
		return nil
	}

	return in.deliver(ctx, model.TemplateStaffProposalWithdrawn, req.Notification)
}

func (in NotifyEvent) deliver(ctx context.Context, tmpl model.NotifyTemplate, n model.Notification) error {
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	templateAttr := slog.String("template", string(tmpl))

	subject, body, err := renderNotification(tmpl, n.Fields)
	if err != nil {
		slog.WarnContext(ctx, "failed to render notification", traceIdAttr, templateAttr, slog.Any(constant.LogFieldErr, err))
		return nil
	}

	if err = in.Mailer.Send([]string{n.Recipient}, subject, body); err != nil {
		slog.ErrorContext(ctx, "failed to send notification email", traceIdAttr, templateAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.InfoContext(ctx, "notification delivered", traceIdAttr, templateAttr, slog.String(constant.LogFieldChannel, string(n.Channel)))

	return nil
}

func renderNotification(tmpl model.NotifyTemplate, fields map[string]string) (string, string, error) {
	text, ok := constant.NotifyTemplates[tmpl]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", tmpl)
	}

	subject, err := execute(string(tmpl)+".subject", text.Subject, fields)
	if err != nil {
		return "", "", err
	}

	body, err := execute(string(tmpl)+".body", text.Body, fields)
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(subject), body, nil
}

func execute(name, text string, fields map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err = t.Execute(&buf, fields); err != nil {
		return "", err
	}

	return buf.String(), nil
}
