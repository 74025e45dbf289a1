package otel

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"strings"
)

// QueryTracer opens one client span per statement, named after the sqlc
// query that issued it.
type QueryTracer struct {
	// Tracer overrides the package tracer, e.g. in tests.
	Tracer trace.Tracer
}

func (q QueryTracer) tracer() trace.Tracer {
	if q.Tracer != nil {
		return q.Tracer
	}
	return Tracer
}

func (q QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name, operation := describeQuery(data.SQL)

	ctx, span := q.tracer().Start(ctx, "db."+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", operation),
		attribute.String("db.query.name", name),
		attribute.String("db.statement", data.SQL),
		attribute.Int("db.args.count", len(data.Args)),
	)

	return ctx
}

func (q QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))

	if data.Err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(data.Err, &pgErr) {
		span.SetAttributes(attribute.String("db.postgresql.sqlstate", pgErr.Code))
	}

	span.RecordError(data.Err)
	span.SetStatus(codes.Error, data.Err.Error())
}

// describeQuery returns the sqlc query name from the leading "-- name:"
// comment and the SQL verb. Statements without the comment are named by verb.
func describeQuery(sql string) (name, operation string) {
	body := strings.TrimSpace(sql)

	if rest, ok := strings.CutPrefix(body, "-- name:"); ok {
		line, after, _ := strings.Cut(rest, "\n")
		if fields := strings.Fields(line); len(fields) > 0 {
			name = fields[0]
		}
		body = strings.TrimSpace(after)
	}

	if fields := strings.Fields(body); len(fields) > 0 {
		operation = strings.ToUpper(fields[0])
	}

	if name == "" {
		name = strings.ToLower(operation)
	}
	if name == "" {
		name = "query"
	}

	return name, operation
}
