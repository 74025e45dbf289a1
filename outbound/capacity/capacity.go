package capacity

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const cellSeparator = ","

var ErrEmptySheet = errors.New("capacity sheet has no rows")

// Sheet is the monthly capacity schedule as exported from the staffing
// spreadsheet: one row per person, one cell per day of the month.
type Sheet struct {
	Month string     `yaml:"month"`
	Staff []SheetRow `yaml:"staff"`
}

type SheetRow struct {
	Name string   `yaml:"name"`
	Days []string `yaml:"days"`
}

func LoadSheet(r io.Reader) (Sheet, error) {
	var sheet Sheet
	if err := yaml.NewDecoder(r).Decode(&sheet); err != nil {
		return Sheet{}, errs.Wrap(err, "decode capacity sheet")
	}

	if _, err := time.Parse(constant.CapacityMonthKeyInput, sheet.Month); err != nil {
		return Sheet{}, errs.Wrap(err, "parse capacity month")
	}

	if len(sheet.Staff) == 0 {
		return Sheet{}, ErrEmptySheet
	}

	return sheet, nil
}

// RedisSource keeps each month's schedule in one hash, field per person.
type RedisSource struct {
	Cache *redis.Client
}

func monthKey(month string) string {
	return fmt.Sprintf(constant.CapacityMonthKey, month)
}

func (r RedisSource) MonthRows(ctx context.Context, month time.Time) ([]model.CapacityRow, error) {
	values, err := r.Cache.HGetAll(ctx, monthKey(month.Format(constant.CapacityMonthKeyInput))).Result()
	if err != nil {
		return nil, errs.Wrap(err, "read capacity month")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]model.CapacityRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, model.CapacityRow{
			StaffName: name,
			Cells:     strings.Split(values[name], cellSeparator),
		})
	}

	return rows, nil
}

// Import replaces the stored month with the sheet contents.
func (r RedisSource) Import(ctx context.Context, sheet Sheet) error {
	if len(sheet.Staff) == 0 {
		return ErrEmptySheet
	}

	key := monthKey(sheet.Month)

	rows := make([]SheetRow, len(sheet.Staff))
	copy(rows, sheet.Staff)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	fields := make([]any, 0, len(rows)*2)
	for _, row := range rows {
		fields = append(fields, strings.TrimSpace(row.Name), strings.Join(row.Days, cellSeparator))
	}

	pipe := r.Cache.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields...)

	if _, err := pipe.Exec(ctx); err != nil {
		return errs.Wrap(err, "store capacity month")
	}

	slog.InfoContext(ctx, "capacity month imported", common.ExtractTraceIDFromCtx(ctx),
		slog.String("month", sheet.Month),
		slog.Int("rows", len(rows)),
	)

	return nil
}
