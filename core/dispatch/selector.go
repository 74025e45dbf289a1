package dispatch

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoCandidate       = errors.New("no eligible candidate")
	ErrOutsideWorkingDay = errors.New("execution ends after the working day")
)

type CapacitySource interface {
	MonthRows(ctx context.Context, month time.Time) ([]model.CapacityRow, error)
}

type StaffDirectory interface {
	List(ctx context.Context) ([]model.Staff, error)
	Get(ctx context.Context, id int64) (model.Staff, error)
}

type Limits struct {
	WeeklyCap   int
	DailyCap    int
	TravelHours float64
	DayEndHour  int
}

func DefaultLimits() Limits {
	return Limits{
		WeeklyCap:   constant.DefaultWeeklyCapHours,
		DailyCap:    constant.DefaultDailyCapHours,
		TravelHours: constant.DefaultTravelHours,
		DayEndHour:  constant.DefaultDayEndHour,
	}
}

// Selector turns the capacity schedule into the pool of staff an order may be
// offered to.
type Selector struct {
	Capacity CapacitySource
	Staff    StaffDirectory
	Limits   Limits

	// Pick returns a uniform index in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// RequiredHours is the task duration plus travel.
func (s Selector) RequiredHours(duration float64) float64 {
	return duration + s.Limits.TravelHours
}

// Pool returns the eligible candidates for an execution starting at `at`
// and lasting `required` hours. Staff with nothing booked that day are
// preferred; otherwise anyone working who still fits under the daily cap.
func (s Selector) Pool(ctx context.Context, at time.Time, required float64) ([]model.Candidate, error) {
	dayEnd := time.Date(at.Year(), at.Month(), at.Day(), s.Limits.DayEndHour, 0, 0, 0, at.Location())
	if at.Add(time.Duration(required * float64(time.Hour))).After(dayEnd) {
		return nil, ErrOutsideWorkingDay
	}

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	rows, err := s.Capacity.MonthRows(ctx, at)
	if err != nil {
		slog.WarnContext(ctx, "capacity source unavailable", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return nil, fmt.Errorf("%w: %w", ErrNoCandidate, err)
	}

	if len(rows) == 0 {
		return nil, ErrNoCandidate
	}

	staff, err := s.Staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	byName := make(map[string]model.Staff, len(staff))
	for _, st := range staff {
		byName[normalizeName(st.DisplayName())] = st
	}

	day := at.Day()
	weekFrom, weekTo := weekBounds(at)

	var free, active []model.Candidate
	for _, row := range rows {
		member, ok := byName[normalizeName(row.StaffName)]
		if !ok {
			slog.WarnContext(ctx, "capacity row without staff record", traceIdAttr, slog.String("name", row.StaffName))
			continue
		}

		today, working := cellHours(row.Cells, day)
		if !working {
			continue
		}

		week := 0
		for d := weekFrom; d <= weekTo; d++ {
			if h, ok := cellHours(row.Cells, d); ok {
				week += h
			}
		}

		c := model.Candidate{
			StaffID:    member.ID,
			Name:       member.DisplayName(),
			HoursToday: today,
			HoursWeek:  week,
			Required:   required,
		}

		if float64(week)+required > float64(s.Limits.WeeklyCap) {
			continue
		}

		c.Free = today == 0
		c.Active = today < s.Limits.DailyCap

		if c.Free {
			free = append(free, c)
		}
		if c.Active && float64(today)+required <= float64(s.Limits.DailyCap) {
			active = append(active, c)
		}
	}

	if len(free) > 0 {
		return free, nil
	}

	if len(active) > 0 {
		return active, nil
	}

	return nil, ErrNoCandidate
}

// Choose picks one candidate uniformly at random, skipping excluded staff.
func (s Selector) Choose(pool []model.Candidate, exclude []int64) (model.Candidate, error) {
	eligible := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if !containsID(exclude, c.StaffID) {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		return model.Candidate{}, ErrNoCandidate
	}

	pick := s.Pick
	if pick == nil {
		pick = rand.IntN
	}

	return eligible[pick(len(eligible))], nil
}

// cellHours reads the cell for a 1-based day. Only a non-negative integer
// means the person works that day.
func cellHours(cells []string, day int) (int, bool) {
	if day < 1 || day > len(cells) {
		return 0, false
	}

	h, err := strconv.Atoi(strings.TrimSpace(cells[day-1]))
	if err != nil || h < 0 {
		return 0, false
	}

	return h, true
}

// weekBounds returns the first and last day of month of the Monday to Sunday
// week containing t, clipped to t's month.
func weekBounds(t time.Time) (int, int) {
	offset := (int(t.Weekday()) + 6) % 7
	from := t.Day() - offset
	to := from + 6

	lastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()

	return max(from, 1), min(to, lastDay)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
