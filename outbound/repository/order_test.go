package repository

import (
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/model"
	"context"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"log/slog"
	"testing"
	"time"
)

var orderColumns = []string{
	"id", "customer_id", "staff_id", "appointment_at", "total_price", "total_time",
	"status", "address", "payment", "order_date", "discount_id",
}

type OrderRepositoryTestSuite struct {
	suite.Suite
	PgxMock     pgxmock.PgxPoolIface
	repo        *OrderRepository
	appointment time.Time
	orderDate   time.Time
}

func (s *OrderRepositoryTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	if err != nil {
		s.T().Fatalf("failed to create pgxmock pool: %v", err)
	}

	s.PgxMock = pool
	s.repo = NewOrderRepository(pool)
	s.appointment = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	s.orderDate = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *OrderRepositoryTestSuite) TearDownTest() {
	s.PgxMock.Close()
}

func TestOrderRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryTestSuite))
}

func (s *OrderRepositoryTestSuite) orderRows(status string, staff pgtype.Int8) *pgxmock.Rows {
	return pgxmock.NewRows(orderColumns).AddRow(
		int64(7), int64(3), staff, s.appointment, decimal.RequireFromString("3420.00"), float64(3.5),
		status, "Lenina 1, apt 5", "cash", s.orderDate, pgtype.Int8{Int64: 2, Valid: true},
	)
}

func (s *OrderRepositoryTestSuite) TestCreate() {
	discountID := int64(2)
	input := model.NewOrder{
		CustomerID:    3,
		AppointmentAt: s.appointment,
		TotalPrice:    decimal.RequireFromString("3420"),
		TotalTime:     3.5000001,
		Address:       "Lenina 1, apt 5",
		Payment:       model.PaymentCash,
		OrderDate:     s.orderDate,
		DiscountID:    &discountID,
		Lines: []model.OrderLine{
			{ServiceID: 1, Quantity: 1},
			{ServiceID: 5, Quantity: 2},
		},
	}

	insertArgs := []any{
		int64(3), s.appointment, pgxmock.AnyArg(), float64(3.5),
		"Lenina 1, apt 5", "cash", s.orderDate, pgtype.Int8{Int64: 2, Valid: true},
	}

	testCases := []struct {
		name        string
		setupMock   func()
		expectError bool
	}{
		{
			name: "begin error",
			setupMock: func() {
				s.PgxMock.ExpectBegin().WillReturnError(fmt.Errorf("begin error"))
			},
			expectError: true,
		},
		{
			name: "insert order error",
			setupMock: func() {
				s.PgxMock.ExpectBegin()
				s.PgxMock.ExpectQuery("INSERT INTO orders").
					WithArgs(insertArgs...).
					WillReturnError(fmt.Errorf("insert error"))
				s.PgxMock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name: "insert line item error",
			setupMock: func() {
				s.PgxMock.ExpectBegin()
				s.PgxMock.ExpectQuery("INSERT INTO orders").
					WithArgs(insertArgs...).
					WillReturnRows(s.orderRows("submitted", pgtype.Int8{}))
				s.PgxMock.ExpectExec("INSERT INTO order_services").
					WithArgs(int64(7), int64(1), int32(1)).
					WillReturnError(fmt.Errorf("line error"))
				s.PgxMock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name: "commit error",
			setupMock: func() {
				s.PgxMock.ExpectBegin()
				s.PgxMock.ExpectQuery("INSERT INTO orders").
					WithArgs(insertArgs...).
					WillReturnRows(s.orderRows("submitted", pgtype.Int8{}))
				s.PgxMock.ExpectExec("INSERT INTO order_services").
					WithArgs(int64(7), int64(1), int32(1)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				s.PgxMock.ExpectExec("INSERT INTO order_services").
					WithArgs(int64(7), int64(5), int32(2)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				s.PgxMock.ExpectCommit().WillReturnError(fmt.Errorf("commit error"))
				s.PgxMock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name: "success",
			setupMock: func() {
				s.PgxMock.ExpectBegin()
				s.PgxMock.ExpectQuery("INSERT INTO orders").
					WithArgs(insertArgs...).
					WillReturnRows(s.orderRows("submitted", pgtype.Int8{}))
				s.PgxMock.ExpectExec("INSERT INTO order_services").
					WithArgs(int64(7), int64(1), int32(1)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				s.PgxMock.ExpectExec("INSERT INTO order_services").
					WithArgs(int64(7), int64(5), int32(2)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				s.PgxMock.ExpectCommit()
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			tc.setupMock()

			order, err := s.repo.Create(context.Background(), input)
			if tc.expectError {
				s.Error(err)
			} else {
				s.Require().NoError(err)
				s.Equal(int64(7), order.ID)
				s.Equal(model.OrderStatusSubmitted, order.Status)
				s.Nil(order.StaffID)
				s.Require().NotNil(order.DiscountID)
				s.Equal(int64(2), *order.DiscountID)
				s.Equal("3420.00", order.TotalPrice.StringFixed(2))
				s.Equal(model.PaymentCash, order.Payment)
			}

			s.NoError(s.PgxMock.ExpectationsWereMet())
		})
	}
}

func (s *OrderRepositoryTestSuite) TestGet() {
	s.Run("found", func() {
		s.PgxMock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(s.orderRows("assigned", pgtype.Int8{Int64: 4, Valid: true}))

		order, err := s.repo.Get(context.Background(), 7)
		s.Require().NoError(err)
		s.Equal(model.OrderStatusAssigned, order.Status)
		s.Require().NotNil(order.StaffID)
		s.Equal(int64(4), *order.StaffID)
		s.Equal(s.appointment, order.AppointmentAt)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("not found", func() {
		s.PgxMock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1").
			WithArgs(int64(8)).
			WillReturnError(pgx.ErrNoRows)

		_, err := s.repo.Get(context.Background(), 8)
		s.True(errs.Is(err, errs.ErrOrderNotFound))
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("driver error", func() {
		s.PgxMock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1").
			WithArgs(int64(9)).
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := s.repo.Get(context.Background(), 9)
		s.Error(err)
		s.False(errs.Is(err, errs.ErrOrderNotFound))
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})
}

func (s *OrderRepositoryTestSuite) TestUpdate() {
	completed := model.OrderStatusCompleted
	assigned := model.OrderStatusAssigned

	s.Run("updates while status matches", func() {
		s.PgxMock.ExpectQuery("UPDATE orders").
			WithArgs(
				pgtype.Text{String: "completed", Valid: true},
				pgtype.Text{},
				pgtype.Text{},
				int64(7),
				pgtype.Text{String: "assigned", Valid: true},
			).
			WillReturnRows(s.orderRows("completed", pgtype.Int8{Int64: 4, Valid: true}))

		order, err := s.repo.Update(context.Background(), 7, model.OrderUpdate{Status: &completed, ExpectStatus: &assigned})
		s.Require().NoError(err)
		s.Equal(model.OrderStatusCompleted, order.Status)
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})

	s.Run("status moved on", func() {
		s.PgxMock.ExpectQuery("UPDATE orders").
			WithArgs(
				pgtype.Text{String: "completed", Valid: true},
				pgtype.Text{},
				pgtype.Text{},
				int64(7),
				pgtype.Text{String: "assigned", Valid: true},
			).
			WillReturnError(pgx.ErrNoRows)

		_, err := s.repo.Update(context.Background(), 7, model.OrderUpdate{Status: &completed, ExpectStatus: &assigned})
		s.True(errs.Is(err, errs.ErrOrderNotUpdated))
		s.NoError(s.PgxMock.ExpectationsWereMet())
	})
}

func (s *OrderRepositoryTestSuite) TestList() {
	customerID := int64(3)

	s.PgxMock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(pgtype.Int8{}, []string{"escalated"}, int32(100)).
		WillReturnRows(s.orderRows("escalated", pgtype.Int8{}))

	orders, err := s.repo.List(context.Background(), model.OrderFilter{Statuses: []model.OrderStatus{model.OrderStatusEscalated}})
	s.Require().NoError(err)
	s.Len(orders, 1)
	s.Equal(model.OrderStatusEscalated, orders[0].Status)

	s.PgxMock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(pgtype.Int8{Int64: 3, Valid: true}, []string{}, int32(5)).
		WillReturnRows(pgxmock.NewRows(orderColumns))

	orders, err = s.repo.List(context.Background(), model.OrderFilter{CustomerID: &customerID, Limit: 5})
	s.Require().NoError(err)
	s.Empty(orders)

	s.PgxMock.ExpectQuery("SELECT (.+) FROM orders").
		WithArgs(pgtype.Int8{}, []string{}, int32(100)).
		WillReturnError(fmt.Errorf("list error"))

	_, err = s.repo.List(context.Background(), model.OrderFilter{})
	s.Error(err)

	s.NoError(s.PgxMock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestCountSince() {
	since := s.orderDate.AddDate(0, 0, -30)

	s.PgxMock.ExpectQuery("SELECT count\\(\\*\\)").
		WithArgs(int64(3), since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	count, err := s.repo.CountSince(context.Background(), 3, since)
	s.Require().NoError(err)
	s.Equal(4, count)
	s.NoError(s.PgxMock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestAssignStaff() {
	from := []model.OrderStatus{model.OrderStatusAwaitingStaffConfirmation}

	testCases := []struct {
		name        string
		setupMock   func()
		expected    bool
		expectError bool
	}{
		{
			name: "assigned",
			setupMock: func() {
				s.PgxMock.ExpectExec("UPDATE orders SET staff_id (.+) staff_id IS NULL").
					WithArgs(int64(7), pgtype.Int8{Int64: 2, Valid: true}, []string{"awaiting_staff_confirmation"}).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			expected: true,
		},
		{
			name: "already assigned",
			setupMock: func() {
				s.PgxMock.ExpectExec("UPDATE orders SET staff_id (.+) staff_id IS NULL").
					WithArgs(int64(7), pgtype.Int8{Int64: 2, Valid: true}, []string{"awaiting_staff_confirmation"}).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			expected: false,
		},
		{
			name: "driver error",
			setupMock: func() {
				s.PgxMock.ExpectExec("UPDATE orders SET staff_id (.+) staff_id IS NULL").
					WithArgs(int64(7), pgtype.Int8{Int64: 2, Valid: true}, []string{"awaiting_staff_confirmation"}).
					WillReturnError(fmt.Errorf("update error"))
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			tc.setupMock()

			ok, err := s.repo.AssignStaff(context.Background(), 7, 2, from)
			if tc.expectError {
				s.Error(err)
			} else {
				s.NoError(err)
			}
			s.Equal(tc.expected, ok)
			s.NoError(s.PgxMock.ExpectationsWereMet())
		})
	}
}

func (s *OrderRepositoryTestSuite) TestTransitionUnassigned() {
	from := []model.OrderStatus{model.OrderStatusSubmitted, model.OrderStatusPendingAssignment}

	s.PgxMock.ExpectExec("UPDATE orders SET status (.+) staff_id IS NULL").
		WithArgs(int64(7), "escalated", []string{"submitted", "pending_assignment"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := s.repo.TransitionUnassigned(context.Background(), 7, from, model.OrderStatusEscalated)
	s.NoError(err)
	s.True(ok)

	s.PgxMock.ExpectExec("UPDATE orders SET status (.+) staff_id IS NULL").
		WithArgs(int64(7), "escalated", []string{"submitted", "pending_assignment"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err = s.repo.TransitionUnassigned(context.Background(), 7, from, model.OrderStatusEscalated)
	s.NoError(err)
	s.False(ok)

	s.NoError(s.PgxMock.ExpectationsWereMet())
}

func (s *OrderRepositoryTestSuite) TestHistory() {
	taken := []model.OrderStatus{model.OrderStatusAssigned, model.OrderStatusCompleted}

	rows := pgxmock.NewRows([]string{"id", "appointment_at", "total_price", "status", "staff_name"}).
		AddRow(int64(9), s.appointment, decimal.RequireFromString("2500"), "assigned", "Ivanova Anna").
		AddRow(int64(7), s.appointment.AddDate(0, 0, -7), decimal.RequireFromString("3420"), "completed", "")

	s.PgxMock.ExpectQuery("WHERE c.chat_id = \\$1 AND o.status = ANY \\(\\$2::text\\[\\]\\) ORDER BY o.order_date DESC LIMIT \\$3").
		WithArgs(int64(42), []string{"assigned", "completed"}, int32(100)).
		WillReturnRows(rows)

	items, err := s.repo.History(context.Background(), 42, taken, 0)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("Ivanova Anna", items[0].StaffName)
	s.Equal(model.OrderStatusCompleted, items[1].Status)
	s.Empty(items[1].StaffName)
	s.NoError(s.PgxMock.ExpectationsWereMet())
}
