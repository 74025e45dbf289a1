package cron

import (
	"cleanny-dispatch/model"
	"context"
	"errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeOrderLister struct {
	orders []model.Order
	err    error
	filter model.OrderFilter
}

func (f *fakeOrderLister) List(_ context.Context, filter model.OrderFilter) ([]model.Order, error) {
	f.filter = filter
	return f.orders, f.err
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []int64
	recovered  []int64
	err        error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, orderID)
	return f.err
}

func (f *fakeDispatcher) Recover(_ context.Context, order model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovered = append(f.recovered, order.ID)
	return f.err
}

func (f *fakeDispatcher) calls() ([]int64, []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.dispatched...), append([]int64(nil), f.recovered...)
}

type ProposalCronTestSuite struct {
	suite.Suite

	Now        time.Time
	Cfg        *viper.Viper
	Orders     *fakeOrderLister
	Dispatcher *fakeDispatcher
	Cron       ProposalCron
}

func (s *ProposalCronTestSuite) SetupTest() {
	s.Now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	s.Cfg = viper.New()
	s.Cfg.Set("cron.proposal.interval", "1m")
	s.Cfg.Set("cron.proposal.timeout", "10s")
	s.Cfg.Set("cron.proposal.stale_after", "5m")

	s.Orders = &fakeOrderLister{}
	s.Dispatcher = &fakeDispatcher{}

	s.Cron = ProposalCron{
		Cfg:       s.Cfg,
		Orders:    s.Orders,
		Scheduler: s.Dispatcher,
		TimeNow:   func() time.Time { return s.Now },
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func TestProposalCronTestSuite(t *testing.T) {
	suite.Run(t, new(ProposalCronTestSuite))
}

func (s *ProposalCronTestSuite) TestRefresh() {
	s.Orders.orders = []model.Order{
		{ID: 1, Status: model.OrderStatusSubmitted, OrderDate: s.Now.Add(-time.Minute)},
		{ID: 2, Status: model.OrderStatusSubmitted, OrderDate: s.Now.Add(-10 * time.Minute)},
		{ID: 3, Status: model.OrderStatusPendingAssignment, OrderDate: s.Now.Add(-time.Hour)},
		{ID: 4, Status: model.OrderStatusAwaitingStaffConfirmation, OrderDate: s.Now.Add(-time.Minute)},
	}

	s.Cron.refresh(context.Background())

	dispatched, recovered := s.Dispatcher.calls()
	s.Equal([]int64{2, 3}, dispatched)
	s.Equal([]int64{4}, recovered)
	s.ElementsMatch([]model.OrderStatus{
		model.OrderStatusSubmitted,
		model.OrderStatusPendingAssignment,
		model.OrderStatusAwaitingStaffConfirmation,
	}, s.Orders.filter.Statuses)
}

func (s *ProposalCronTestSuite) TestRefreshContinuesAfterFailure() {
	s.Dispatcher.err = errors.New("redis down")
	s.Orders.orders = []model.Order{
		{ID: 5, Status: model.OrderStatusAwaitingStaffConfirmation},
		{ID: 6, Status: model.OrderStatusSubmitted, OrderDate: s.Now.Add(-time.Hour)},
	}

	s.Cron.refresh(context.Background())

	dispatched, recovered := s.Dispatcher.calls()
	s.Equal([]int64{6}, dispatched)
	s.Equal([]int64{5}, recovered)
}

func (s *ProposalCronTestSuite) TestRefreshListError() {
	s.Orders.err = errors.New("db down")

	s.Cron.refresh(context.Background())

	dispatched, recovered := s.Dispatcher.calls()
	s.Empty(dispatched)
	s.Empty(recovered)
}

func (s *ProposalCronTestSuite) TestStaleAfterDefault() {
	s.Cfg.Set("cron.proposal.stale_after", "")
	s.Equal(defaultStaleAfter, s.Cron.staleAfter())
}

func (s *ProposalCronTestSuite) TestStartRunsImmediately() {
	s.Orders.orders = []model.Order{{ID: 9, Status: model.OrderStatusAwaitingStaffConfirmation}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Cron.Start(ctx)
		close(done)
	}()

	s.Eventually(func() bool {
		_, recovered := s.Dispatcher.calls()
		return len(recovered) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
