package session

import (
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/errs"
	jetsteamMock "cleanny-dispatch/common/jetstream/mocks"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"log/slog"
	"strings"
	"testing"
	"time"
)

const testChatID = int64(42)

type fakeProfiles struct {
	customers map[int64]model.Customer
	saved     []model.Customer
	findErr   error
	saveErr   error
	nextID    int64
}

func (f *fakeProfiles) FindByChatID(_ context.Context, chatID int64) (model.Customer, error) {
	if f.findErr != nil {
		return model.Customer{}, f.findErr
	}
	c, ok := f.customers[chatID]
	if !ok {
		return model.Customer{}, errs.ErrCustomerNotFound
	}
	return c, nil
}

func (f *fakeProfiles) Save(_ context.Context, c model.Customer) (model.Customer, error) {
	if f.saveErr != nil {
		return model.Customer{}, f.saveErr
	}
	if c.ID == 0 {
		f.nextID++
		c.ID = f.nextID
	}
	f.customers[c.ChatID] = c
	f.saved = append(f.saved, c)
	return c, nil
}

type fakeOrders struct {
	created   []model.NewOrder
	createErr error
	count     int
	since     time.Time
}

func (f *fakeOrders) Create(_ context.Context, o model.NewOrder) (model.Order, error) {
	if f.createErr != nil {
		return model.Order{}, f.createErr
	}
	f.created = append(f.created, o)
	return model.Order{ID: int64(99 + len(f.created)), CustomerID: o.CustomerID, Status: model.OrderStatusSubmitted}, nil
}

func (f *fakeOrders) CountSince(_ context.Context, _ int64, since time.Time) (int, error) {
	f.since = since
	return f.count, nil
}

type fakeDiscounts struct {
	list []model.Discount
	err  error
}

func (f *fakeDiscounts) ListActive(context.Context) ([]model.Discount, error) {
	return f.list, f.err
}

func testServices() []model.Service {
	return []model.Service{
		{ID: 1, Name: "Room", Kind: model.ServiceBaseRoom, Price: decimal.NewFromInt(1500), LeadTime: 2},
		{ID: 2, Name: "Bathroom", Kind: model.ServiceBaseBathroom, Price: decimal.NewFromInt(1000), LeadTime: 1},
		{ID: 3, Name: "Extra room", Kind: model.ServiceExtraRoom, Price: decimal.NewFromInt(700), LeadTime: 1},
		{ID: 4, Name: "Extra bathroom", Kind: model.ServiceExtraBathroom, Price: decimal.NewFromInt(500), LeadTime: 0.5},
		{ID: 5, Name: "Windows", Kind: model.ServiceAddon, Price: decimal.NewFromInt(800), LeadTime: 1.5},
	}
}

type SessionTestSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	publisher *jetsteamMock.MockPublisher
	profiles  *fakeProfiles
	orders    *fakeOrders
	discounts *fakeDiscounts
	machine   *Machine
	now       time.Time
}

func (s *SessionTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.publisher = jetsteamMock.NewMockPublisher(s.ctrl)
	s.profiles = &fakeProfiles{customers: make(map[int64]model.Customer)}
	s.orders = &fakeOrders{}
	s.discounts = &fakeDiscounts{
		list: []model.Discount{
			{ID: 1, MinFrequency: 1, Percent: 5, Active: true},
			{ID: 2, MinFrequency: 3, Percent: 10, Active: true},
		},
	}
	s.now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	s.machine = &Machine{
		Registry:  NewRegistry(16, time.Hour),
		Catalog:   testServices,
		Profiles:  s.profiles,
		Orders:    s.orders,
		Discounts: s.discounts,
		Publisher: s.publisher,
		Validate:  validator.New(),
		TimeNow:   func() time.Time { return s.now },
	}

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *SessionTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) send(kind InputKind, value string) Reply {
	reply, err := s.machine.Handle(context.Background(), testChatID, Input{Kind: kind, Value: value})
	s.Require().NoError(err)
	return reply
}

func (s *SessionTestSuite) assertPrice(want string, reply Reply) {
	s.Require().NotNil(reply.Draft)
	s.True(decimal.RequireFromString(want).Equal(reply.Draft.Quote.Price), "price %s, want %s", reply.Draft.Quote.Price, want)
}

// toOptions walks a fresh session to PickingOptions with a 11:30 slot tomorrow.
func (s *SessionTestSuite) toOptions() {
	s.send(InputStart, "")
	s.send(InputCalculate, "")
	s.send(InputPickDate, "2026-10-16")
	s.send(InputHourUp, "")
	s.send(InputHourUp, "")
	s.send(InputMinuteUp, "")
	reply := s.send(InputConfirmTime, "")
	s.Require().Equal(StatePickingOptions, reply.State)
}

func (s *SessionTestSuite) fillProfile() {
	for _, text := range []string{"Ivan", "Ivanov", "Ivanovich", "Lenina 1", "+79991234567", "ivan@example.com"} {
		s.send(InputText, text)
	}
}

func (s *SessionTestSuite) TestFullFlow() {
	reply := s.send(InputStart, "")
	s.Equal(StatePricing, reply.State)
	s.Equal(PromptRooms, reply.Prompt)
	s.assertPrice("2500", reply)

	s.send(InputAddRoom, "")
	s.send(InputAddRoom, "")
	reply = s.send(InputAddBathroom, "")
	s.assertPrice("4400", reply)

	reply = s.send(InputRemoveRoom, "")
	s.assertPrice("3700", reply)
	s.send(InputRemoveRoom, "")

	reply = s.send(InputRemoveRoom, "")
	s.False(reply.Ignored)
	s.Equal(1, reply.Draft.Rooms)
	s.assertPrice("3000", reply)

	reply = s.send(InputCalculate, "")
	s.Equal(StatePickingDate, reply.State)

	reply = s.send(InputPickDate, "2026-10-16")
	s.Equal(StatePickingTime, reply.State)
	s.Equal(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), reply.Draft.AppointmentAt)

	s.send(InputHourUp, "")
	s.send(InputHourUp, "")
	reply = s.send(InputMinuteUp, "")
	s.Equal(time.Date(2026, 10, 16, 11, 30, 0, 0, time.UTC), reply.Draft.AppointmentAt)

	reply = s.send(InputConfirmTime, "")
	s.Equal(StatePickingOptions, reply.State)

	reply = s.send(InputToggleAddon, "5")
	s.assertPrice("3800", reply)
	s.InDelta(5.0, reply.Draft.Quote.Duration, 1e-9)

	reply = s.send(InputConfirmOptions, "")
	s.Equal(StateConfirmingProfile, reply.State)
	s.Equal(PromptProfileField, reply.Prompt)
	s.Equal(model.FieldFirstName, reply.Field)

	s.send(InputText, "Ivan")
	s.send(InputText, "Ivanov")
	s.send(InputText, "Ivanovich")
	reply = s.send(InputText, "Lenina 1")
	s.Equal(model.FieldPhone, reply.Field)

	reply = s.send(InputText, "not a phone")
	s.Equal(PromptProfileField, reply.Prompt)
	s.Equal(model.FieldPhone, reply.Field)

	reply = s.send(InputText, "+79991234567")
	s.Equal(model.FieldEmail, reply.Field)

	reply = s.send(InputText, "   ")
	s.Equal(model.FieldEmail, reply.Field)

	reply = s.send(InputText, "ivan@example.com")
	s.Equal(PromptConfirmProfile, reply.Prompt)
	s.Require().Len(s.profiles.saved, 1)
	s.Equal("Ivanov Ivan Ivanovich", s.profiles.saved[0].FullName())

	reply = s.send(InputConfirmProfile, "")
	s.Equal(StatePickingPayment, reply.State)

	s.orders.count = 3
	reply = s.send(InputPickPayment, string(model.PaymentCash))
	s.Equal(PromptCheckout, reply.Prompt)
	s.Equal(int32(10), reply.Draft.DiscountPercent)
	s.True(decimal.NewFromInt(3420).Equal(reply.Draft.FinalPrice))
	s.Equal(s.now.Add(-constant.DiscountLookback), s.orders.since)

	reply = s.send(InputPickPayment, string(model.PaymentCardLink))
	s.True(decimal.NewFromInt(3420).Equal(reply.Draft.FinalPrice), "discount must not compound")

	s.publisher.EXPECT().Publish(gomock.Any(), constant.SubjectOrderSubmitted, []byte(`{"id":100}`)).Return(nil, nil)

	reply = s.send(InputCheckout, "")
	s.Equal(StateSubmitted, reply.State)
	s.Equal(PromptSubmitted, reply.Prompt)
	s.Equal(int64(100), reply.OrderID)
	s.Nil(reply.Draft)

	s.Require().Len(s.orders.created, 1)
	created := s.orders.created[0]
	s.Equal(int64(1), created.CustomerID)
	s.Equal("Lenina 1", created.Address)
	s.Equal(model.PaymentCardLink, created.Payment)
	s.Equal(time.Date(2026, 10, 16, 11, 30, 0, 0, time.UTC), created.AppointmentAt)
	s.True(decimal.NewFromInt(3420).Equal(created.TotalPrice))
	s.Require().NotNil(created.DiscountID)
	s.Equal(int64(2), *created.DiscountID)
	s.Equal([]model.OrderLine{
		{ServiceID: 1, Quantity: 1},
		{ServiceID: 2, Quantity: 1},
		{ServiceID: 4, Quantity: 1},
		{ServiceID: 5, Quantity: 1},
	}, created.Lines)

	reply = s.send(InputCheckout, "")
	s.True(reply.Ignored)
	s.Equal(StateSubmitted, reply.State)
}

func (s *SessionTestSuite) TestUnexpectedInputIsIgnored() {
	reply := s.send(InputAddRoom, "")
	s.True(reply.Ignored)
	s.Equal(StateIdle, reply.State)
	s.Empty(reply.Prompt)

	s.send(InputStart, "")
	s.send(InputCalculate, "")

	for _, kind := range []InputKind{InputAddRoom, InputConfirmTime, InputCheckout, InputText, InputStart} {
		reply = s.send(kind, "1")
		s.True(reply.Ignored, string(kind))
		s.Equal(StatePickingDate, reply.State)
		s.Empty(reply.Prompt)
	}
}

func (s *SessionTestSuite) TestUnknownInput() {
	_, err := s.machine.Handle(context.Background(), testChatID, Input{Kind: "teleport"})
	s.ErrorIs(err, ErrUnknownInput)
}

func (s *SessionTestSuite) TestReset() {
	s.toOptions()

	reply := s.send(InputReset, "")
	s.Equal(StateIdle, reply.State)
	s.Equal(PromptWelcome, reply.Prompt)

	reply = s.send(InputToggleAddon, "5")
	s.True(reply.Ignored)
}

func (s *SessionTestSuite) TestDateBounds() {
	s.send(InputStart, "")
	s.send(InputCalculate, "")

	for _, value := range []string{"2026-10-14", "2027-01-14", "tomorrow"} {
		reply := s.send(InputPickDate, value)
		s.Equal(StatePickingDate, reply.State, value)
		s.Equal(PromptDate, reply.Prompt, value)
	}

	reply := s.send(InputPickDate, "2027-01-13")
	s.Equal(StatePickingTime, reply.State)
}

func (s *SessionTestSuite) TestTimeBounds() {
	s.send(InputStart, "")
	s.send(InputCalculate, "")
	s.send(InputPickDate, "2026-10-15")

	reply := s.send(InputHourDown, "")
	s.Equal(9*60, reply.Draft.Minutes)
	reply = s.send(InputMinuteDown, "")
	s.Equal(9*60, reply.Draft.Minutes)

	// 09:00 today is already in the past
	reply = s.send(InputConfirmTime, "")
	s.Equal(StatePickingTime, reply.State)
	s.Equal(PromptTime, reply.Prompt)

	for i := 0; i < 9; i++ {
		s.send(InputHourUp, "")
	}

	reply = s.send(InputMinuteUp, "")
	s.Equal(18*60, reply.Draft.Minutes)
	reply = s.send(InputHourUp, "")
	s.Equal(18*60, reply.Draft.Minutes)

	reply = s.send(InputMinuteDown, "")
	s.Equal(17*60+30, reply.Draft.Minutes)
	reply = s.send(InputHourUp, "")
	s.Equal(17*60+30, reply.Draft.Minutes)

	reply = s.send(InputConfirmTime, "")
	s.Equal(StatePickingOptions, reply.State)
	s.Equal(time.Date(2026, 10, 15, 17, 30, 0, 0, time.UTC), reply.Draft.AppointmentAt)
}

func (s *SessionTestSuite) TestToggleAddon() {
	s.toOptions()

	reply := s.send(InputToggleAddon, "5")
	s.assertPrice("3300", reply)

	reply = s.send(InputToggleAddon, "5")
	s.assertPrice("2500", reply)
	s.Empty(reply.Draft.Addons)

	reply = s.send(InputToggleAddon, "3")
	s.assertPrice("2500", reply)
	s.Equal(PromptOptions, reply.Prompt)
}

func (s *SessionTestSuite) TestExistingProfileEdit() {
	s.profiles.customers[testChatID] = model.Customer{
		ID: 7, ChatID: testChatID, FirstName: "Anna", LastName: "Petrova", Patronymic: "Sergeevna",
		Address: "Mira 5", Phone: "+79990000000", Email: "anna@example.com",
	}
	s.toOptions()

	reply := s.send(InputConfirmOptions, "")
	s.Equal(PromptConfirmProfile, reply.Prompt)

	reply = s.send(InputEditField, "nickname")
	s.Equal(PromptConfirmProfile, reply.Prompt)

	reply = s.send(InputEditField, string(model.FieldEmail))
	s.Equal(PromptProfileField, reply.Prompt)
	s.Equal(model.FieldEmail, reply.Field)

	reply = s.send(InputConfirmProfile, "")
	s.Equal(StateConfirmingProfile, reply.State)

	reply = s.send(InputText, "anna.p@example.com")
	s.Equal(PromptConfirmProfile, reply.Prompt)
	s.Require().Len(s.profiles.saved, 1)
	s.Equal(int64(7), s.profiles.saved[0].ID)
	s.Equal("anna.p@example.com", s.profiles.saved[0].Email)
	s.Equal("Mira 5", s.profiles.saved[0].Address)

	reply = s.send(InputConfirmProfile, "")
	s.Equal(StatePickingPayment, reply.State)

	reply = s.send(InputPickPayment, "barter")
	s.Equal(PromptPayment, reply.Prompt)

	reply = s.send(InputPickPayment, string(model.PaymentOnlineBanking))
	s.Equal(int32(0), reply.Draft.DiscountPercent)
	s.Nil(reply.Draft.DiscountID)
	s.True(decimal.NewFromInt(2500).Equal(reply.Draft.FinalPrice))
}

func (s *SessionTestSuite) TestProfileLookupError() {
	s.toOptions()
	s.profiles.findErr = errors.New("connection reset")

	reply := s.send(InputConfirmOptions, "")
	s.Equal(PromptRetryLater, reply.Prompt)
	s.Equal(StatePickingOptions, reply.State)
}

func (s *SessionTestSuite) TestCheckoutRepositoryFailure() {
	s.toOptions()
	s.send(InputConfirmOptions, "")
	s.fillProfile()
	s.send(InputConfirmProfile, "")
	s.send(InputPickPayment, string(model.PaymentCash))

	s.orders.createErr = errors.New("insert failed")
	reply := s.send(InputCheckout, "")
	s.Equal(PromptRetryLater, reply.Prompt)
	s.Equal(StatePickingPayment, reply.State)
	s.Empty(s.orders.created)

	s.orders.createErr = nil
	s.publisher.EXPECT().Publish(gomock.Any(), constant.SubjectOrderSubmitted, gomock.Any()).Return(nil, errors.New("nats down"))

	reply = s.send(InputCheckout, "")
	s.Equal(StateSubmitted, reply.State)
	s.Len(s.orders.created, 1)
}

func (s *SessionTestSuite) TestCatalogNotReady() {
	s.machine.Catalog = func() []model.Service { return nil }

	reply := s.send(InputStart, "")
	s.Equal(StateIdle, reply.State)
	s.Equal(PromptRetryLater, reply.Prompt)
}

func (s *SessionTestSuite) TestSeparateCustomers() {
	s.send(InputStart, "")

	reply, err := s.machine.Handle(context.Background(), testChatID+1, Input{Kind: InputAddRoom})
	s.Require().NoError(err)
	s.True(reply.Ignored)

	reply = s.send(InputAddRoom, "")
	s.False(reply.Ignored)
	s.Equal(2, s.machine.Registry.Len())
}

func TestRegistrySize(t *testing.T) {
	r := NewRegistry(2, time.Hour)
	for _, id := range []int64{1, 2, 3} {
		e := r.acquire(id)
		e.mu.Unlock()
	}

	if r.Len() != 2 {
		t.Fatalf("expected 2 live sessions, got %d", r.Len())
	}

	e := r.acquire(3)
	defer e.mu.Unlock()
	if !strings.EqualFold(e.state.String(), "idle") {
		t.Fatalf("expected idle, got %s", e.state)
	}
}
