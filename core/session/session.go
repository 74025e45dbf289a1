package session

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/contract"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/core/pricing"
	"cleanny-dispatch/model"
	"context"
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrUnknownInput = errors.New("unknown session input")

type State int

const (
	StateIdle State = iota
	StatePricing
	StatePickingDate
	StatePickingTime
	StatePickingOptions
	StateConfirmingProfile
	StatePickingPayment
	StateSubmitted
)

var stateNames = [...]string{
	"idle",
	"pricing",
	"picking_date",
	"picking_time",
	"picking_options",
	"confirming_profile",
	"picking_payment",
	"submitted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

type InputKind string

const (
	InputStart          InputKind = "start"
	InputReset          InputKind = "reset"
	InputAddRoom        InputKind = "room_inc"
	InputRemoveRoom     InputKind = "room_dec"
	InputAddBathroom    InputKind = "bathroom_inc"
	InputRemoveBathroom InputKind = "bathroom_dec"
	InputCalculate      InputKind = "calculate"
	InputPickDate       InputKind = "pick_date"
	InputHourUp         InputKind = "hour_up"
	InputHourDown       InputKind = "hour_down"
	InputMinuteUp       InputKind = "minute_up"
	InputMinuteDown     InputKind = "minute_down"
	InputConfirmTime    InputKind = "confirm_time"
	InputToggleAddon    InputKind = "toggle_addon"
	InputConfirmOptions InputKind = "confirm_options"
	InputText           InputKind = "text"
	InputEditField      InputKind = "edit_field"
	InputConfirmProfile InputKind = "confirm_profile"
	InputPickPayment    InputKind = "pick_payment"
	InputCheckout       InputKind = "checkout"
)

// expected lists the states each input is accepted in. Anything else is
// dropped without a reply prompt.
var expected = map[InputKind][]State{
	InputStart:          {StateIdle, StateSubmitted},
	InputAddRoom:        {StatePricing},
	InputRemoveRoom:     {StatePricing},
	InputAddBathroom:    {StatePricing},
	InputRemoveBathroom: {StatePricing},
	InputCalculate:      {StatePricing},
	InputPickDate:       {StatePickingDate},
	InputHourUp:         {StatePickingTime},
	InputHourDown:       {StatePickingTime},
	InputMinuteUp:       {StatePickingTime},
	InputMinuteDown:     {StatePickingTime},
	InputConfirmTime:    {StatePickingTime},
	InputToggleAddon:    {StatePickingOptions},
	InputConfirmOptions: {StatePickingOptions},
	InputText:           {StateConfirmingProfile},
	InputEditField:      {StateConfirmingProfile},
	InputConfirmProfile: {StateConfirmingProfile},
	InputPickPayment:    {StatePickingPayment},
	InputCheckout:       {StatePickingPayment},
}

type Input struct {
	Kind  InputKind
	Value string
}

type Prompt string

const (
	PromptWelcome        Prompt = "welcome"
	PromptRooms          Prompt = "rooms"
	PromptDate           Prompt = "date"
	PromptTime           Prompt = "time"
	PromptOptions        Prompt = "options"
	PromptProfileField   Prompt = "profile_field"
	PromptConfirmProfile Prompt = "confirm_profile"
	PromptPayment        Prompt = "payment"
	PromptCheckout       Prompt = "checkout"
	PromptSubmitted      Prompt = "submitted"
	PromptRetryLater     Prompt = "retry_later"
)

type Reply struct {
	State   State
	Prompt  Prompt
	Field   model.ProfileField
	Ignored bool
	Draft   *Draft
	OrderID int64
}

// Draft is the in-progress order of one session.
type Draft struct {
	Rooms     int
	Bathrooms int
	Addons    map[int64]int

	Day           time.Time
	Minutes       int
	AppointmentAt time.Time

	Quote           pricing.Quote
	Payment         model.PaymentMethod
	DiscountID      *int64
	DiscountPercent int32
	FinalPrice      decimal.Decimal

	catalog pricing.Catalog
}

func (d *Draft) snapshot() *Draft {
	cp := *d
	cp.Addons = maps.Clone(d.Addons)
	return &cp
}

func (d *Draft) requote() error {
	q, err := d.catalog.Quote(d.Rooms, d.Bathrooms, d.Addons)
	if err != nil {
		return err
	}
	d.Quote = q
	// a changed base price invalidates any earlier payment pick
	d.Payment = ""
	d.DiscountID = nil
	d.DiscountPercent = 0
	d.FinalPrice = decimal.Zero
	return nil
}

func (d *Draft) slot() time.Time {
	return time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), d.Minutes/60, d.Minutes%60, 0, 0, d.Day.Location())
}

type Profiles interface {
	FindByChatID(ctx context.Context, chatID int64) (model.Customer, error)
	Save(ctx context.Context, customer model.Customer) (model.Customer, error)
}

type Orders interface {
	Create(ctx context.Context, order model.NewOrder) (model.Order, error)
	CountSince(ctx context.Context, customerID int64, since time.Time) (int, error)
}

type Discounts interface {
	ListActive(ctx context.Context) ([]model.Discount, error)
}

// Machine drives the per-customer draft from the first input to submission.
type Machine struct {
	Registry  *Registry
	Catalog   func() []model.Service
	Profiles  Profiles
	Orders    Orders
	Discounts Discounts
	Publisher contract.Publisher
	Validate  *validator.Validate

	TimeNow func() time.Time
	Horizon time.Duration
}

func (m *Machine) Handle(ctx context.Context, chatID int64, in Input) (Reply, error) {
	states, known := expected[in.Kind]
	if !known && in.Kind != InputReset {
		return Reply{}, ErrUnknownInput
	}

	ctx, span := otel.Tracer.Start(ctx, "session.Handle")
	defer span.End()

	span.SetAttributes(attribute.String("session.input", string(in.Kind)))

	e := m.Registry.acquire(chatID)
	defer e.mu.Unlock()

	if in.Kind == InputReset {
		e.reset()
		return Reply{State: e.state, Prompt: PromptWelcome}, nil
	}

	if !slices.Contains(states, e.state) || (in.Kind == InputText && e.field == "") {
		slog.DebugContext(ctx, "session input ignored",
			common.ExtractTraceIDFromCtx(ctx),
			slog.Int64(constant.LogFieldCustomerId, chatID),
			slog.String("input", string(in.Kind)),
			slog.String("state", e.state.String()),
		)
		return Reply{State: e.state, Ignored: true}, nil
	}

	value := strings.TrimSpace(in.Value)

	switch in.Kind {
	case InputStart:
		return m.start(ctx, e), nil
	case InputAddRoom:
		return m.changeCounts(ctx, e, 1, 0), nil
	case InputRemoveRoom:
		return m.changeCounts(ctx, e, -1, 0), nil
	case InputAddBathroom:
		return m.changeCounts(ctx, e, 0, 1), nil
	case InputRemoveBathroom:
		return m.changeCounts(ctx, e, 0, -1), nil
	case InputCalculate:
		e.state = StatePickingDate
		return m.reply(e, PromptDate), nil
	case InputPickDate:
		return m.pickDate(e, value), nil
	case InputHourUp:
		return m.moveTime(e, 60), nil
	case InputHourDown:
		return m.moveTime(e, -60), nil
	case InputMinuteUp:
		return m.moveTime(e, 30), nil
	case InputMinuteDown:
		return m.moveTime(e, -30), nil
	case InputConfirmTime:
		return m.confirmTime(e), nil
	case InputToggleAddon:
		return m.toggleAddon(ctx, e, value), nil
	case InputConfirmOptions:
		return m.confirmOptions(ctx, chatID, e), nil
	case InputText:
		return m.fillField(ctx, e, value), nil
	case InputEditField:
		return m.editField(e, model.ProfileField(value)), nil
	case InputConfirmProfile:
		return m.confirmProfile(e), nil
	case InputPickPayment:
		return m.pickPayment(ctx, e, model.PaymentMethod(value)), nil
	case InputCheckout:
		return m.checkout(ctx, chatID, e), nil
	}

	return Reply{State: e.state, Ignored: true}, nil
}

func (m *Machine) reply(e *entry, prompt Prompt) Reply {
	r := Reply{State: e.state, Prompt: prompt}
	if e.draft != nil {
		r.Draft = e.draft.snapshot()
	}
	if prompt == PromptProfileField {
		r.Field = e.field
	}
	return r
}

func (m *Machine) retryLater(ctx context.Context, e *entry, msg string, err error) Reply {
	slog.ErrorContext(ctx, msg, common.ExtractTraceIDFromCtx(ctx), slog.Any(constant.LogFieldErr, err))
	return m.reply(e, PromptRetryLater)
}

func (m *Machine) start(ctx context.Context, e *entry) Reply {
	catalog, err := pricing.NewCatalog(m.Catalog())
	if err != nil {
		return m.retryLater(ctx, e, "service catalog not ready", err)
	}

	d := &Draft{Rooms: 1, Bathrooms: 1, Addons: make(map[int64]int), catalog: catalog}
	if err := d.requote(); err != nil {
		return m.retryLater(ctx, e, "failed to quote draft", err)
	}

	e.reset()
	e.draft = d
	e.state = StatePricing

	return m.reply(e, PromptRooms)
}

func (m *Machine) changeCounts(ctx context.Context, e *entry, rooms, bathrooms int) Reply {
	d := e.draft
	if d.Rooms+rooms < 1 || d.Bathrooms+bathrooms < 1 {
		return m.reply(e, PromptRooms)
	}

	d.Rooms += rooms
	d.Bathrooms += bathrooms
	if err := d.requote(); err != nil {
		d.Rooms -= rooms
		d.Bathrooms -= bathrooms
		return m.retryLater(ctx, e, "failed to quote draft", err)
	}

	return m.reply(e, PromptRooms)
}

func (m *Machine) pickDate(e *entry, value string) Reply {
	now := m.TimeNow()
	day, err := time.ParseInLocation(time.DateOnly, value, now.Location())
	if err != nil {
		return m.reply(e, PromptDate)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) || day.After(now.Add(m.horizon())) {
		return m.reply(e, PromptDate)
	}

	e.draft.Day = day
	e.draft.Minutes = constant.FirstSlotMinutes
	e.draft.AppointmentAt = e.draft.slot()
	e.state = StatePickingTime

	return m.reply(e, PromptTime)
}

func (m *Machine) moveTime(e *entry, delta int) Reply {
	d := e.draft
	next := d.Minutes + delta
	if next < constant.FirstSlotMinutes || next > constant.LastSlotMinutes {
		return m.reply(e, PromptTime)
	}

	d.Minutes = next
	d.AppointmentAt = d.slot()

	return m.reply(e, PromptTime)
}

func (m *Machine) confirmTime(e *entry) Reply {
	now := m.TimeNow()
	at := e.draft.slot()
	if !at.After(now) || at.After(now.Add(m.horizon())) {
		return m.reply(e, PromptTime)
	}

	e.draft.AppointmentAt = at
	e.state = StatePickingOptions

	return m.reply(e, PromptOptions)
}

func (m *Machine) toggleAddon(ctx context.Context, e *entry, value string) Reply {
	d := e.draft
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return m.reply(e, PromptOptions)
	}

	if _, ok := d.catalog.Addons[id]; !ok {
		return m.reply(e, PromptOptions)
	}

	prev, had := d.Addons[id]
	if had {
		delete(d.Addons, id)
	} else {
		d.Addons[id] = 1
	}

	if err := d.requote(); err != nil {
		if had {
			d.Addons[id] = prev
		} else {
			delete(d.Addons, id)
		}
		return m.retryLater(ctx, e, "failed to quote draft", err)
	}

	return m.reply(e, PromptOptions)
}

func (m *Machine) confirmOptions(ctx context.Context, chatID int64, e *entry) Reply {
	customer, err := m.Profiles.FindByChatID(ctx, chatID)
	if err != nil && !errs.Is(err, errs.ErrCustomerNotFound) {
		return m.retryLater(ctx, e, "failed to load customer profile", err)
	}

	if err != nil {
		customer = model.Customer{ChatID: chatID}
	}

	e.profile = &customer
	e.state = StateConfirmingProfile

	if missing, ok := firstMissing(customer); ok {
		e.collecting = true
		e.field = missing
		return m.reply(e, PromptProfileField)
	}

	e.collecting = false
	e.field = ""

	return m.reply(e, PromptConfirmProfile)
}

func (m *Machine) fillField(ctx context.Context, e *entry, value string) Reply {
	if !m.validField(e.field, value) {
		return m.reply(e, PromptProfileField)
	}

	e.profile.SetField(e.field, value)

	if e.collecting {
		if missing, ok := firstMissing(*e.profile); ok {
			e.field = missing
			return m.reply(e, PromptProfileField)
		}
	}

	saved, err := m.Profiles.Save(ctx, *e.profile)
	if err != nil {
		return m.retryLater(ctx, e, "failed to save customer profile", err)
	}

	e.profile = &saved
	e.collecting = false
	e.field = ""

	return m.reply(e, PromptConfirmProfile)
}

func (m *Machine) editField(e *entry, field model.ProfileField) Reply {
	if e.field != "" {
		return m.reply(e, PromptProfileField)
	}

	if !slices.Contains(model.ProfileFields, field) {
		return m.reply(e, PromptConfirmProfile)
	}

	e.field = field

	return m.reply(e, PromptProfileField)
}

func (m *Machine) confirmProfile(e *entry) Reply {
	if e.field != "" {
		return m.reply(e, PromptProfileField)
	}

	if e.profile == nil || e.profile.ID == 0 {
		return m.reply(e, PromptConfirmProfile)
	}

	e.state = StatePickingPayment

	return m.reply(e, PromptPayment)
}

// pickPayment prices the draft for the chosen method. The discount is always
// taken off the undiscounted quote, so picking again never compounds it.
func (m *Machine) pickPayment(ctx context.Context, e *entry, method model.PaymentMethod) Reply {
	if !method.Valid() {
		return m.reply(e, PromptPayment)
	}

	since := m.TimeNow().Add(-constant.DiscountLookback)
	frequency, err := m.Orders.CountSince(ctx, e.profile.ID, since)
	if err != nil {
		return m.retryLater(ctx, e, "failed to count customer orders", err)
	}

	discounts, err := m.Discounts.ListActive(ctx)
	if err != nil {
		return m.retryLater(ctx, e, "failed to list discounts", err)
	}

	d := e.draft
	d.Payment = method
	d.DiscountID = nil
	d.DiscountPercent = 0

	if best, ok := pricing.SelectDiscount(discounts, frequency); ok {
		id := best.ID
		d.DiscountID = &id
		d.DiscountPercent = best.Percent
	}

	d.FinalPrice = pricing.ApplyDiscount(d.Quote.Price, d.DiscountPercent)

	return m.reply(e, PromptCheckout)
}

func (m *Machine) checkout(ctx context.Context, chatID int64, e *entry) Reply {
	d := e.draft
	if d.Payment == "" {
		return m.reply(e, PromptPayment)
	}

	now := m.TimeNow()
	if !d.AppointmentAt.After(now) {
		e.state = StatePickingDate
		return m.reply(e, PromptDate)
	}

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	order, err := m.Orders.Create(ctx, model.NewOrder{
		CustomerID:    e.profile.ID,
		AppointmentAt: d.AppointmentAt,
		TotalPrice:    d.FinalPrice,
		TotalTime:     d.Quote.Duration,
		Address:       e.profile.Address,
		Payment:       d.Payment,
		OrderDate:     now,
		DiscountID:    d.DiscountID,
		Lines:         d.catalog.Lines(d.Rooms, d.Bathrooms, d.Addons),
	})
	if err != nil {
		return m.retryLater(ctx, e, "failed to create order", err)
	}

	orderIdAttr := slog.Int64(constant.LogFieldOrderId, order.ID)

	err = common.PublishMessage(ctx, m.Publisher, constant.SubjectOrderSubmitted, model.OrderSubmittedEventMessage{ID: order.ID})
	if err != nil {
		// the dispatch cron picks up submitted orders that never got an event
		slog.WarnContext(ctx, "order submitted event not published", traceIdAttr, orderIdAttr, slog.Any(constant.LogFieldErr, err))
	}

	slog.InfoContext(ctx, "order submitted", traceIdAttr, orderIdAttr, slog.Int64(constant.LogFieldCustomerId, chatID))

	e.reset()
	e.state = StateSubmitted

	return Reply{State: e.state, Prompt: PromptSubmitted, OrderID: order.ID}
}

func (m *Machine) validField(field model.ProfileField, value string) bool {
	tag := "required,max=30"
	switch field {
	case model.FieldAddress:
		tag = "required,max=100"
	case model.FieldPhone:
		tag = "required,e164"
	case model.FieldEmail:
		tag = "required,email,max=100"
	}
	return m.Validate.Var(value, tag) == nil
}

func (m *Machine) horizon() time.Duration {
	if m.Horizon > 0 {
		return m.Horizon
	}
	return constant.BookingHorizon
}

func firstMissing(c model.Customer) (model.ProfileField, bool) {
	for _, f := range model.ProfileFields {
		if strings.TrimSpace(c.Field(f)) == "" {
			return f, true
		}
	}
	return "", false
}
