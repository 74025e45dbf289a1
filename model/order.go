package model

import (
	"github.com/shopspring/decimal"
	"time"
)

type OrderStatus string

const (
	OrderStatusSubmitted                 OrderStatus = "submitted"
	OrderStatusPendingAssignment         OrderStatus = "pending_assignment"
	OrderStatusAwaitingStaffConfirmation OrderStatus = "awaiting_staff_confirmation"
	OrderStatusAssigned                  OrderStatus = "assigned"
	OrderStatusEscalated                 OrderStatus = "escalated"
	OrderStatusCompleted                 OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusSubmitted, OrderStatusPendingAssignment, OrderStatusAwaitingStaffConfirmation,
		OrderStatusAssigned, OrderStatusEscalated, OrderStatusCompleted:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCardLink      PaymentMethod = "card_link"
	PaymentOnlineBanking PaymentMethod = "online_banking"
	PaymentCash          PaymentMethod = "cash"
)

var PaymentMethods = []PaymentMethod{PaymentCardLink, PaymentOnlineBanking, PaymentCash}

func (p PaymentMethod) Valid() bool {
	for _, m := range PaymentMethods {
		if p == m {
			return true
		}
	}
	return false
}

type Order struct {
	ID            int64
	CustomerID    int64
	StaffID       *int64
	AppointmentAt time.Time
	TotalPrice    decimal.Decimal
	TotalTime     float64
	Status        OrderStatus
	Address       string
	Payment       PaymentMethod
	OrderDate     time.Time
	DiscountID    *int64
}

type OrderLine struct {
	ServiceID int64
	Quantity  int32
}

type NewOrder struct {
	CustomerID    int64
	AppointmentAt time.Time
	TotalPrice    decimal.Decimal
	TotalTime     float64
	Address       string
	Payment       PaymentMethod
	OrderDate     time.Time
	DiscountID    *int64
	Lines         []OrderLine
}

// OrderUpdate is a partial update; nil fields are left untouched. When
// ExpectStatus is set the row only changes while it still has that status.
type OrderUpdate struct {
	Status       *OrderStatus
	Address      *string
	Payment      *PaymentMethod
	ExpectStatus *OrderStatus
}

type OrderFilter struct {
	CustomerID *int64
	Statuses   []OrderStatus
	Limit      int32
}

type OrderHistoryItem struct {
	ID            int64
	AppointmentAt time.Time
	TotalPrice    decimal.Decimal
	Status        OrderStatus
	StaffName     string
}

type OrderSubmittedEventMessage struct {
	ID int64 `json:"id"`
}

type OrderResponse struct {
	ID            int64   `json:"id"`
	CustomerID    int64   `json:"customer_id"`
	StaffID       *int64  `json:"staff_id"`
	AppointmentAt string  `json:"appointment_at"`
	TotalPrice    string  `json:"total_price"`
	TotalTime     float64 `json:"total_time"`
	Status        string  `json:"status"`
	Address       string  `json:"address"`
	Payment       string  `json:"payment"`
	OrderDate     string  `json:"order_date"`
	DiscountID    *int64  `json:"discount_id"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type OrderHistoryResponse struct {
	ID            int64  `json:"id"`
	AppointmentAt string `json:"appointment_at"`
	TotalPrice    string `json:"total_price"`
	Status        string `json:"status"`
	StaffName     string `json:"staff_name"`
}

type CustomerOrdersResponse struct {
	Orders          []OrderHistoryResponse `json:"orders"`
	DiscountPercent int32                  `json:"discount_percent"`
}

type AssignOrderRequest struct {
	StaffID int64 `json:"staff_id" validate:"required,gt=0"`
}

type AcceptProposalRequest struct {
	Token string `json:"token" validate:"required"`
}

type AcceptProposalResponse struct {
	OrderID int64 `json:"order_id"`
	StaffID int64 `json:"staff_id"`
}
