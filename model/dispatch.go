package model

import "time"

type Candidate struct {
	StaffID    int64   `json:"staff_id"`
	Name       string  `json:"name"`
	HoursToday int     `json:"hours_today"`
	HoursWeek  int     `json:"hours_week"`
	Free       bool    `json:"free"`
	Active     bool    `json:"active"`
	Required   float64 `json:"required"`
}

// Proposal is the single live offer of an order to one candidate.
type Proposal struct {
	OrderID      int64       `json:"order_id"`
	StaffID      int64       `json:"staff_id"`
	DispatchedAt time.Time   `json:"dispatched_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Handle       string      `json:"handle"`
	Pool         []Candidate `json:"pool"`
	Offered      []int64     `json:"offered"`
}

// ProposalState is what the store holds for an order.
type ProposalState int

const (
	ProposalMissing ProposalState = iota
	// ProposalInFlight means the current pointer is set but its proposal was
	// taken; an accept or expiry is still working on the order.
	ProposalInFlight
	ProposalLive
)
