package model

type SessionInputRequest struct {
	Kind  string `json:"kind" validate:"required,max=32"`
	Value string `json:"value" validate:"max=200"`
}

type QuoteResponse struct {
	Rooms           int           `json:"rooms"`
	Bathrooms       int           `json:"bathrooms"`
	Addons          map[int64]int `json:"addons,omitempty"`
	AppointmentAt   string        `json:"appointment_at,omitempty"`
	Price           string        `json:"price"`
	Duration        float64       `json:"duration"`
	Payment         string        `json:"payment,omitempty"`
	DiscountPercent int32         `json:"discount_percent"`
	FinalPrice      string        `json:"final_price,omitempty"`
}

type SessionReplyResponse struct {
	State   string         `json:"state"`
	Prompt  string         `json:"prompt"`
	Field   string         `json:"field,omitempty"`
	Ignored bool           `json:"ignored"`
	Quote   *QuoteResponse `json:"quote,omitempty"`
	OrderID int64          `json:"order_id,omitempty"`
}
