package model

import "github.com/shopspring/decimal"

type ServiceKind string

const (
	ServiceBaseRoom      ServiceKind = "base_room"
	ServiceBaseBathroom  ServiceKind = "base_bathroom"
	ServiceExtraRoom     ServiceKind = "extra_room"
	ServiceExtraBathroom ServiceKind = "extra_bathroom"
	ServiceAddon         ServiceKind = "addon"
)

type Service struct {
	ID       int64
	Name     string
	Kind     ServiceKind
	Price    decimal.Decimal
	LeadTime float64
}

type Discount struct {
	ID           int64
	MinFrequency int32
	Percent      int32
	Active       bool
}
