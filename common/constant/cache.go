package constant

import "time"

const (
	CapacityMonthKey      = "capacity:%s"
	ProposalKey           = "proposal:%d:%d"
	ProposalCurrentKey    = "proposal:%d:current"
	NotifyHandleKey       = "notify:handle:%s"
	NotifyRetractMarkKey  = "notify:retract:%s"
	CapacityMonthKeyInput = "2006-01"
)

const (
	NotifyHandleDefaultTTL = 48 * time.Hour
	ProposalTTLGrace       = 15 * time.Minute
)
