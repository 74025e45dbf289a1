package model

type NotifyChannel string

const (
	ChannelAssignedStaff NotifyChannel = "assigned_staff"
	ChannelSupervisor    NotifyChannel = "supervisor"
	ChannelCustomer      NotifyChannel = "customer"
)

type NotifyTemplate string

const (
	TemplateStaffProposal          NotifyTemplate = "staff_proposal"
	TemplateStaffProposalWithdrawn NotifyTemplate = "staff_proposal_withdrawn"
	TemplateStaffAssigned          NotifyTemplate = "staff_assigned"
	TemplateSupervisorAssigned     NotifyTemplate = "supervisor_assigned"
	TemplateSupervisorEscalated    NotifyTemplate = "supervisor_escalated"
	TemplateCustomerAssigned       NotifyTemplate = "customer_assigned"
)

type Notification struct {
	Channel   NotifyChannel     `json:"channel"`
	Template  NotifyTemplate    `json:"template"`
	Recipient string            `json:"recipient"`
	Fields    map[string]string `json:"fields"`
}

type RetractResult string

const (
	RetractRetracted RetractResult = "retracted"
	RetractUnchanged RetractResult = "unchanged"
)

type NotifySendEventMessage struct {
	Handle       string       `json:"handle"`
	Notification Notification `json:"notification"`
}

type NotifyRetractEventMessage struct {
	Handle       string       `json:"handle"`
	Notification Notification `json:"notification"`
}
