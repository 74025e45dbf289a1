package constant

import "cleanny-dispatch/model"

type NotifyTemplateText struct {
	Subject string
	Body    string
}

var NotifyTemplates = map[model.NotifyTemplate]NotifyTemplateText{
	model.TemplateStaffProposal: {
		Subject: "New cleaning order #{{.order_id}}",
		Body: `
Hello {{.staff_name}},

A cleaning order is waiting for you.

Order Details:
------------------------------------------
Order ID: {{.order_id}}
Appointment: {{.appointment}}
Address: {{.address}}
Duration: {{.duration}} h
Total Amount: {{.price}}
------------------------------------------

To take the order, accept it before {{.expires_at}} using this token:
{{.accept_token}}

If you do not respond in time the order will be offered to another cleaner.
`,
	},
	model.TemplateStaffProposalWithdrawn: {
		Subject: "Order #{{.order_id}} is no longer available",
		Body: `
Hello {{.staff_name}},

The offer for order #{{.order_id}} has expired and was passed to another cleaner.
`,
	},
	model.TemplateStaffAssigned: {
		Subject: "Order #{{.order_id}} is yours",
		Body: `
Hello {{.staff_name}},

You are assigned to order #{{.order_id}}.

Appointment: {{.appointment}}
Address: {{.address}}
Client: {{.customer_name}}, {{.customer_phone}}
`,
	},
	model.TemplateSupervisorAssigned: {
		Subject: "Order #{{.order_id}} assigned",
		Body: `
Order #{{.order_id}} on {{.appointment}} was taken by {{.staff_name}}.
Total Amount: {{.price}}
`,
	},
	model.TemplateSupervisorEscalated: {
		Subject: "Order #{{.order_id}} needs manual assignment",
		Body: `
Order #{{.order_id}} on {{.appointment}} could not be assigned automatically.

Reason: {{.reason}}
Address: {{.address}}
Duration: {{.duration}} h
Total Amount: {{.price}}
`,
	},
	model.TemplateCustomerAssigned: {
		Subject: "Your cleaning is confirmed",
		Body: `
Dear {{.customer_name}},

Your order #{{.order_id}} on {{.appointment}} is confirmed.
Your cleaner: {{.staff_name}}
Total Amount: {{.price}}

Best regards,
Cleanny Team

Note: This is an automated message, please do not reply to this email.
`,
	},
}
