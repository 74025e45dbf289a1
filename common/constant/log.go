package constant

const (
	LogFieldErr        = "error"
	LogFieldPayload    = "payload"
	LogFieldTraceId    = "traceId"
	LogFieldOrderId    = "orderId"
	LogFieldStaffId    = "staffId"
	LogFieldCustomerId = "customerId"
	LogFieldChannel    = "channel"
)
