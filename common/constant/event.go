package constant

const (
	QueueStreamName = "cleanny_dispatch_queue_stream"
)

const (
	AllWildcard    = "events.>"
	OrderWildcard  = "events.order.>"
	NotifyWildcard = "events.notify.>"

	SubjectOrderSubmitted = "events.order.submitted"
	SubjectNotifySend     = "events.notify.send"
	SubjectNotifyRetract  = "events.notify.retract"
)
