package shared

// Asynq task types
const (
	TypeAutoCancelOrder         = "order:auto_cancel"
	TypeAutoCompleteOrders      = "order:auto_complete"
	TypeRemoveExpiredPromotions = "promotion:remove_expired"
)

// Asynq queues (priority cấu hình ở cmd/worker)
const (
	QueueCritical  = "critical"
	QueueDefault   = "default"
	QueuePromotion = "promotion"
)

// Realtime event types đẩy qua websocket hub
const (
	EventChatMessage     = "chat.message"
	EventChatTransferred = "chat.transferred"
	EventChatClosed      = "chat.closed"
	EventOrderStatus     = "order.status"
	EventShipperAssigned = "order.shipper_assigned"
	EventPaymentResult   = "order.payment"
)

// Context keys do middleware set
const (
	ContextKeyUserID   = "userID"
	ContextKeyRole     = "role"
	ContextKeyClientIP = "client_ip"
)
