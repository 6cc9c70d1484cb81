package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldCampaignID  = "campaign_id"
	FieldPaymentID   = "payment_id"
	FieldIntentID    = "intent_id"
	FieldPayerID     = "payer_id"
	FieldAmountCents = "amount_cents"
)

// Standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentDonation = "donation"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
)
