package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldKind        = "kind"
	FieldAmountCents = "amount_cents"
	FieldScope       = "scope"
	FieldPeriod      = "period"
	FieldFormat      = "format"
	FieldJobID       = "job_id"
	FieldSessionID   = "session_id"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentReport   = "report"
	ComponentExtract  = "extract"
	ComponentPending  = "pending"
	ComponentSecurity = "security"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpRender   = "render"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpExtract  = "extract"
	OpConfirm  = "confirm"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
