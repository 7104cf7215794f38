package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldSessionID  = "session_id"
	FieldItemID     = "item_id"
	FieldHistoryID  = "history_id"
	FieldItemCount  = "item_count"
	FieldTotal      = "total"
	FieldVersion    = "version"
	FieldYear       = "year"
	FieldMonth      = "month"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentShopping  = "shopping"
	ComponentStorage   = "storage"
	ComponentState     = "state"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentCtl       = "ctl"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpDelete   = "delete"
	OpList     = "list"
	OpFinalize = "finalize"
	OpSetPrice = "set_price"
	OpOpen     = "open"
	OpRefresh  = "refresh"
	OpSync     = "sync"
	OpAppend   = "append"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
