package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldAccountID   = "account_id"
	FieldPayee       = "payee"
	FieldCurrency    = "currency"
	FieldAmountCents = "amount_cents"
	FieldTimestamp   = "timestamp"
	FieldImported    = "imported"
	FieldRowErrors   = "row_errors"
	FieldEventID     = "event_id"
	FieldEventKind   = "event_kind"
	FieldFile        = "file"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStore   = "store"
	ComponentService = "service"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentHistory = "history"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpBulkImport = "bulk_import"
	OpUpdateMemo = "update_memo"
	OpLoad       = "load"
	OpSave       = "save"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
