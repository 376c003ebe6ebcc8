package logging

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserID     = "user_id"
	FieldUsername   = "username"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCount      = "count"
	FieldAmount     = "amount_cents"
	FieldProvider   = "provider"
	FieldTxID       = "transaction_id"
	FieldEventType  = "event_type"
)

// Component names
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentAuth   = "auth"
	ComponentLedger = "ledger"
	ComponentStore  = "store"
	ComponentCache  = "cache"
	ComponentEvents = "events"
)

// Operation names
const (
	OpCreate    = "create"
	OpList      = "list"
	OpBalance   = "balance"
	OpDelete    = "delete"
	OpProvision = "provision"
	OpBootstrap = "bootstrap"
	OpPublish   = "publish"
	OpExport    = "export"
)
