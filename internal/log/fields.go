package log

import "sort"

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
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorKind  = "error_kind"
	FieldOperation  = "operation"
	FieldAction     = "action"
	FieldSheetID    = "sheet_id"
	FieldView       = "view"
	FieldSlot       = "slot"
	FieldKey        = "cache_key"
	FieldCacheHit   = "cache_hit"
	FieldDate       = "date"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCategory   = "category"
	FieldTxID       = "transaction_id"
	FieldAmount     = "amount"
	FieldCount      = "count"
	FieldPage       = "page"
)

const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentRemote   = "remote"
	ComponentSession  = "session"
	ComponentMutation = "mutation"
	ComponentCache    = "cache"
	ComponentStorage  = "storage"
	ComponentStub     = "stub"
	ComponentAMQP     = "amqp"
	ComponentTrace    = "trace"
	ComponentBackend  = "backend"
	ComponentWorker   = "worker"
	ComponentCLI      = "cli"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSearch   = "search"
	OpFetch    = "fetch"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a small builder for slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithView(view string) LogFields {
	f[FieldView] = view
	return f
}

func (f LogFields) WithErrorKind(kind string) LogFields {
	if kind != "" {
		f[FieldErrorKind] = kind
	}
	return f
}

// WithCache records a cache lookup on slot under key.
func (f LogFields) WithCache(slot, key string, hit bool) LogFields {
	f[FieldSlot] = slot
	f[FieldKey] = key
	f[FieldCacheHit] = hit
	return f
}

// WithTransaction records the identifying fields of a transaction.
func (f LogFields) WithTransaction(id, date string, amount int64, category string) LogFields {
	if id != "" {
		f[FieldTxID] = id
	}
	f[FieldDate] = date
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields in key order.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
