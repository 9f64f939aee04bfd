package log

import "time"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldMonth         = "month"
	FieldPage          = "page"
	FieldPerPage       = "per_page"
	FieldSearch        = "search"
	FieldTransactionID = "transaction_id"
	FieldIndex         = "index"
	FieldSource        = "source"
	FieldFetched       = "fetched"
	FieldInserted      = "inserted"
	FieldIgnored       = "ignored"
	FieldFailed        = "failed"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentQuery    = "query"
	ComponentStorage  = "storage"
	ComponentIngest   = "ingest"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
	ComponentSecurity = "security"
	ComponentTrace    = "trace"
	ComponentOTel     = "otel"
)

// Operations defines standard operation names
const (
	OpList       = "list"
	OpStatistics = "statistics"
	OpBarChart   = "bar_chart"
	OpPieChart   = "pie_chart"
	OpFetch      = "fetch"
	OpInsert     = "insert"
	OpDecode     = "decode"
	OpSeed       = "seed"
	OpPublish    = "publish"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeDecode        = "decode_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the month filter
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithListing adds the listing parameters
func (f LogFields) WithListing(month string, page, perPage int, search string) LogFields {
	f[FieldMonth] = month
	f[FieldPage] = page
	f[FieldPerPage] = perPage
	f[FieldSearch] = search
	return f
}

// WithTransaction adds the position and id of a feed element
func (f LogFields) WithTransaction(index int, id int64) LogFields {
	f[FieldIndex] = index
	f[FieldTransactionID] = id
	return f
}

// WithSeed adds ingestion counters
func (f LogFields) WithSeed(source string, fetched, inserted, ignored, failed int, d time.Duration) LogFields {
	f[FieldSource] = source
	f[FieldFetched] = fetched
	f[FieldInserted] = inserted
	f[FieldIgnored] = ignored
	f[FieldFailed] = failed
	f[FieldDuration] = d.Milliseconds()
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, d time.Duration, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = d.Milliseconds()
	f[FieldDurationHuman] = d.String()
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
