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
	FieldRecordID   = "record_id"
	FieldOwner      = "owner"
	FieldStoreName  = "store_name"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldImagePath  = "image_path"
	FieldImageURL   = "image_url"
	FieldBackend    = "backend"
	FieldQueue      = "queue"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAnalysis = "analysis"
	ComponentIngest   = "ingest"
	ComponentImages   = "images"
	ComponentExport   = "export"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentMirror   = "mirror"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAnalyze  = "analyze"
	OpUpload   = "upload"
	OpExport   = "export"
	OpMirror   = "mirror"
	OpCleanup  = "cleanup"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
