package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOwnerID     = "owner_id"
	FieldTxID        = "transaction_id"
	FieldKind        = "kind"
	FieldAmountCents = "amount_cents"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentEngine = "engine"
	ComponentWorker = "worker"
)
