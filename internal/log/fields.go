package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldAggregateID = "aggregate_id"
	FieldCommand     = "command"
	FieldEvent       = "event"
	FieldGroup       = "group"
	FieldPosition    = "position"
	FieldSaga        = "saga"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentBus        = "bus"
	ComponentEventStore = "eventstore"
	ComponentProjection = "projection"
	ComponentSaga       = "saga"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentExport     = "export"
)
