package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SchemaInspector exposes the loaded feature schema.
type SchemaInspector interface {
	Len() int
}
