package featurekit

import "github.com/kailas-cloud/featurekit/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSchema         = domain.ErrSchema
	ErrPayloadInvalid = domain.ErrPayloadInvalid
)

// SchemaError describes why a schema resource was rejected.
type SchemaError = domain.SchemaError

// ValidationError lists every violation of a payload checked with Client.Check.
type ValidationError = domain.ValidationError
