package httprt

import "errors"

var (
	// ErrUnknownField indicates a task for a field the blueprint does not define.
	ErrUnknownField = errors.New("httprt: unknown field")
	// ErrNoEndpoint indicates a field that is not resolved over HTTP, or whose
	// endpoint is missing from the blueprint.
	ErrNoEndpoint = errors.New("httprt: no endpoint for field")
	// ErrAsyncField is returned by ResolveSync for fields that need I/O.
	ErrAsyncField = errors.New("httprt: field must be resolved with BatchResolveAsync")
	// ErrSourceShape indicates a parent value that is not a JSON object.
	ErrSourceShape = errors.New("httprt: source is not an object")
	// ErrNotList indicates a batched call whose response is not a JSON array.
	ErrNotList = errors.New("httprt: batched response is not a list")
	// ErrInvalidResponse indicates a resolved value that does not match the
	// endpoint's output schema.
	ErrInvalidResponse = errors.New("httprt: response does not match output schema")
)
