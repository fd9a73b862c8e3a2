package suppress

import "github.com/pkg/errors"

var (
	// ErrConfiguration is returned when a request is missing or has invalid
	// parameters. It is always raised before the registry is consulted.
	ErrConfiguration = errors.New("invalid suppressOutput configuration")

	// ErrContradiction is returned when a request conflicts with the
	// suppression that is currently active.
	ErrContradiction = errors.New("contradicting suppression")

	// ErrUnsupportedBackend is returned when the active executor is of a kind
	// the controller doesn't know how to wrap or unwrap.
	ErrUnsupportedBackend = errors.New("unsupported executor")

	// ErrVolatileGeneration is returned when a statement can't be rendered
	// without reading live database metadata.
	ErrVolatileGeneration = errors.New("statement requires live database metadata")
)
