package rack

import "errors"

var (
	// ErrOpen is returned when the module loader cannot open a plugin type.
	ErrOpen = errors.New("rack: open plugin module")
	// ErrInstantiate is returned when a native instance cannot be created.
	ErrInstantiate = errors.New("rack: instantiate plugin")
	// ErrPortRegister is returned when an auxiliary port cannot be
	// registered and the fatal handler returned instead of aborting.
	ErrPortRegister = errors.New("rack: register aux port")
	// ErrInChain is returned when disposing an entry that is still linked.
	ErrInChain = errors.New("rack: entry still in chain")
	// ErrForeign is returned for entries created by another Context.
	ErrForeign = errors.New("rack: entry belongs to another context")
	// ErrClosed is returned by a Context after Close.
	ErrClosed = errors.New("rack: context closed")
	// ErrConfig is returned for unusable context configuration.
	ErrConfig = errors.New("rack: invalid configuration")
)
