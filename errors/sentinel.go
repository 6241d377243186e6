// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Module and gate lifecycle errors.
var (
	// ErrModuleNotFound indicates the module does not exist in the registry.
	ErrModuleNotFound = &EngineError{
		Kind:   ErrNotFound,
		Detail: "module not found",
	}

	// ErrModuleExists indicates a module with that name already exists.
	ErrModuleExists = &EngineError{
		Kind:   ErrAlreadyExists,
		Detail: "module already exists",
	}

	// ErrBuilderNotFound indicates no builder is registered for a class name.
	ErrBuilderNotFound = &EngineError{
		Kind:   ErrNotFound,
		Detail: "builder not registered",
	}

	// ErrGateOutOfRange indicates a gate index exceeds MaxGates or the
	// module's declared gate count.
	ErrGateOutOfRange = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "gate index out of range",
	}

	// ErrGateConnected indicates the source output gate is already wired
	// to a peer.
	ErrGateConnected = &EngineError{
		Kind:   ErrAlreadyExists,
		Detail: "output gate already connected",
	}

	// ErrGateNotConnected indicates a disconnect was attempted on a gate
	// with no peer.
	ErrGateNotConnected = &EngineError{
		Kind:   ErrNotFound,
		Detail: "gate not connected",
	}

	// ErrEmptyModuleName indicates an explicit module name was empty.
	ErrEmptyModuleName = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "module name cannot be empty",
	}
)

// Configuration and validation errors.
var (
	// ErrInvalidPipelineConfig indicates the pipeline config document is malformed.
	ErrInvalidPipelineConfig = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "invalid pipeline configuration",
	}

	// ErrMissingConfig indicates the pipeline config file is missing.
	ErrMissingConfig = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "pipeline config not found",
	}
)

// L2 / LPM table errors.
var (
	// ErrEntryNotFound indicates a lookup or delete missed the table.
	ErrEntryNotFound = &EngineError{
		Kind:   ErrNotFound,
		Detail: "entry not found",
	}

	// ErrEntryExists indicates a duplicate key insert.
	ErrEntryExists = &EngineError{
		Kind:   ErrAlreadyExists,
		Detail: "entry already exists",
	}

	// ErrTableFull indicates a cuckoo insert failed after one level of
	// eviction, or an LPM table exceeded max_rules/number_tbl8s.
	ErrTableFull = &EngineError{
		Kind:   ErrOutOfMemory,
		Detail: "table is full",
	}

	// ErrInvalidPrefix indicates an LPM prefix has host bits set or an
	// out-of-range prefix length.
	ErrInvalidPrefix = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "invalid prefix",
	}
)

// Port / privilege errors.
var (
	// ErrDeviceNotFound indicates an unknown port.
	ErrDeviceNotFound = &EngineError{
		Kind:   ErrNoDevice,
		Detail: "unknown port",
	}

	// ErrQueuesInUse indicates the requested queues are already owned.
	ErrQueuesInUse = &EngineError{
		Kind:   ErrAlreadyExists,
		Detail: "queues already acquired",
	}

	// ErrInsufficientPrivilege indicates the process lacks the capability
	// required to acquire NIC queues.
	ErrInsufficientPrivilege = &EngineError{
		Kind:   ErrInvalidArg,
		Detail: "insufficient privilege to acquire queues",
	}
)

// Hook lifecycle errors.
var (
	// ErrHookFailed indicates a registered PreQuiesce/PostResume hook
	// returned an error, aborting the remaining hooks in that phase.
	ErrHookFailed = &EngineError{
		Kind:   ErrInternal,
		Detail: "hook failed",
	}
)

// Burst / packet errors.
var (
	// ErrBurstTooLarge indicates a requested burst size exceeds MaxBurst.
	ErrBurstTooLarge = &EngineError{
		Kind:   ErrOutOfRange,
		Detail: "burst size exceeds MaxBurst",
	}

	// ErrPacketTooLarge indicates a packet size exceeds the pool's slot size.
	ErrPacketTooLarge = &EngineError{
		Kind:   ErrOutOfRange,
		Detail: "packet size exceeds pool slot size",
	}
)
