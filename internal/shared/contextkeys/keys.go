package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "setdb-init context key " + string(c)
}

// RunIDKey is the key for the bootstrap run ID in context.Context
const RunIDKey = contextKey("runID")

// DatabaseKey is the key for the target database name in context.Context
const DatabaseKey = contextKey("database")

// StepKey is the key for the bootstrap step currently executing
const StepKey = contextKey("step")

// ComponentKey is the key for the component name in context.Context
const ComponentKey = contextKey("component")

// OperationKey is the key for the operation name in context.Context
const OperationKey = contextKey("operation")
