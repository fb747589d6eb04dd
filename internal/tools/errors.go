package tools

import "errors"

// ErrUnknownTool means a lookup by name found nothing registered.
var ErrUnknownTool = errors.New("unknown tool")

// ErrEmptyToolName means a Tool was registered with no Name set.
var ErrEmptyToolName = errors.New("tool name is empty")

// ErrNilExecutor means a Tool was registered with a nil Execute func.
var ErrNilExecutor = errors.New("tool has no execute function")

// ErrDuplicateTool means Register was called twice for the same name.
var ErrDuplicateTool = errors.New("tool already registered under this name")

// ErrRequiredArgMissing means a call omitted an argument the schema
// marks required.
var ErrRequiredArgMissing = errors.New("required argument missing")

// ErrArgTypeMismatch means an argument's runtime type doesn't match
// what the schema declares.
var ErrArgTypeMismatch = errors.New("argument has the wrong type")
