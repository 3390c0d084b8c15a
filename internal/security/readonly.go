package security

import (
	"context"
	"fmt"

	"trade-journal/internal/errors"
)

// OperationType represents the type of operation.
type OperationType string

const (
	OpRead OperationType = "READ"

	// Write operations (blocked in read-only mode)
	OpAddTrade    OperationType = "ADD_TRADE"
	OpDeleteTrade OperationType = "DELETE_TRADE"
	OpImport      OperationType = "IMPORT_TRADES"
	OpSeed        OperationType = "SEED_SAMPLE"
)

// ReadOnlyError represents an error when attempting a write operation in read-only mode.
type ReadOnlyError struct {
	Operation OperationType
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s blocked: read-only mode is enabled", OperationDescription(e.Operation))
}

// Unwrap lets callers match with errors.Is(err, errors.ErrReadOnly).
func (e *ReadOnlyError) Unwrap() error {
	return errors.ErrReadOnly
}

// AccessController manages read-only mode and operation permissions.
// The mode is fixed when the controller is created.
type AccessController struct {
	readOnly    bool
	auditLogger *AuditLogger
}

// NewAccessController creates a new access controller. auditLogger may be nil.
func NewAccessController(readOnly bool, auditLogger *AuditLogger) *AccessController {
	return &AccessController{
		readOnly:    readOnly,
		auditLogger: auditLogger,
	}
}

// IsReadOnly returns whether read-only mode is enabled.
func (ac *AccessController) IsReadOnly() bool {
	if ac == nil {
		return false
	}
	return ac.readOnly
}

// CheckPermission checks if an operation is allowed. A nil controller
// allows everything.
func (ac *AccessController) CheckPermission(ctx context.Context, op OperationType) error {
	if ac == nil {
		return nil
	}
	if !ac.readOnly || !isWriteOperation(op) {
		return nil
	}

	ac.auditLogger.LogReadOnlyViolation(ctx, string(op))
	return &ReadOnlyError{Operation: op}
}

func isWriteOperation(op OperationType) bool {
	switch op {
	case OpAddTrade, OpDeleteTrade, OpImport, OpSeed:
		return true
	default:
		return false
	}
}

// OperationDescription returns a human-readable description of an operation.
func OperationDescription(op OperationType) string {
	switch op {
	case OpRead:
		return "Read journal"
	case OpAddTrade:
		return "Add trade"
	case OpDeleteTrade:
		return "Delete trade"
	case OpImport:
		return "Import trades"
	case OpSeed:
		return "Seed sample data"
	default:
		return string(op)
	}
}
