// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a malformed request from the caller.
var ErrValidation = errors.New("validation failed")

// ErrDecisionConflict indicates a second decision was attempted on a review
// that already has one. The original decision stands.
var ErrDecisionConflict = errors.New("review already has a decision")

// ErrDuplicateFramework indicates a framework adapter was registered twice.
// This is a startup-time configuration bug and should be fatal.
var ErrDuplicateFramework = errors.New("framework adapter already registered")

// ErrUnknownOperator indicates a routing rule references an operator the
// condition evaluator does not support. Rules with unknown operators fail
// loudly instead of silently matching nothing.
var ErrUnknownOperator = errors.New("unknown condition operator")

// ErrTimeout indicates a blocking wait exceeded its budget. The review itself
// is untouched and may still resolve later via direct status query.
var ErrTimeout = errors.New("timed out waiting for decision")
