package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for pipeline operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnresolvedDependency is returned when a stage references an address
	// that no earlier stage has produced
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrTransactionReverted is returned when a receipt reports failure
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrTransactionTimeout is returned when a receipt never shows up
	ErrTransactionTimeout = errors.New("timed out waiting for transaction receipt")

	// ErrInsufficientBalance is returned when the deployer can't cover the funding transfer
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrDecimalsMismatch is returned when the token reports a different precision than configured
	ErrDecimalsMismatch = errors.New("token decimals mismatch")

	// ErrInvalidAmount is returned when a funding quantity can't be scaled
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrFinalityTimeout is returned when the confirmation barrier gives up
	ErrFinalityTimeout = errors.New("timed out waiting for confirmations")

	// ErrChainIDMismatch is returned when the RPC endpoint serves another chain
	ErrChainIDMismatch = errors.New("chain ID mismatch")

	// ErrCheckpointInvalid is returned when a stored checkpoint no longer matches the chain
	ErrCheckpointInvalid = errors.New("checkpoint does not match chain state")

	// ErrNoNetwork is returned when a command needs a network and none is selected
	ErrNoNetwork = errors.New("no network selected")

	// ErrArtifactNotFound is returned when a build artifact can't be located
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrVerificationFailed is returned when explorer verification is rejected
	ErrVerificationFailed = errors.New("verification failed")

	// ErrCancelled is returned when the operator declines a confirmation
	ErrCancelled = errors.New("cancelled")
)

// OrderingError reports a stage that ran before one of its dependencies
// was resolved. It signals a defect in the stage sequence and is never retried.
type OrderingError struct {
	Stage      string
	Artifact   string
	Dependency string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("stage %s (%s) depends on %s which has no resolved address", e.Stage, e.Artifact, e.Dependency)
}

func (e *OrderingError) Unwrap() error {
	return ErrUnresolvedDependency
}

// StageError attaches the failing stage to an error
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ArtifactNotFoundErr is returned by artifact loaders, with close matches
// when some exist.
type ArtifactNotFoundErr struct {
	Name        string
	Dir         string
	Suggestions []string
}

func (e ArtifactNotFoundErr) Error() string {
	msg := fmt.Sprintf("no build artifact for %s under %s", e.Name, e.Dir)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e ArtifactNotFoundErr) Unwrap() error {
	return ErrArtifactNotFound
}
