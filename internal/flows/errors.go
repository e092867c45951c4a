package flows

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError rejects malformed input before any provider call.
type ValidationError struct {
	Flow   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Flow, strings.Join(parts, "; "))
}

// ProviderError means the model call itself failed: network, auth, quota
// or an empty answer.
type ProviderError struct {
	Flow     string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider %s failed: %v", e.Flow, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ContractViolation means the model answered but the answer does not match
// the flow's output schema. No part of such an answer is ever used.
type ContractViolation struct {
	Flow   string
	Field  string
	Reason string
}

func (e *ContractViolation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: output contract violated: %s", e.Flow, e.Reason)
	}
	return fmt.Sprintf("%s: output contract violated: field %q %s", e.Flow, e.Field, e.Reason)
}

// Side names one half of the merge flow.
type Side string

const (
	SideMain      Side = "main"
	SideSecondary Side = "secondary"
)

// PartialFailure is returned by Merge when one of its two sub-calls failed.
type PartialFailure struct {
	Side Side
	Err  error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("merge: %s call failed: %v", e.Side, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// Kind classifies err for logs and metrics. It never reaches end users.
func Kind(err error) string {
	var (
		ve *ValidationError
		pe *ProviderError
		cv *ContractViolation
		pf *PartialFailure
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pf):
		return "partial_failure"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &cv):
		return "contract_violation"
	case errors.As(err, &pe):
		return "provider"
	default:
		return "unknown"
	}
}

// IsFlowFailure reports whether err is one of the errors raised after the
// input was accepted, i.e. anything the user can only retry.
func IsFlowFailure(err error) bool {
	var (
		pe *ProviderError
		cv *ContractViolation
		pf *PartialFailure
	)
	return errors.As(err, &pf) || errors.As(err, &cv) || errors.As(err, &pe)
}
