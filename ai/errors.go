// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrProvidersExhausted is returned when every catalogued provider of the
	// requested kind failed during a resolution.
	ErrProvidersExhausted = errors.New("all providers exhausted")

	// ErrCatalogEmpty is returned when a catalog is constructed without descriptors
	// or a resolution targets a kind with no catalogued providers.
	ErrCatalogEmpty = errors.New("provider catalog is empty")

	// ErrDuplicateProviderID indicates two descriptors share an id.
	ErrDuplicateProviderID = errors.New("duplicate provider id")

	// ErrDuplicateProviderPriority indicates two descriptors of the same kind share a priority.
	ErrDuplicateProviderPriority = errors.New("duplicate provider priority")

	// ErrInvalidDescriptor indicates a descriptor failed validation.
	ErrInvalidDescriptor = errors.New("invalid provider descriptor")

	// ErrCatalogRequired is returned when a resolver is constructed without a catalog.
	ErrCatalogRequired = errors.New("provider catalog required")

	// ErrSessionFactoryRequired is returned when a resolver is constructed without a session factory.
	ErrSessionFactoryRequired = errors.New("session factory required")
)

// ErrorKind classifies a provider failure for retry and failover decisions.
type ErrorKind int

const (
	// KindTransient marks a failure that may succeed on a later attempt
	// (network blips, 5xx responses). Retried with a short backoff.
	KindTransient ErrorKind = iota + 1
	// KindRateLimited marks a quota or rate-limit rejection.
	// Retried with a longer backoff, honoring a provider-suggested floor.
	KindRateLimited
	// KindFatal marks a failure that will not succeed on retry
	// (auth failures, malformed requests). Never retried, no delay.
	KindFatal
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ProviderError wraps a failure from a specific provider with its classification.
type ProviderError struct {
	ProviderID string
	Kind       ErrorKind
	RetryAfter time.Duration // Provider-suggested wait, zero when not supplied
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.ProviderID, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with a provider id and classification.
func NewProviderError(providerID string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{ProviderID: providerID, Kind: kind, Err: err}
}

// ExhaustionError reports a failed resolution, carrying the last error seen
// per provider for diagnostics. It unwraps to ErrProvidersExhausted.
type ExhaustionError struct {
	Kind     ProviderKind
	Attempts int
	// LastErrors maps provider id to the last error observed for it.
	LastErrors map[string]error
}

// Error implements the error interface.
func (e *ExhaustionError) Error() string {
	parts := make([]string, 0, len(e.LastErrors))
	for id, err := range e.LastErrors {
		parts = append(parts, fmt.Sprintf("%s: %v", id, err))
	}
	return fmt.Sprintf("all %s providers exhausted after %d attempts [%s]",
		e.Kind, e.Attempts, strings.Join(parts, "; "))
}

// Unwrap allows errors.Is(err, ErrProvidersExhausted).
func (e *ExhaustionError) Unwrap() error {
	return ErrProvidersExhausted
}

// Classify maps an arbitrary provider client error onto an ErrorKind.
// Errors already wrapped as ProviderError keep their classification.
// Everything else is classified from the message text the way upstream
// clients surface quota and auth failures; unrecognized errors are treated
// as transient so a sibling provider still gets a chance.
func Classify(err error) ErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "ratelimit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "resource_exhausted"):
		return KindRateLimited
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "api_key"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "invalid argument"):
		return KindFatal
	default:
		return KindTransient
	}
}

// RetryAfterOf extracts the provider-suggested retry floor from err, or zero.
func RetryAfterOf(err error) time.Duration {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RetryAfter
	}
	return 0
}
