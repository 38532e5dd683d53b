package ai

import (
	"context"
	"log/slog"
	"time"
)

// ResolutionRequest asks the resolver for a bound provider handle.
type ResolutionRequest struct {
	// ProviderID is the caller's preferred provider. Optional; an unknown id
	// is treated as absent and resolution starts at the highest priority.
	ProviderID string
	Kind       ProviderKind
	// Temperature applies to generation requests only. It is clamped to the
	// selected descriptor's range before the session is built.
	Temperature float64
}

// Resolution is a successfully bound provider handle.
// Generator is set for generation resolutions, Embedder for embedding ones.
type Resolution struct {
	// ProviderID identifies the provider that actually served the request.
	ProviderID string
	// UsedFallback is true when the caller asked for a specific provider and
	// a different one was bound, or when no provider was requested and the
	// highest-priority one was unavailable.
	UsedFallback bool
	Generator    Generator
	Embedder     Embedder
}

// Resolver walks the catalog in rotated priority order until a usable
// handle is bound, absorbing rate-limit and transient failures via the
// backoff policy and skipping fatal providers without delay.
//
// Resolvers are read-only after construction and safe for concurrent use.
type Resolver struct {
	catalog       *Catalog
	factory       SessionFactory
	backoff       BackoffPolicy
	attemptBudget int // 0 means 2x the catalogued providers of the kind
	logger        *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver) error

// WithBackoff sets the backoff policy.
// Default is DefaultBackoff().
func WithBackoff(policy BackoffPolicy) ResolverOption {
	return func(r *Resolver) error {
		r.backoff = policy
		return nil
	}
}

// WithAttemptBudget caps the total attempts across one resolution.
// Default is twice the number of catalogued providers of the requested kind.
func WithAttemptBudget(budget int) ResolverOption {
	return func(r *Resolver) error {
		if budget < 1 {
			budget = 1
		}
		r.attemptBudget = budget
		return nil
	}
}

// WithResolverLogger sets a custom logger.
// Default is slog.Default().
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver creates a resolver over the catalog and session factory.
func NewResolver(catalog *Catalog, factory SessionFactory, opts ...ResolverOption) (*Resolver, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if factory == nil {
		return nil, ErrSessionFactoryRequired
	}

	r := &Resolver{
		catalog: catalog,
		factory: factory,
		backoff: DefaultBackoff(),
		logger:  slog.Default().With("component", "resolver"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolve binds a provider handle for the request.
//
// The try order is an explicit rotation of the priority-ordered descriptor
// slice: the requested provider first (when known), then the remaining
// providers in ascending priority, wrapping around so every provider of the
// kind is attempted exactly once. A global attempt counter bounds the
// resolution even under pathological failures.
//
// Returns an ExhaustionError (unwrapping to ErrProvidersExhausted) when no
// provider could be bound, carrying the last error seen per provider.
func (r *Resolver) Resolve(ctx context.Context, req ResolutionRequest) (*Resolution, error) {
	order := r.catalog.ListByPriority(req.Kind)
	if len(order) == 0 {
		return nil, ErrCatalogEmpty
	}

	start, requestedKnown := r.startIndex(req, order)

	budget := r.attemptBudget
	if budget <= 0 {
		budget = 2 * len(order)
	}

	attempts := 0
	lastErrors := make(map[string]error)

	for i := 0; i < len(order) && attempts < budget; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		desc := order[(start+i)%len(order)]
		attempts++

		handle, err := r.bind(ctx, desc, req)
		if err == nil {
			handle.UsedFallback = r.usedFallback(req, requestedKnown, desc.ID, order)
			if handle.UsedFallback {
				r.logger.Info("resolved provider via fallback",
					"kind", req.Kind, "requested", req.ProviderID, "used", desc.ID)
			} else {
				r.logger.Debug("resolved provider", "kind", req.Kind, "used", desc.ID)
			}
			return handle, nil
		}

		lastErrors[desc.ID] = err
		kind := Classify(err)
		r.logger.Warn("provider attempt failed",
			"provider", desc.ID, "errorKind", kind.String(), "attempt", attempts, "err", err)

		if kind == KindFatal {
			// No delay; a fatal provider will not recover within this resolution.
			continue
		}

		// Back off before the NEXT candidate. Retrying the same rate-limited
		// provider would block the caller while a sibling is usually available.
		if i < len(order)-1 && attempts < budget {
			delay := r.backoff.DelayFor(attempts, kind, RetryAfterOf(err))
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, &ExhaustionError{Kind: req.Kind, Attempts: attempts, LastErrors: lastErrors}
}

// startIndex locates the rotation start for the request and reports whether
// the requested provider was known to the catalog.
func (r *Resolver) startIndex(req ResolutionRequest, order []ProviderDescriptor) (int, bool) {
	if req.ProviderID == "" {
		return 0, false
	}

	desc, ok := r.catalog.Lookup(req.ProviderID)
	if !ok || desc.Kind != req.Kind {
		r.logger.Warn("requested provider not in catalog, using default ordering",
			"requested", req.ProviderID, "kind", req.Kind)
		return 0, false
	}

	for i := range order {
		if order[i].ID == desc.ID {
			return i, true
		}
	}
	return 0, false
}

// bind constructs the handle for one candidate. The factory releases any
// partially-constructed resources on error, so a failed attempt leaves
// nothing reachable.
func (r *Resolver) bind(ctx context.Context, desc ProviderDescriptor, req ResolutionRequest) (*Resolution, error) {
	switch req.Kind {
	case KindEmbedding:
		embedder, err := r.factory.NewEmbedder(ctx, desc)
		if err != nil {
			return nil, err
		}
		return &Resolution{ProviderID: desc.ID, Embedder: embedder}, nil
	default:
		generator, err := r.factory.NewGenerator(ctx, desc, desc.ClampTemperature(req.Temperature))
		if err != nil {
			return nil, err
		}
		return &Resolution{ProviderID: desc.ID, Generator: generator}, nil
	}
}

// usedFallback implements the narrowed fallback semantics: an explicit
// request that was served by a different provider, or no request at all
// served by something other than the highest-priority default.
func (r *Resolver) usedFallback(req ResolutionRequest, requestedKnown bool, usedID string, order []ProviderDescriptor) bool {
	if requestedKnown {
		return usedID != req.ProviderID
	}
	return usedID != order[0].ID
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
