// Package mock provides test doubles for the ai package interfaces.
//
// The doubles follow the function-field pattern: default behavior is
// deterministic (embeddings are derived from a text hash, generations echo
// the bound provider), and tests inject custom behavior by assigning the
// exported function fields. Constructors return CONCRETE types so tests can
// reach call counters and injection points.
package mock
