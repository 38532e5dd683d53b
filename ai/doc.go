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


// Package ai provides the provider resolution and failover layer of docquery.
//
// The package is organized around four pieces:
//
//   - Catalog: an immutable, priority-ordered registry of generation and
//     embedding provider descriptors, constructed once at startup.
//   - BackoffPolicy: a pure function mapping (attempt, error kind) to a wait
//     duration, shared by every retrying caller.
//   - Resolver: walks the catalog in rotated priority order, classifying
//     provider failures and backing off or failing over until a usable
//     Generator or Embedder handle is bound.
//   - Error taxonomy: ProviderError kinds (rate limited, transient, fatal)
//     that drive retry and failover decisions, and ExhaustionError carrying
//     per-provider diagnostics when every candidate fails.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/googleai: Production session factory over Google generative models
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (googleai.NewSessionFactory) return INTERFACE types to
// enforce abstraction. Test utility constructors (mock.NewSessionFactory,
// mock.NewGenerator, mock.NewEmbedder) return CONCRETE types to enable test
// assertions and behavior injection via function fields.
//
// # Usage Example
//
//	catalog := ai.DefaultCatalog()
//	factory, err := googleai.NewSessionFactory(ai.NewConfig(ai.WithAPIKey(key)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resolver, err := ai.NewResolver(catalog, factory)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := resolver.Resolve(ctx, ai.ResolutionRequest{
//	    Kind:        ai.KindGeneration,
//	    ProviderID:  "gemini-1.5-pro",
//	    Temperature: 0.1,
//	})
//	if err != nil {
//	    // every provider exhausted
//	}
//	answer, err := res.Generator.Generate(ctx, prompt)
package ai
