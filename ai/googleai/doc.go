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


// Package googleai implements ai.SessionFactory over Google generative models.
//
// Each NewGenerator/NewEmbedder call binds a fresh client to the descriptor's
// model id; failures are wrapped as ai.ProviderError with a classification so
// the resolver can decide between backoff and failover. Embedder bindings run
// a lightweight live probe so a dead provider is detected during resolution
// instead of in the middle of an ingestion batch.
package googleai
