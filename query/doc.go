// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package query answers natural-language questions from indexed documents.
//
// The Executor implements retrieval-augmented generation: the question is
// embedded, the nearest chunks are retrieved from the vector index, and a
// generation provider produces an answer from a prompt that restricts it
// to the retrieved context. Answers carry provenance back to the source
// documents and report whether a fallback provider served the request.
package query
