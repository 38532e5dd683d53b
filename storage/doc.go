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


// Package storage provides the persistent vector index abstraction for docquery.
//
// The Index interface decouples the ingestion and query layers from the
// storage backend. The index lives at a configured directory path whose
// lifecycle has three observable states:
//
//   - IndexAbsent: the path has never been created
//   - IndexEmptyArtifact: the directory exists but holds no chunk records
//     (created accidentally, e.g. by a failed ingestion); treated as absent
//   - IndexPopulated: chunk records exist and can be queried
//
// The absent-to-populated transition happens exactly once via Create;
// subsequent ingestions use Append. Destroy removes the on-disk artifact so
// a half-built index is never mistaken for a populated one.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Index interface to enforce
// abstraction and allow alternative backends:
//
//	index, err := badger.OpenIndex("/path/to/index")
//
// # Thread Safety
//
// Implementations must be safe for concurrent readers. Writers coordinate
// through the ingestion layer, which serializes Create/Append under a
// mutual-exclusion scope.
package storage
