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

// Package ingest implements the document ingestion pipeline.
//
// Ingestion runs in three stages. Extraction turns raw documents into
// per-page text, falling back from the native text layer to OCR when a
// document yields too little text. Chunking splits the pages into
// fixed-size overlapping windows with deterministic, content-addressed
// IDs. The upsert stage embeds each chunk batch through the provider
// failover rotation and writes it to the vector index, creating the index
// artifact on first write and rolling the artifact back if that first
// write fails.
//
// Extraction and chunking are fanned out across documents on a worker
// pool; index writes are serialized.
package ingest
