// Package ingest provides the write path of the retrieval index.
//
// The Pipeline type splits document text into overlapping chunks, embeds
// them in batch, and upserts the vectors with their metadata into the
// vector index. Embedding and indexing run concurrently on a worker pool;
// errors after a document is accepted are logged but do not fail the
// ingestion operation.
package ingest
