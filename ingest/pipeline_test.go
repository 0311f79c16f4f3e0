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

package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/poiesic/studyhall/ai/mock"
	indexmock "github.com/poiesic/studyhall/index/mock"
	"github.com/poiesic/studyhall/retrieve"
)

func setupPipeline(t *testing.T, opts ...Option) (*Pipeline, *indexmock.MockIndex, *aimock.MockEmbedder) {
	t.Helper()

	idx := indexmock.NewMockIndex()
	embedder := aimock.NewMockEmbedder()
	provider := aimock.NewMockProviderWithServices(embedder, aimock.NewMockGenerator())

	pipeline, err := NewPipeline(idx, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, idx, embedder
}

func TestEmbedAndUpsertIndexesChunks(t *testing.T) {
	pipeline, idx, _ := setupPipeline(t)
	courseID := uuid.New()

	pieces := []string{
		"Raft elects a single leader per term.",
		"Followers replicate the leader's log.",
	}
	err := pipeline.embedAndUpsert(context.Background(), courseID, "raft.md", pieces)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.ChunkCount())

	matches, err := idx.Query(context.Background(), aimock.DeterministicVector(pieces[0], 384), nil, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, pieces[0], matches[0].Text)
	assert.Equal(t, courseID, matches[0].CourseID)
	assert.Equal(t, "raft.md", matches[0].DocumentID)
}

func TestIngestedChunksAreRetrievable(t *testing.T) {
	pipeline, idx, embedder := setupPipeline(t, WithChunking(200, 40))
	courseID := uuid.New()

	text := strings.Repeat("Consensus requires a quorum of acknowledgements. ", 20)
	pieces := SplitText(text, 200, 40)
	require.NoError(t, pipeline.embedAndUpsert(context.Background(), courseID, "notes.md", pieces))

	retriever, err := retrieve.NewRetriever(idx)
	require.NoError(t, err)

	vector, err := embedder.EmbedText(context.Background(), "What is a quorum?")
	require.NoError(t, err)

	contextText, err := retriever.Retrieve(context.Background(), vector, courseID, 2, nil)
	require.NoError(t, err)
	assert.Contains(t, contextText, "quorum of acknowledgements")
}

func TestIngestDocumentSchedulesChunks(t *testing.T) {
	pipeline, idx, _ := setupPipeline(t, WithChunking(200, 40))
	courseID := uuid.New()

	text := strings.Repeat("Lecture notes about log replication and elections. ", 20)
	scheduled, err := pipeline.IngestDocument(context.Background(), courseID, "lecture.md", text)
	require.NoError(t, err)
	assert.Greater(t, scheduled, 1)

	// The pool processes the document asynchronously.
	require.Eventually(t, func() bool {
		return idx.ChunkCount() == scheduled
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIngestDocumentValidation(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)
	ctx := context.Background()

	_, err := pipeline.IngestDocument(ctx, uuid.Nil, "doc", "text")
	assert.ErrorIs(t, err, ErrMissingCourse)

	_, err = pipeline.IngestDocument(ctx, uuid.New(), "", "text")
	assert.ErrorIs(t, err, ErrMissingDocumentID)

	_, err = pipeline.IngestDocument(ctx, uuid.New(), "doc", "   ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestEmbedAndUpsertRetriesEmbedding(t *testing.T) {
	pipeline, idx, embedder := setupPipeline(t, WithRetry(3, time.Millisecond))

	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient provider error")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = aimock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	err := pipeline.embedAndUpsert(context.Background(), uuid.New(), "doc.md", []string{"chunk one"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, idx.ChunkCount())
}

func TestEmbedAndUpsertCountMismatch(t *testing.T) {
	pipeline, idx, embedder := setupPipeline(t, WithRetry(1, time.Millisecond))

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{aimock.DeterministicVector("only one", 384)}, nil
	}

	err := pipeline.embedAndUpsert(context.Background(), uuid.New(), "doc.md", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
	assert.Equal(t, 0, idx.ChunkCount())
}

func TestRemoveDocument(t *testing.T) {
	pipeline, idx, _ := setupPipeline(t)
	courseID := uuid.New()

	require.NoError(t, pipeline.embedAndUpsert(context.Background(), courseID, "doc.md",
		[]string{"chunk one", "chunk two"}))
	require.Equal(t, 2, idx.ChunkCount())

	require.NoError(t, pipeline.RemoveDocument(context.Background(), courseID, "doc.md"))
	assert.Equal(t, 0, idx.ChunkCount())
}

func TestNewPipelineValidation(t *testing.T) {
	provider := aimock.NewMockProvider()
	idx := indexmock.NewMockIndex()

	_, err := NewPipeline(nil, provider)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(idx, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewPipeline(idx, provider, WithChunking(0, 0))
	assert.Error(t, err)

	_, err = NewPipeline(idx, provider, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
