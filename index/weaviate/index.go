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


package weaviate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/poiesic/studyhall/index"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	// ClassName is the Weaviate class holding course material chunks.
	ClassName = "CourseChunk"

	batchSize = 100
)

// Index implements index.Index backed by a Weaviate instance.
type Index struct {
	client *weaviate.Client
	logger *slog.Logger
}

var _ index.Index = (*Index)(nil)

// NewIndex connects to a Weaviate instance and ensures the chunk class exists.
//
// Returns index.Index interface to enforce abstraction.
func NewIndex(ctx context.Context, host, scheme string) (index.Index, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   host,
		Scheme: scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	idx := &Index{
		client: client,
		logger: slog.Default().With("component", "weaviate-index"),
	}

	if err := idx.ensureSchema(ctx); err != nil {
		return nil, err
	}

	return idx, nil
}

// chunkClass returns the class definition for stored chunks.
// Vectorizer is "none": embeddings are computed by the ai package and
// supplied with each object.
func chunkClass() *models.Class {
	return &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "courseId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "position", DataType: []string{"int"}},
			{Name: "content", DataType: []string{"text"}},
		},
	}
}

// ensureSchema creates the chunk class if it doesn't exist.
// This operation is idempotent.
func (x *Index) ensureSchema(ctx context.Context) error {
	_, err := x.client.Schema().ClassGetter().WithClassName(ClassName).Do(ctx)
	if err == nil {
		x.logger.Debug("chunk class already exists", "class", ClassName)
		return nil
	}

	x.logger.Info("creating chunk class", "class", ClassName)
	if err := x.client.Schema().ClassCreator().WithClass(chunkClass()).Do(ctx); err != nil {
		return fmt.Errorf("creating chunk class: %w", err)
	}
	return nil
}

// Query returns the topK stored chunks most similar to vector, best first.
func (x *Index) Query(ctx context.Context, vector []float32, filter *index.Filter, topK int) ([]index.Match, error) {
	if len(vector) == 0 {
		return nil, index.ErrEmptyQueryVector
	}

	nearVector := x.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	// Request certainty (always [0,1]) instead of distance which varies by metric
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "courseId"},
		{Name: "documentId"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	query := x.client.GraphQL().Get().
		WithClassName(ClassName).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK)

	if where := buildWhere(filter); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		x.logger.Error("chunk query failed", "err", err)
		return nil, fmt.Errorf("weaviate query failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query error: %s", result.Errors[0].Message)
	}

	matches := parseMatches(result.Data)
	x.logger.Debug("chunk query complete", "matches", len(matches), "topK", topK)
	return matches, nil
}

// buildWhere converts an index.Filter to a Weaviate where clause.
// Returns nil for a nil or empty filter.
func buildWhere(filter *index.Filter) *filters.WhereBuilder {
	if filter == nil {
		return nil
	}

	var operands []*filters.WhereBuilder

	if filter.CourseID != uuid.Nil {
		operands = append(operands, filters.Where().
			WithPath([]string{"courseId"}).
			WithOperator(filters.Equal).
			WithValueString(filter.CourseID.String()))
	}

	if len(filter.DocumentIDs) > 0 {
		docOperands := make([]*filters.WhereBuilder, 0, len(filter.DocumentIDs))
		for _, docID := range filter.DocumentIDs {
			docOperands = append(docOperands, filters.Where().
				WithPath([]string{"documentId"}).
				WithOperator(filters.Equal).
				WithValueString(docID))
		}
		if len(docOperands) == 1 {
			operands = append(operands, docOperands[0])
		} else {
			operands = append(operands, filters.Where().
				WithOperator(filters.Or).
				WithOperands(docOperands))
		}
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().
			WithOperator(filters.And).
			WithOperands(operands)
	}
}

// parseMatches walks the GraphQL response structure.
func parseMatches(data map[string]models.JSONObject) []index.Match {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	objects, ok := get[ClassName].([]interface{})
	if !ok {
		return nil
	}

	matches := make([]index.Match, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue // skip malformed objects
		}

		match := index.Match{
			Text:       getString(m, "content"),
			DocumentID: getString(m, "documentId"),
		}
		if courseID, err := uuid.Parse(getString(m, "courseId")); err == nil {
			match.CourseID = courseID
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				match.Score = float32(certainty)
			}
		}

		matches = append(matches, match)
	}
	return matches
}

// getString safely extracts a string from a map.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Upsert writes chunks to the index in batches. Object IDs are derived from
// the chunk coordinates, so re-ingesting a document replaces its chunks.
func (x *Index) Upsert(ctx context.Context, chunks []index.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	written := 0
	for i := 0; i < len(chunks); i += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		objects := make([]*models.Object, 0, len(batch))
		for _, chunk := range batch {
			if chunk.CourseID == uuid.Nil || chunk.DocumentID == "" || len(chunk.Vector) == 0 {
				return written, fmt.Errorf("%w: course=%s document=%q", index.ErrInvalidChunk, chunk.CourseID, chunk.DocumentID)
			}
			objects = append(objects, &models.Object{
				Class:  ClassName,
				ID:     chunkObjectID(chunk),
				Vector: chunk.Vector,
				Properties: map[string]interface{}{
					"courseId":   chunk.CourseID.String(),
					"documentId": chunk.DocumentID,
					"position":   chunk.Position,
					"content":    chunk.Text,
				},
			})
		}

		result, err := x.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return written, fmt.Errorf("batch import failed: %w", err)
		}

		for _, obj := range result {
			if obj.Result != nil && obj.Result.Errors == nil {
				written++
			}
		}
	}

	x.logger.Debug("chunks upserted", "written", written, "total", len(chunks))
	return written, nil
}

// chunkObjectID derives a stable Weaviate object ID from chunk coordinates.
func chunkObjectID(chunk index.Chunk) strfmt.UUID {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s/%s/%d", chunk.CourseID, chunk.DocumentID, chunk.Position)))
	id, err := uuid.FromBytes(hash[:16])
	if err != nil {
		// 16 bytes always form a valid UUID
		panic(err)
	}
	return strfmt.UUID(id.String())
}

// DeleteDocument removes all chunks of one document.
func (x *Index) DeleteDocument(ctx context.Context, courseID uuid.UUID, documentID string) error {
	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"courseId"}).
				WithOperator(filters.Equal).
				WithValueString(courseID.String()),
			filters.Where().
				WithPath([]string{"documentId"}).
				WithOperator(filters.Equal).
				WithValueString(documentID),
		})

	_, err := x.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		x.logger.Error("document delete failed", "course", courseID, "document", documentID, "err", err)
		return fmt.Errorf("weaviate delete failed: %w", err)
	}
	return nil
}

// Close releases client resources.
// Currently a no-op as the client holds no persistent connections.
func (x *Index) Close() error {
	return nil
}
