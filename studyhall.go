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

// Package studyhall wires the storage backend, the AI provider and the
// vector index into the question answering and ingestion services.
package studyhall

import (
	"context"
	"log/slog"

	"github.com/poiesic/studyhall/ai"
	"github.com/poiesic/studyhall/ai/openai"
	"github.com/poiesic/studyhall/cache"
	"github.com/poiesic/studyhall/chat"
	"github.com/poiesic/studyhall/index"
	"github.com/poiesic/studyhall/index/weaviate"
	"github.com/poiesic/studyhall/ingest"
	"github.com/poiesic/studyhall/retrieve"
	"github.com/poiesic/studyhall/storage"
	"github.com/poiesic/studyhall/storage/badger"
)

// Studyhall owns every long-lived component and hands out the services
// built on top of them.
type Studyhall struct {
	backend    *badger.Backend
	turnRepo   storage.TurnRepository
	courseRepo storage.CourseRepository
	provider   ai.Provider
	idx        index.Index
	logger     *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	aiConfig    *ai.Config
	indexHost   string
	indexScheme string
	idx         index.Index
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *openOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithIndexAddress points the vector index at a specific Weaviate instance.
// Default is localhost:8080 over http.
func WithIndexAddress(host, scheme string) Option {
	return func(o *openOptions) {
		o.indexHost = host
		o.indexScheme = scheme
	}
}

// WithIndex injects an already-constructed vector index instead of
// connecting to Weaviate.
func WithIndex(idx index.Index) Option {
	return func(o *openOptions) {
		o.idx = idx
	}
}

// Open creates a Studyhall rooted at the given data directory.
func Open(ctx context.Context, dataPath string, opts ...Option) (*Studyhall, error) {
	options := &openOptions{
		aiConfig:    ai.DefaultConfig(),
		indexHost:   "localhost:8080",
		indexScheme: "http",
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dataPath, false)
	if err != nil {
		return nil, err
	}

	turnRepo, err := badger.NewTurnRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	courseRepo := badger.NewCourseRepository(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
		return nil, err
	}

	idx := options.idx
	if idx == nil {
		idx, err = weaviate.NewIndex(ctx, options.indexHost, options.indexScheme)
		if err != nil {
			provider.Close()
			courseRepo.Close()
			turnRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Studyhall{
		backend:    backend,
		turnRepo:   turnRepo,
		courseRepo: courseRepo,
		provider:   provider,
		idx:        idx,
		logger:     slog.Default(),
	}, nil
}

// Close releases every component. The Studyhall must not be used after.
func (s *Studyhall) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.idx.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
	}

	if err := s.courseRepo.Close(); err != nil {
		s.logger.Error("error closing course repository", "err", err)
		return err
	}
	if err := s.turnRepo.Close(); err != nil {
		s.logger.Error("error closing turn repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Studyhall) TurnRepository() storage.TurnRepository {
	return s.turnRepo
}

func (s *Studyhall) CourseRepository() storage.CourseRepository {
	return s.courseRepo
}

func (s *Studyhall) Index() index.Index {
	return s.idx
}

// NewChatService builds a question answering service backed by this
// Studyhall's repositories, provider and index.
func (s *Studyhall) NewChatService(opts ...chat.Option) (*chat.Service, error) {
	responseCache, err := cache.NewCache(s.turnRepo)
	if err != nil {
		return nil, err
	}
	retriever, err := retrieve.NewRetriever(s.idx)
	if err != nil {
		return nil, err
	}
	return chat.NewService(s.turnRepo, s.courseRepo, s.provider, responseCache, retriever, opts...)
}

// NewIngestPipeline builds a document ingestion pipeline writing to this
// Studyhall's index.
func (s *Studyhall) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.idx, s.provider, opts...)
}
