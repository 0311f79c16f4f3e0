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

package main

import (
	"fmt"
	"iter"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/studyhall"
	"github.com/poiesic/studyhall/ai"
	"github.com/poiesic/studyhall/chat"
	"github.com/poiesic/studyhall/core"
)

func main() {
	app := &cli.App{
		Name:  "studyhall",
		Usage: "Question answering over your own course materials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./studyhall_db",
			},
			&cli.StringFlag{
				Name:  "index-host",
				Usage: "Weaviate host for the vector index",
				Value: "localhost:8080",
			},
			&cli.StringFlag{
				Name:  "index-scheme",
				Usage: "Weaviate connection scheme",
				Value: "http",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "OpenAI-compatible service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat model name",
				Value: "qwen2.5:3b",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Ask a question about a course's materials",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(identityFlags(),
					&cli.StringSliceFlag{
						Name:  "doc",
						Usage: "Restrict retrieval to specific document IDs (repeatable)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of context chunks to retrieve",
					},
				),
			},
			{
				Name:   "continue",
				Usage:  "Continue the course's last truncated answer",
				Action: continueCommand,
				Flags:  identityFlags(),
			},
			{
				Name:      "ingest",
				Usage:     "Index a document file for a course",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document ID (defaults to the file name)",
					},
				},
			},
			{
				Name:  "courses",
				Usage: "Manage courses",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create a course",
						Action: courseCreateCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "owner",
								Aliases:  []string{"u"},
								Usage:    "Owner user ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "name",
								Aliases:  []string{"n"},
								Usage:    "Course name",
								Required: true,
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List courses owned by a user",
						Action: courseListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "owner",
								Aliases:  []string{"u"},
								Usage:    "Owner user ID",
								Required: true,
							},
						},
					},
					{
						Name:   "delete",
						Usage:  "Delete a course and its conversation history",
						Action: courseDeleteCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "course",
								Aliases:  []string{"c"},
								Usage:    "Course ID",
								Required: true,
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// identityFlags are shared by the commands that act on behalf of a user
// within one course.
func identityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "course",
			Aliases:  []string{"c"},
			Usage:    "Course ID",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "user",
			Aliases:  []string{"u"},
			Usage:    "User ID of the caller",
			Required: true,
		},
	}
}

func openStudyhall(c *cli.Context) (*studyhall.Studyhall, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	sh, err := studyhall.Open(c.Context, c.String("db"),
		studyhall.WithAIConfig(config),
		studyhall.WithIndexAddress(c.String("index-host"), c.String("index-scheme")))
	if err != nil {
		return nil, fmt.Errorf("failed to open studyhall: %w", err)
	}
	return sh, nil
}

func parseID(c *cli.Context, flag string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String(flag))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID %q: %w", flag, c.String(flag), err)
	}
	return id, nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	courseID, err := parseID(c, "course")
	if err != nil {
		return err
	}
	userID, err := parseID(c, "user")
	if err != nil {
		return err
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	service, err := sh.NewChatService()
	if err != nil {
		return err
	}

	events, err := service.Ask(c.Context, chat.Request{
		CourseID:    courseID,
		CallerID:    userID,
		Question:    question,
		DocumentIDs: c.StringSlice("doc"),
		TopK:        c.Int("top-k"),
	})
	if err != nil {
		return err
	}

	return renderStream(events)
}

func continueCommand(c *cli.Context) error {
	courseID, err := parseID(c, "course")
	if err != nil {
		return err
	}
	userID, err := parseID(c, "user")
	if err != nil {
		return err
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	service, err := sh.NewChatService()
	if err != nil {
		return err
	}

	events, err := service.Continue(c.Context, courseID, userID)
	if err != nil {
		return err
	}

	return renderStream(events)
}

// renderStream prints answer fragments as they arrive and maps a terminal
// error event to process failure.
func renderStream(events iter.Seq[chat.Event]) error {
	var failure *chat.Event
	for ev := range events {
		switch ev.Kind {
		case chat.EventData:
			fmt.Print(ev.Text)
		case chat.EventError:
			failure = &ev
		}
	}
	fmt.Println()

	if failure != nil {
		return cli.Exit(describeFailure(*failure), 1)
	}
	return nil
}

func describeFailure(ev chat.Event) string {
	switch ev.ErrorKind {
	case chat.ErrorKindUnauthorized:
		return "Error: you do not have access to this course."
	case chat.ErrorKindNoPreviousResponse:
		return "Error: there is no previous response to continue."
	case chat.ErrorKindNoRelevantContent:
		return "Error: no relevant course material was found for this question."
	default:
		if ev.Err != nil {
			return fmt.Sprintf("Error: %v", ev.Err)
		}
		return "Error: the request failed."
	}
}

func ingestCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("exactly one document file is required")
	}
	path := c.Args().First()

	courseID, err := parseID(c, "course")
	if err != nil {
		return err
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	documentID := c.String("id")
	if documentID == "" {
		documentID = filepath.Base(path)
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	pipeline, err := sh.NewIngestPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	chunks, err := pipeline.IngestDocument(c.Context, courseID, documentID, string(text))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexing %d chunks from %s...\n", chunks, path)
	if err := pipeline.Flush(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Done.\n")
	return nil
}

func courseCreateCommand(c *cli.Context) error {
	ownerID, err := parseID(c, "owner")
	if err != nil {
		return err
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	course, err := sh.CourseRepository().AddCourse(c.Context, &core.Course{
		OwnerID: ownerID,
		Name:    c.String("name"),
	})
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	fmt.Println(course.ID)
	return nil
}

func courseListCommand(c *cli.Context) error {
	ownerID, err := parseID(c, "owner")
	if err != nil {
		return err
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	courses, err := sh.CourseRepository().ListCourses(c.Context, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	for _, course := range courses {
		fmt.Printf("%s  %s\n", course.ID, course.Name)
	}
	return nil
}

func courseDeleteCommand(c *cli.Context) error {
	courseID, err := parseID(c, "course")
	if err != nil {
		return err
	}

	sh, err := openStudyhall(c)
	if err != nil {
		return err
	}
	defer sh.Close()

	if err := sh.TurnRepository().DeleteCourseTurns(c.Context, courseID); err != nil {
		return fmt.Errorf("failed to delete course turns: %w", err)
	}
	if err := sh.CourseRepository().DeleteCourse(c.Context, courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Deleted.")
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
