package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/storage"
)

func TestCourseBasics(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	ownerID := uuid.New()

	course := &core.Course{
		OwnerID: ownerID,
		Name:    "Intro to Biology",
	}

	added, err := courseRepo.AddCourse(ctx, course)
	if err != nil {
		t.Fatalf("Failed to add course: %v", err)
	}

	if added.ID == uuid.Nil {
		t.Fatal("Expected a generated course ID")
	}
	if added.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}

	retrieved, err := courseRepo.GetCourse(ctx, added.ID)
	if err != nil {
		t.Fatalf("Failed to get course: %v", err)
	}

	if retrieved.Name != "Intro to Biology" {
		t.Fatalf("Expected 'Intro to Biology', got '%s'", retrieved.Name)
	}
	if retrieved.OwnerID != ownerID {
		t.Fatalf("Expected owner %s, got %s", ownerID, retrieved.OwnerID)
	}
}

func TestCourseNotFound(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	_, err = courseRepo.GetCourse(context.Background(), uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCourseDuplicate(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	course := &core.Course{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    "Chemistry",
	}

	if _, err := courseRepo.AddCourse(ctx, course); err != nil {
		t.Fatalf("Failed to add course: %v", err)
	}

	_, err = courseRepo.AddCourse(ctx, course)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestListCoursesByOwner(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	for _, name := range []string{"Algebra", "Geometry"} {
		if _, err := courseRepo.AddCourse(ctx, &core.Course{OwnerID: alice, Name: name}); err != nil {
			t.Fatalf("Failed to add course '%s': %v", name, err)
		}
	}
	if _, err := courseRepo.AddCourse(ctx, &core.Course{OwnerID: bob, Name: "History"}); err != nil {
		t.Fatalf("Failed to add course: %v", err)
	}

	courses, err := courseRepo.ListCourses(ctx, alice)
	if err != nil {
		t.Fatalf("Failed to list courses: %v", err)
	}

	if len(courses) != 2 {
		t.Fatalf("Expected 2 courses, got %d", len(courses))
	}
	for _, course := range courses {
		if course.OwnerID != alice {
			t.Fatalf("Got course with wrong owner: %s", course.OwnerID)
		}
	}
}

func TestDeleteCourse(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	ownerID := uuid.New()

	added, err := courseRepo.AddCourse(ctx, &core.Course{OwnerID: ownerID, Name: "Physics"})
	if err != nil {
		t.Fatalf("Failed to add course: %v", err)
	}

	if err := courseRepo.DeleteCourse(ctx, added.ID); err != nil {
		t.Fatalf("Failed to delete course: %v", err)
	}

	_, err = courseRepo.GetCourse(ctx, added.ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	courses, err := courseRepo.ListCourses(ctx, ownerID)
	if err != nil {
		t.Fatalf("Failed to list courses: %v", err)
	}
	if len(courses) != 0 {
		t.Fatalf("Expected owner index to be cleared, got %d courses", len(courses))
	}
}

func TestCourseValidation(t *testing.T) {
	turnRepo, courseRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		courseRepo.Close()
		turnRepo.Close()
		backend.Close()
	}()

	_, err = courseRepo.AddCourse(context.Background(), &core.Course{
		OwnerID: uuid.New(),
		Name:    "",
	})
	if !errors.Is(err, core.ErrEmptyCourseName) {
		t.Fatalf("Expected ErrEmptyCourseName, got %v", err)
	}
}
