package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/storage"
)

// CourseRepository implements storage.CourseRepository for BadgerDB.
type CourseRepository struct {
	backend *Backend
}

var _ storage.CourseRepository = (*CourseRepository)(nil)

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(backend *Backend) *CourseRepository {
	return &CourseRepository{backend: backend}
}

// Close is a no-op: the repository holds no resources of its own.
func (r *CourseRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *CourseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCourse stores a new course and its owner index entry.
func (r *CourseRepository) AddCourse(ctx context.Context, course *core.Course) (*core.Course, error) {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	if err := core.ValidateCourse(course); err != nil {
		return nil, err
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	course.UpdatedAt = course.CreatedAt

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCourseKey(course.ID)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		value := storage.MarshalCourse(course)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		ownerKey := makeCourseOwnerKey(course.OwnerID, course.ID)
		if err := tx.Set(ownerKey, course.ID[:]); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return course, nil
}

// GetCourse retrieves a course by ID.
func (r *CourseRepository) GetCourse(ctx context.Context, id uuid.UUID) (*core.Course, error) {
	var result *core.Course
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readCourse(tx, makeCourseKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListCourses retrieves all courses belonging to an owner.
func (r *CourseRepository) ListCourses(ctx context.Context, ownerID uuid.UUID) ([]*core.Course, error) {
	var results []*core.Course
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialCourseOwnerKey(ownerID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var courseID uuid.UUID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				courseID, err = uuid.FromBytes(val)
				return err
			}); err != nil {
				return err
			}

			course, err := r.readCourse(tx, makeCourseKey(courseID))
			if err != nil {
				return err
			}
			if course == nil {
				continue
			}
			results = append(results, course)
		}
		return nil
	}, false)
	return results, err
}

// DeleteCourse removes a course record and its owner index entry.
// The course's turns are not touched here, use TurnRepository.DeleteCourseTurns.
func (r *CourseRepository) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCourseKey(id)
		course, err := r.readCourse(tx, key)
		if err != nil {
			return err
		}
		if course == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeCourseOwnerKey(course.OwnerID, course.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readCourse reads a course from the transaction.
func (r *CourseRepository) readCourse(tx *badger.Txn, key []byte) (*core.Course, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var course *core.Course
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		course, unmarshalErr = storage.UnmarshalCourse(val)
		return unmarshalErr
	})
	return course, err
}
