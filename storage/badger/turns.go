package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
	"github.com/poiesic/studyhall/storage"
)

// TurnRepository implements storage.TurnRepository for BadgerDB.
type TurnRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TurnRepository = (*TurnRepository)(nil)

// NewTurnRepository creates a new TurnRepository.
func NewTurnRepository(backend *Backend) (*TurnRepository, error) {
	idSeq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, err
	}

	return &TurnRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TurnRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *TurnRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AppendTurns appends one or more turns to a course's conversation.
func (r *TurnRepository) AppendTurns(ctx context.Context, turns ...*core.Turn) ([]*core.Turn, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, turn := range turns {
			if err := core.ValidateTurn(turn); err != nil {
				return err
			}

			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			turn.Id = core.ID(nextID)

			if turn.CreatedAt.IsZero() {
				turn.CreatedAt = time.Now().UTC()
			}
			turn.UpdatedAt = turn.CreatedAt

			// Store primary record
			key := makeTurnKey(turn.Id)
			value := storage.MarshalTurn(turn)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update course-time index
			courseKey := makeTurnCourseKey(turn.CourseID, turn.CreatedAt, turn.Id)
			if err := tx.Set(courseKey, storage.MarshalID(turn.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return turns, nil
}

// UpdateTurnText replaces the text of an existing turn.
// The course-time index entry is left in place: continuation extends an
// answer without moving it in the conversation order, only UpdatedAt moves.
func (r *TurnRepository) UpdateTurnText(ctx context.Context, id core.ID, text string) (*core.Turn, error) {
	var result *core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTurnKey(id)

		turn, err := r.readTurn(tx, key)
		if err != nil {
			return err
		}
		if turn == nil {
			return storage.ErrNotFound
		}

		turn.Text = text
		turn.UpdatedAt = time.Now().UTC()

		value := storage.MarshalTurn(turn)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		result = turn
		return tx.Commit()
	}, true)

	return result, err
}

// GetTurn retrieves a single turn by ID.
func (r *TurnRepository) GetTurn(ctx context.Context, id core.ID) (*core.Turn, error) {
	var result *core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readTurn(tx, makeTurnKey(id))
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

// GetRecentTurns retrieves the N most recent turns for a course,
// ordered by creation time descending.
func (r *TurnRepository) GetRecentTurns(ctx context.Context, courseID uuid.UUID, limit int) ([]*core.Turn, error) {
	if limit < 1 {
		return nil, nil
	}

	var results []*core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := r.scanCourseDescending(tx, courseID, func(turn *core.Turn) bool {
			results = append(results, turn)
			return len(results) < limit
		})
		return err
	}, false)

	return results, err
}

// GetLastAnswerTurn retrieves the most recent answer turn for a course.
func (r *TurnRepository) GetLastAnswerTurn(ctx context.Context, courseID uuid.UUID) (*core.Turn, error) {
	var result *core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := r.scanCourseDescending(tx, courseID, func(turn *core.Turn) bool {
			if turn.Role == core.RoleAnswer {
				result = turn
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if !found || result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteCourseTurns removes all turns belonging to a course.
func (r *TurnRepository) DeleteCourseTurns(ctx context.Context, courseID uuid.UUID) error {
	// Collect first, then delete: badger iterators don't tolerate
	// deleting the key under the cursor.
	var recordKeys, indexKeys [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialTurnCourseKey(courseID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			recordKeys = append(recordKeys, makeTurnKey(recordID))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, key := range recordKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// scanCourseDescending iterates a course's turns newest-first, invoking
// visit for each one until visit returns false or the index is exhausted.
// Returns true if at least one turn was visited.
func (r *TurnRepository) scanCourseDescending(tx *badger.Txn, courseID uuid.UUID, visit func(*core.Turn) bool) (bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true

	iter := tx.NewIterator(opts)
	defer iter.Close()

	prefix := makePartialTurnCourseKey(courseID)
	startKey := makeTurnCourseSeekKey(courseID)

	visited := false
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}

		var recordID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			recordID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return visited, err
		}

		turn, err := r.readTurn(tx, makeTurnKey(recordID))
		if err != nil {
			return visited, err
		}
		if turn == nil {
			continue
		}

		visited = true
		if !visit(turn) {
			break
		}
	}
	return visited, nil
}

// readTurn reads a turn from the transaction.
func (r *TurnRepository) readTurn(tx *badger.Txn, key []byte) (*core.Turn, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var turn *core.Turn
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		turn, unmarshalErr = storage.UnmarshalTurn(val)
		return unmarshalErr
	})
	return turn, err
}
