package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/studyhall/core"
)

// Key prefixes for different data types
const (
	turnRecordPrefix   = "turnrec"
	turnCoursePrefix   = "turncrs"
	turnIDSeq          = "turnrecseq"
	courseRecordPrefix = "crsrec"
	courseOwnerPrefix  = "crsown"
)

// makeTurnKey generates a key for a turn record by ID.
func makeTurnKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", turnRecordPrefix, id))
}

// makeTurnCourseKey generates a composite key for the per-course time index.
// Format: prefix:courseID:timestamp:id
// Timestamp and id are written BigEndian so lexicographic iteration over a
// course prefix walks turns in creation-time order.
func makeTurnCourseKey(courseID uuid.UUID, timestamp time.Time, id core.ID) []byte {
	prefix := turnCoursePrefix + ":"
	prefixSize := len(prefix)
	totalSize := prefixSize + 16 + 16 // course uuid + 8 bytes timestamp + 8 bytes ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], courseID[:])
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTurnCourseKey generates a per-course prefix for index scans.
// Format: prefix:courseID
func makePartialTurnCourseKey(courseID uuid.UUID) []byte {
	prefix := turnCoursePrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	copy(buf[offset:], courseID[:])
	return buf
}

// makeTurnCourseSeekKey generates the upper bound of a course's index range,
// used as the starting point for reverse iteration.
func makeTurnCourseSeekKey(courseID uuid.UUID) []byte {
	key := makeTurnCourseKey(courseID,
		time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC),
		core.ID(^uint64(0)))
	return key
}

// makeCourseKey generates a key for a course record by ID.
func makeCourseKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s:%s", courseRecordPrefix, id))
}

// makeCourseOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerID:courseID
func makeCourseOwnerKey(ownerID, courseID uuid.UUID) []byte {
	prefix := courseOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+32)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], ownerID[:])
	copy(buf[offset:], courseID[:])
	return buf
}

// makePartialCourseOwnerKey generates a per-owner prefix for index scans.
func makePartialCourseOwnerKey(ownerID uuid.UUID) []byte {
	prefix := courseOwnerPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	copy(buf[offset:], ownerID[:])
	return buf
}
