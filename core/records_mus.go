package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Turn and Course serializers are written by hand on top of the generated
// ID and Role serializers: musgen-go has no handling for the uuid.UUID
// fields. Field order here is the wire format; changing it breaks every
// stored record.

var (
	// TurnMUS is the Turn serializer.
	TurnMUS = turnMUS{}
	// CourseMUS is the Course serializer.
	CourseMUS = courseMUS{}

	uuidSer         = uuidMUS{}
	float32SliceMUS = ord.NewSliceSer[float32](raw.Float32)
)

func unixMicroUTC(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// uuidMUS encodes a UUID as its raw 16 bytes, no length prefix.
type uuidMUS struct{}

func (s uuidMUS) Marshal(v uuid.UUID, bs []byte) (n int) {
	return copy(bs, v[:])
}

func (s uuidMUS) Unmarshal(bs []byte) (v uuid.UUID, n int, err error) {
	n = copy(v[:], bs)
	if n < len(v) {
		err = mus.ErrTooSmallByteSlice
	}
	return
}

func (s uuidMUS) Size(v uuid.UUID) (size int) {
	return len(v)
}

func (s uuidMUS) Skip(bs []byte) (n int, err error) {
	var v uuid.UUID
	if len(bs) < len(v) {
		return 0, mus.ErrTooSmallByteSlice
	}
	return len(v), nil
}

type turnMUS struct{}

func (s turnMUS) Marshal(v Turn, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += uuidSer.Marshal(v.CourseID, bs[n:])
	n += IDMUS.Marshal(v.ExchangeID, bs[n:])
	n += RoleMUS.Marshal(v.Role, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += float32SliceMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (s turnMUS) Unmarshal(bs []byte) (v Turn, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.CourseID, n1, err = uuidSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ExchangeID, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Role, n1, err = RoleMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = float32SliceMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var tmp int64
	tmp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = unixMicroUTC(tmp)
	tmp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = unixMicroUTC(tmp)
	return
}

func (s turnMUS) Size(v Turn) (size int) {
	size = IDMUS.Size(v.Id)
	size += uuidSer.Size(v.CourseID)
	size += IDMUS.Size(v.ExchangeID)
	size += RoleMUS.Size(v.Role)
	size += ord.String.Size(v.Text)
	size += float32SliceMUS.Size(v.Vector)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return
}

type courseMUS struct{}

func (s courseMUS) Marshal(v Course, bs []byte) (n int) {
	n = uuidSer.Marshal(v.ID, bs)
	n += uuidSer.Marshal(v.OwnerID, bs[n:])
	n += ord.String.Marshal(v.Name, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return
}

func (s courseMUS) Unmarshal(bs []byte) (v Course, n int, err error) {
	var n1 int
	v.ID, n, err = uuidSer.Unmarshal(bs)
	if err != nil {
		return
	}
	v.OwnerID, n1, err = uuidSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var tmp int64
	tmp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = unixMicroUTC(tmp)
	tmp, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = unixMicroUTC(tmp)
	return
}

func (s courseMUS) Size(v Course) (size int) {
	size = uuidSer.Size(v.ID)
	size += uuidSer.Size(v.OwnerID)
	size += ord.String.Size(v.Name)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return
}
