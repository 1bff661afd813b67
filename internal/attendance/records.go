package attendance

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"ms-attendance/internal/ledger"
)

const (
	KindEvent        = "Event"
	KindRegistration = "EventRegistration"

	MaxNameLength        = 32
	MaxDescriptionLength = 64
	MaxURILength         = 64

	layoutVersion = 1
	tagSize       = 8
	headerSize    = tagSize + 1

	// EventSize and RegistrationSize are the fixed stored sizes, header included.
	EventSize = headerSize + 32 + (4 + MaxNameLength) + (4 + MaxDescriptionLength) + (4 + MaxURILength) +
		32 + 8 + 8 + 4 + 4 + 32
	RegistrationSize = headerSize + 32 + 32 + 1 + 1 + 1
)

var (
	eventTag        = recordTag(KindEvent)
	registrationTag = recordTag(KindRegistration)
)

func recordTag(name string) [tagSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var tag [tagSize]byte
	copy(tag[:], sum[:tagSize])
	return tag
}

type Event struct {
	Creator             ledger.Address
	Name                string
	Description         string
	URI                 string
	AttendanceCode      [32]byte
	StartTime           int64
	EndTime             int64
	TotalAttendees      uint32
	RegisteredAttendees uint32
	CollectionAuthority ledger.Address
}

type EventRegistration struct {
	Event            ledger.Address
	Attendee         ledger.Address
	Registered       bool
	Attended         bool
	CredentialMinted bool
}

// MarshalBinary lays the event out in declaration order, padded to EventSize.
func (e *Event) MarshalBinary() ([]byte, error) {
	if err := e.checkBounds(); err != nil {
		return nil, err
	}
	w := newWriter(EventSize, eventTag)
	w.bytes(e.Creator[:])
	w.string(e.Name, MaxNameLength)
	w.string(e.Description, MaxDescriptionLength)
	w.string(e.URI, MaxURILength)
	w.bytes(e.AttendanceCode[:])
	w.i64(e.StartTime)
	w.i64(e.EndTime)
	w.u32(e.TotalAttendees)
	w.u32(e.RegisteredAttendees)
	w.bytes(e.CollectionAuthority[:])
	return w.buf, nil
}

func (e *Event) checkBounds() error {
	if len(e.Name) > MaxNameLength || len(e.Description) > MaxDescriptionLength || len(e.URI) > MaxURILength {
		return fmt.Errorf("%w: name %d, description %d, uri %d bytes",
			ErrRecordTooLarge, len(e.Name), len(e.Description), len(e.URI))
	}
	return nil
}

func (e *Event) UnmarshalBinary(data []byte) error {
	r, err := newReader(data, EventSize, eventTag)
	if err != nil {
		return err
	}
	r.bytes(e.Creator[:])
	e.Name = r.string(MaxNameLength)
	e.Description = r.string(MaxDescriptionLength)
	e.URI = r.string(MaxURILength)
	r.bytes(e.AttendanceCode[:])
	e.StartTime = r.i64()
	e.EndTime = r.i64()
	e.TotalAttendees = r.u32()
	e.RegisteredAttendees = r.u32()
	r.bytes(e.CollectionAuthority[:])
	return r.err
}

func (r *EventRegistration) MarshalBinary() ([]byte, error) {
	w := newWriter(RegistrationSize, registrationTag)
	w.bytes(r.Event[:])
	w.bytes(r.Attendee[:])
	w.bool(r.Registered)
	w.bool(r.Attended)
	w.bool(r.CredentialMinted)
	return w.buf, nil
}

func (r *EventRegistration) UnmarshalBinary(data []byte) error {
	rd, err := newReader(data, RegistrationSize, registrationTag)
	if err != nil {
		return err
	}
	rd.bytes(r.Event[:])
	rd.bytes(r.Attendee[:])
	r.Registered = rd.bool()
	r.Attended = rd.bool()
	r.CredentialMinted = rd.bool()
	return rd.err
}

type writer struct {
	buf []byte
	off int
}

func newWriter(size int, tag [tagSize]byte) *writer {
	w := &writer{buf: make([]byte, size)}
	w.bytes(tag[:])
	w.buf[w.off] = layoutVersion
	w.off++
	return w
}

func (w *writer) bytes(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

// string writes a length-prefixed value and skips the padding reserved up to max.
func (w *writer) string(s string, max int) {
	w.u32(uint32(len(s)))
	w.bytes([]byte(s))
	w.off += max - len(s)
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) i64(v int64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], uint64(v))
	w.off += 8
}

func (w *writer) bool(v bool) {
	if v {
		w.buf[w.off] = 1
	}
	w.off++
}

// reader records the first error and turns every later read into a no-op.
type reader struct {
	buf []byte
	off int
	err error
}

func newReader(data []byte, size int, tag [tagSize]byte) (*reader, error) {
	if len(data) < tagSize {
		return nil, ErrAccountDidNotDeserialize
	}
	if [tagSize]byte(data[:tagSize]) != tag {
		return nil, ErrAccountDiscriminatorMismatch
	}
	if len(data) < size || data[tagSize] != layoutVersion {
		return nil, ErrAccountDidNotDeserialize
	}
	return &reader{buf: data, off: headerSize}, nil
}

func (r *reader) take(n int) []byte {
	if r.err != nil || r.off+n > len(r.buf) {
		r.err = ErrAccountDidNotDeserialize
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) bytes(dst []byte) {
	copy(dst, r.take(len(dst)))
}

func (r *reader) string(max int) string {
	n := r.u32()
	if n > uint32(max) {
		r.err = ErrAccountDidNotDeserialize
		return ""
	}
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	r.take(max - int(n))
	return string(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (r *reader) bool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}
