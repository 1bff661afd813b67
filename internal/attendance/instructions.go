package attendance

import (
	"crypto/sha256"
	"encoding/binary"

	"ms-attendance/internal/ledger"
)

const selectorSize = 8

// Instruction is one decoded call into the program.
type Instruction interface {
	Kind() string
}

type InitializeEvent struct {
	Name                string
	Description         string
	URI                 string
	AttendanceCode      [32]byte
	StartTime           int64
	EndTime             int64
	TotalAttendees      uint32
	CollectionAuthority ledger.Address
}

type EditEvent struct {
	Name           string
	AttendanceCode [32]byte
	StartTime      int64
	EndTime        int64
	TotalAttendees uint32
}

type CloseEvent struct {
	Event ledger.Address
}

type RegisterEvent struct {
	Event ledger.Address
}

type CancelRegistration struct {
	Event ledger.Address
}

type MintNFT struct {
	Event          ledger.Address
	AttendanceCode [32]byte
}

func (InitializeEvent) Kind() string    { return "initialize_event" }
func (EditEvent) Kind() string          { return "edit_event" }
func (CloseEvent) Kind() string         { return "close_event" }
func (RegisterEvent) Kind() string      { return "register_event" }
func (CancelRegistration) Kind() string { return "cancel_registration" }
func (MintNFT) Kind() string            { return "mint_nft" }

// Selector is the 8-byte prefix that identifies an instruction on the wire.
func Selector(name string) [selectorSize]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var sel [selectorSize]byte
	copy(sel[:], sum[:selectorSize])
	return sel
}

var selectors = map[[selectorSize]byte]string{}

func init() {
	for _, ix := range []Instruction{
		InitializeEvent{}, EditEvent{}, CloseEvent{}, RegisterEvent{}, CancelRegistration{}, MintNFT{},
	} {
		selectors[Selector(ix.Kind())] = ix.Kind()
	}
}

// EncodeInstruction returns the wire bytes of ix and the record references
// that travel alongside them.
func EncodeInstruction(ix Instruction) ([]byte, []ledger.Address) {
	sel := Selector(ix.Kind())
	buf := append([]byte(nil), sel[:]...)

	switch ix := ix.(type) {
	case InitializeEvent:
		buf = appendString(buf, ix.Name)
		buf = appendString(buf, ix.Description)
		buf = appendString(buf, ix.URI)
		buf = append(buf, ix.AttendanceCode[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ix.StartTime))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ix.EndTime))
		buf = binary.LittleEndian.AppendUint32(buf, ix.TotalAttendees)
		buf = append(buf, ix.CollectionAuthority[:]...)
		return buf, nil
	case EditEvent:
		buf = appendString(buf, ix.Name)
		buf = append(buf, ix.AttendanceCode[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ix.StartTime))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ix.EndTime))
		buf = binary.LittleEndian.AppendUint32(buf, ix.TotalAttendees)
		return buf, nil
	case CloseEvent:
		return buf, []ledger.Address{ix.Event}
	case RegisterEvent:
		return buf, []ledger.Address{ix.Event}
	case CancelRegistration:
		return buf, []ledger.Address{ix.Event}
	case MintNFT:
		buf = append(buf, ix.AttendanceCode[:]...)
		return buf, []ledger.Address{ix.Event}
	}
	return buf, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// DecodeInstruction parses wire bytes. Instructions that act on an existing
// event take its address from accounts[0].
func DecodeInstruction(data []byte, accounts []ledger.Address) (Instruction, error) {
	if len(data) < selectorSize {
		return nil, ErrInstructionFallbackNotFound
	}
	name, ok := selectors[[selectorSize]byte(data[:selectorSize])]
	if !ok {
		return nil, ErrInstructionFallbackNotFound
	}
	r := &argReader{buf: data[selectorSize:]}

	var ix Instruction
	switch name {
	case "initialize_event":
		v := InitializeEvent{
			Name:        r.string(),
			Description: r.string(),
			URI:         r.string(),
		}
		r.bytes(v.AttendanceCode[:])
		v.StartTime = r.i64()
		v.EndTime = r.i64()
		v.TotalAttendees = r.u32()
		r.bytes(v.CollectionAuthority[:])
		ix = v
	case "edit_event":
		v := EditEvent{Name: r.string()}
		r.bytes(v.AttendanceCode[:])
		v.StartTime = r.i64()
		v.EndTime = r.i64()
		v.TotalAttendees = r.u32()
		ix = v
	default:
		if len(accounts) == 0 {
			return nil, ErrNotEnoughAccountKeys
		}
		event := accounts[0]
		switch name {
		case "close_event":
			ix = CloseEvent{Event: event}
		case "register_event":
			ix = RegisterEvent{Event: event}
		case "cancel_registration":
			ix = CancelRegistration{Event: event}
		case "mint_nft":
			v := MintNFT{Event: event}
			r.bytes(v.AttendanceCode[:])
			ix = v
		}
	}
	if r.failed {
		return nil, ErrInstructionDidNotDeserialize
	}
	return ix, nil
}

type argReader struct {
	buf    []byte
	failed bool
}

func (r *argReader) take(n int) []byte {
	if r.failed || n < 0 || n > len(r.buf) {
		r.failed = true
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *argReader) bytes(dst []byte) {
	copy(dst, r.take(len(dst)))
}

func (r *argReader) string() string {
	b := r.take(4)
	if b == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(b)
	if uint64(n) > uint64(len(r.buf)) {
		r.failed = true
		return ""
	}
	return string(r.take(int(n)))
}

func (r *argReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *argReader) i64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}
