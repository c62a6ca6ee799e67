package bloomr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
)

// Serialization constants and errors.
const (
	// magic identifies a serialized filter.
	magic = "BLMR"

	// serializeVersion is the current serialization format version.
	serializeVersion byte = 1

	// headerSize is the size of the serialization header in bytes.
	// Magic (4) + Version (1) + Family (1) + Reserved (2) + K (4) + M (8) + Count (8) = 28 bytes
	headerSize = 28
)

var (
	// ErrInvalidData is returned when the serialized data is invalid or corrupted.
	ErrInvalidData = errors.New("bloomr: invalid serialized data")

	// ErrBadMagic is returned when the data does not start with the filter magic.
	ErrBadMagic = errors.New("bloomr: bad magic")

	// ErrUnsupportedVersion is returned when the serialization version is not supported.
	ErrUnsupportedVersion = errors.New("bloomr: unsupported serialization version")
)

// wordCount returns the number of 64-bit words needed to hold m bits.
func wordCount(m uint64) uint64 {
	return (m + 63) / 64
}

// MarshalBinary serializes the bloom filter to a byte slice.
// The serialized format is:
//   - Magic (4 bytes): "BLMR"
//   - Version (1 byte): serialization format version
//   - Family (1 byte): hash family
//   - Reserved (2 bytes): zero
//   - K (4 bytes): number of hash functions (little-endian uint32)
//   - M (8 bytes): number of bits (little-endian uint64)
//   - Count (8 bytes): number of keys added (little-endian uint64)
//   - Bits (ceil(M/64) * 8 bytes): the bit array (little-endian uint64s,
//     bit i is bit i%64 of word i/64)
func (f *Filter) MarshalBinary() ([]byte, error) {
	words := f.bits.Bytes()
	buf := make([]byte, headerSize+wordCount(f.m)*8)

	// Write header
	copy(buf[0:4], magic)
	buf[4] = serializeVersion
	buf[5] = byte(f.family)
	binary.LittleEndian.PutUint32(buf[8:12], f.k)
	binary.LittleEndian.PutUint64(buf[12:20], f.m)
	binary.LittleEndian.PutUint64(buf[20:28], f.count)

	// Write bit data
	offset := headerSize
	for _, word := range words {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], word)
		offset += 8
	}

	return buf, nil
}

// header is the decoded fixed-size prefix of a serialized filter.
type header struct {
	family HashFamily
	k      uint32
	m      uint64
	count  uint64
}

// decodeHeader validates the fixed-size header at the start of data.
func decodeHeader(data []byte) (header, error) {
	if len(data) < headerSize {
		return header{}, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), headerSize)
	}

	if string(data[0:4]) != magic {
		return header{}, fmt.Errorf("%w: %w: got %q", ErrInvalidData, ErrBadMagic, data[0:4])
	}
	if version := data[4]; version != serializeVersion {
		return header{}, fmt.Errorf("%w: %w: got version %d, expected %d", ErrInvalidData, ErrUnsupportedVersion, version, serializeVersion)
	}

	h := header{
		family: HashFamily(data[5]),
		k:      binary.LittleEndian.Uint32(data[8:12]),
		m:      binary.LittleEndian.Uint64(data[12:20]),
		count:  binary.LittleEndian.Uint64(data[20:28]),
	}
	if !h.family.Valid() {
		return header{}, fmt.Errorf("%w: unknown hash family %d", ErrInvalidData, data[5])
	}
	if data[6] != 0 || data[7] != 0 {
		return header{}, fmt.Errorf("%w: reserved header bytes are not zero", ErrInvalidData)
	}
	if h.k == 0 {
		return header{}, fmt.Errorf("%w: k cannot be zero", ErrInvalidData)
	}
	if h.m == 0 {
		return header{}, fmt.Errorf("%w: m cannot be zero", ErrInvalidData)
	}
	if h.m > MaxBits {
		return header{}, fmt.Errorf("%w: m too large (%d)", ErrInvalidData, h.m)
	}
	return h, nil
}

// UnmarshalBinary deserializes a bloom filter from a byte slice.
// Returns an error if the data is invalid or corrupted; no filter is
// returned in that case.
func UnmarshalBinary(data []byte) (*Filter, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	// Validate data length (safe from overflow now that m is bounded)
	expectedTotalLen := headerSize + wordCount(h.m)*8
	if uint64(len(data)) != expectedTotalLen {
		return nil, fmt.Errorf("%w: data length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(data), expectedTotalLen)
	}

	words := make([]uint64, wordCount(h.m))
	offset := headerSize
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
	}

	// Bits past m must never be set.
	if tail := h.m % 64; tail != 0 {
		if words[len(words)-1]>>tail != 0 {
			return nil, fmt.Errorf("%w: bits set beyond filter capacity", ErrInvalidData)
		}
	}

	return &Filter{
		bits:   bitset.FromWithLength(uint(h.m), words),
		m:      h.m,
		k:      h.k,
		count:  h.count,
		family: h.family,
	}, nil
}

// WriteTo writes the serialized filter to w. It implements io.WriterTo.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	buf, err := f.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads one serialized filter from r, consuming exactly one record.
func ReadFrom(r io.Reader) (*Filter, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrInvalidData, err)
	}
	h, err := decodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	// Read through a limit so a forged m cannot force a huge allocation
	// before the stream runs dry.
	need := int64(wordCount(h.m) * 8)
	body, err := io.ReadAll(io.LimitReader(r, need))
	if err != nil {
		return nil, fmt.Errorf("%w: reading bits: %w", ErrInvalidData, err)
	}
	if int64(len(body)) != need {
		return nil, fmt.Errorf("%w: reading bits: %w", ErrInvalidData, io.ErrUnexpectedEOF)
	}
	return UnmarshalBinary(append(hdr, body...))
}
