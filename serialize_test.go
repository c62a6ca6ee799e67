package bloomr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeRoundtripEmpty(t *testing.T) {
	original := mustNew(t, 1000, 4)

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	restored, err := UnmarshalBinary(data)
	require.NoError(t, err)

	require.Equal(t, original.Cap(), restored.Cap())
	require.Equal(t, original.K(), restored.K())
	require.Equal(t, original.Count(), restored.Count())
	require.Equal(t, original.HashFamily(), restored.HashFamily())
	require.Zero(t, restored.FracFilled())
	require.True(t, restored.Equal(original))
}

func TestSerializeRoundtripWithData(t *testing.T) {
	for _, family := range []HashFamily{XXH3, Murmur3} {
		t.Run(family.String(), func(t *testing.T) {
			original := mustNew(t, 50000, 6, WithHashFamily(family))

			items := []string{"hello", "world", "foo", "bar", "baz", "qux"}
			original.Add(items...)
			for i := range 1000 {
				original.AddString(fmt.Sprintf("item-%d", i))
			}

			data, err := original.MarshalBinary()
			require.NoError(t, err)

			restored, err := UnmarshalBinary(data)
			require.NoError(t, err)
			require.True(t, restored.Equal(original))
			require.Equal(t, uint64(1006), restored.Count())

			// Verify all added items are still present (no false negatives)
			for i, ok := range restored.Check(items...) {
				require.True(t, ok, "false negative for %q after deserialization", items[i])
			}
			for i := range 1000 {
				require.True(t, restored.TestString(fmt.Sprintf("item-%d", i)))
			}

			require.Equal(t, original.FracFilled(), restored.FracFilled())

			probes := make([]string, 500)
			for i := range probes {
				probes[i] = fmt.Sprintf("probe-%d", i)
			}
			require.Equal(t, original.Check(probes...), restored.Check(probes...))
		})
	}
}

func TestSerializeRoundtripAfterClear(t *testing.T) {
	original := mustNew(t, 777, 3)
	original.Add("a", "b", "c")
	original.Clear()
	original.Add("d")

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	restored, err := UnmarshalBinary(data)
	require.NoError(t, err)
	require.True(t, restored.Equal(original))
	require.Equal(t, uint64(4), restored.Count())
}

func TestSerializeRoundtripVariousSizes(t *testing.T) {
	// Sizes straddle word boundaries.
	for _, m := range []uint64{1, 63, 64, 65, 127, 128, 129, 1000, 65536} {
		t.Run(fmt.Sprintf("m=%d", m), func(t *testing.T) {
			original := mustNew(t, m, 3)
			for i := range int(m/4) + 1 {
				original.AddString(fmt.Sprintf("size-test-%d", i))
			}

			data, err := original.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, data, headerSize+int(wordCount(m))*8)

			restored, err := UnmarshalBinary(data)
			require.NoError(t, err)
			require.True(t, restored.Equal(original))
		})
	}
}

func TestSerializeCanAddAfterDeserialize(t *testing.T) {
	original := mustNew(t, 4096, 4)
	original.Add("before")

	data, err := original.MarshalBinary()
	require.NoError(t, err)

	restored, err := UnmarshalBinary(data)
	require.NoError(t, err)

	restored.Add("after")
	require.Equal(t, []bool{true, true}, restored.Check("before", "after"))
	require.Equal(t, uint64(2), restored.Count())

	// The original is unaffected.
	require.Equal(t, uint64(1), original.Count())
}

func TestSerializeDataFormat(t *testing.T) {
	f := mustNew(t, 100, 5, WithHashFamily(Murmur3))
	f.Add("x", "y")

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	require.Equal(t, "BLMR", string(data[0:4]))
	require.Equal(t, serializeVersion, data[4])
	require.Equal(t, byte(Murmur3), data[5])
	require.Equal(t, []byte{0, 0}, data[6:8])
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(data[8:12]))
	require.Equal(t, uint64(100), binary.LittleEndian.Uint64(data[12:20]))
	require.Equal(t, uint64(2), binary.LittleEndian.Uint64(data[20:28]))
	require.Len(t, data, headerSize+2*8)

	// Every set bit lands where Index says it should.
	for _, key := range []string{"x", "y"} {
		for i := uint32(0); i < 5; i++ {
			idx := Index(Murmur3, key, i, 100)
			word := binary.LittleEndian.Uint64(data[headerSize+8*(idx/64):])
			require.NotZero(t, word&(1<<(idx%64)), "bit %d for %q/%d not set", idx, key, i)
		}
	}
}

func TestSerializeIdempotent(t *testing.T) {
	f := mustNew(t, 2048, 4)
	for i := range 100 {
		f.AddString(fmt.Sprintf("item-%d", i))
	}

	data1, err := f.MarshalBinary()
	require.NoError(t, err)
	data2, err := f.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data1, data2)

	restored, err := UnmarshalBinary(data1)
	require.NoError(t, err)
	data3, err := restored.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data1, data3)
}

// validRecord returns a serialized 100-bit filter with a few keys.
func validRecord(t *testing.T) []byte {
	t.Helper()
	f := mustNew(t, 100, 3)
	f.Add("a", "b")
	data, err := f.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestUnmarshalBinaryRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		is     []error
	}{
		{"empty", func([]byte) []byte { return nil }, []error{ErrInvalidData}},
		{"short header", func(d []byte) []byte { return d[:headerSize-1] }, []error{ErrInvalidData}},
		{"truncated bits", func(d []byte) []byte { return d[:len(d)-1] }, []error{ErrInvalidData}},
		{"trailing bytes", func(d []byte) []byte { return append(d, 0) }, []error{ErrInvalidData}},
		{"bad magic", func(d []byte) []byte { d[0] = 'X'; return d }, []error{ErrInvalidData, ErrBadMagic}},
		{"bad version", func(d []byte) []byte { d[4] = 99; return d }, []error{ErrInvalidData, ErrUnsupportedVersion}},
		{"unknown family", func(d []byte) []byte { d[5] = 7; return d }, []error{ErrInvalidData}},
		{"reserved set", func(d []byte) []byte { d[7] = 1; return d }, []error{ErrInvalidData}},
		{"zero k", func(d []byte) []byte { binary.LittleEndian.PutUint32(d[8:12], 0); return d }, []error{ErrInvalidData}},
		{"zero m", func(d []byte) []byte { binary.LittleEndian.PutUint64(d[12:20], 0); return d }, []error{ErrInvalidData}},
		{"huge m", func(d []byte) []byte { binary.LittleEndian.PutUint64(d[12:20], MaxBits+1); return d }, []error{ErrInvalidData}},
		{"m disagrees with length", func(d []byte) []byte { binary.LittleEndian.PutUint64(d[12:20], 1000); return d }, []error{ErrInvalidData}},
		{"padding bit set", func(d []byte) []byte {
			// m=100 leaves bits 100..127 of the second word unused.
			last := headerSize + 8
			w := binary.LittleEndian.Uint64(d[last:])
			binary.LittleEndian.PutUint64(d[last:], w|1<<63)
			return d
		}, []error{ErrInvalidData}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := UnmarshalBinary(tt.mutate(validRecord(t)))
			require.Error(t, err)
			require.Nil(t, f)
			for _, target := range tt.is {
				require.ErrorIs(t, err, target)
			}
			require.NotErrorIs(t, err, ErrIO)
		})
	}
}

func TestWriteToReadFrom(t *testing.T) {
	a := mustNew(t, 300, 3)
	a.Add("one", "two")
	b := mustNew(t, 65, 2, WithHashFamily(Murmur3))
	b.Add("three")

	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(headerSize+5*8), n)
	_, err = b.WriteTo(&buf)
	require.NoError(t, err)

	// Records are read back one at a time from the same stream.
	gotA, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.True(t, gotA.Equal(a))

	gotB, err := ReadFrom(&buf)
	require.NoError(t, err)
	require.True(t, gotB.Equal(b))

	_, err = ReadFrom(&buf)
	require.ErrorIs(t, err, ErrInvalidData)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFromTruncated(t *testing.T) {
	data := validRecord(t)

	_, err := ReadFrom(bytes.NewReader(data[:len(data)-3]))
	require.ErrorIs(t, err, ErrInvalidData)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadFrom(bytes.NewReader(data[:10]))
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestReadFromForgedSize(t *testing.T) {
	data := validRecord(t)
	binary.LittleEndian.PutUint64(data[12:20], MaxBits)

	// The stream is far shorter than m claims; this must fail without
	// allocating the full bit array.
	_, err := ReadFrom(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrInvalidData)
}

func FuzzSerializeRoundtrip(f *testing.F) {
	f.Add(uint64(100), uint32(3), uint8(0), "hello")
	f.Add(uint64(1), uint32(1), uint8(1), "")
	f.Add(uint64(4097), uint32(9), uint8(1), "fuzz")

	f.Fuzz(func(t *testing.T, m uint64, k uint32, family uint8, key string) {
		m = m%100000 + 1
		k = k%16 + 1
		filter, err := New(m, k, WithHashFamily(HashFamily(family%2)))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		filter.Add(key, key+"-suffix")

		data, err := filter.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		restored, err := UnmarshalBinary(data)
		if err != nil {
			t.Fatalf("UnmarshalBinary failed: %v", err)
		}
		if !restored.Equal(filter) {
			t.Fatal("roundtrip changed the filter")
		}
		if !restored.TestString(key) {
			t.Fatalf("false negative for %q", key)
		}
	})
}

func FuzzUnmarshalBinaryInvalid(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("BLMR"))
	f.Add(make([]byte, headerSize))
	f.Add(make([]byte, headerSize+8))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Must never panic; a successful decode must re-encode identically.
		filter, err := UnmarshalBinary(data)
		if err != nil {
			if filter != nil {
				t.Fatal("non-nil filter returned with error")
			}
			return
		}
		out, err := filter.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatal("decode/encode not lossless")
		}
		if fill := filter.FracFilled(); fill < 0 || fill > 1 {
			t.Fatalf("fill ratio out of range: %f", fill)
		}
	})
}
