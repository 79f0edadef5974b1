package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer/index"
)

// MagicBytes identifies a snapshot ("WTRX" on disk).
const (
	MagicBytes    uint32 = 0x58525457
	FormatVersion uint32 = 1
	HeaderSize    int    = 12
	FooterSize    int    = 4
)

// Maximum encoded string length; guards allocations when decoding damaged
// input.
const maxStringLength = 16 * 1024 * 1024

var (
	ErrInvalidFormat    = errors.New("invalid snapshot format")
	ErrVersionMismatch  = errors.New("snapshot version mismatch")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// Encode serialises tree into the snapshot format:
//
//	[4 bytes] Magic "WTRX"
//	[4 bytes] Version
//	[4 bytes] Record count
//	[body]    Records in pre-order
//	  [str]     Word
//	  [4 bytes] File count
//	  [files...]
//	    [str]     File identifier
//	    [4 bytes] Line count
//	    [4 bytes] Line number, repeated
//	[4 bytes] CRC-32 (IEEE) of the body
//
// Strings are a 4-byte length followed by the bytes. All integers are little
// endian.
func Encode(tree *index.Tree) ([]byte, error) {
	buf := make([]byte, HeaderSize, HeaderSize+tree.Size()*32)
	binary.LittleEndian.PutUint32(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(tree.Size()))

	count := 0
	it := tree.PreOrder()
	for it.HasNext() {
		rec, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("walking tree: %w", err)
		}
		buf, err = appendRecord(buf, rec)
		if err != nil {
			return nil, fmt.Errorf("encoding word %q: %w", rec.Word(), err)
		}
		count++
	}
	if count != tree.Size() {
		return nil, fmt.Errorf("tree size %d does not match %d reachable records", tree.Size(), count)
	}

	checksum := crc32.ChecksumIEEE(buf[HeaderSize:])
	buf = binary.LittleEndian.AppendUint32(buf, checksum)
	return buf, nil
}

func appendRecord(buf []byte, rec *index.Record) ([]byte, error) {
	buf, err := appendString(buf, rec.Word())
	if err != nil {
		return nil, err
	}
	files := rec.Files()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(files)))
	for _, file := range files {
		if buf, err = appendString(buf, file); err != nil {
			return nil, err
		}
		lines := rec.Lines(file)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(lines)))
		for _, line := range lines {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(line))
		}
	}
	return buf, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > maxStringLength {
		return nil, ErrInvalidFormat
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...), nil
}

// Decode rebuilds a tree from data produced by Encode. Re-inserting the
// records in pre-order reproduces the original shape.
func Decode(data []byte) (*index.Tree, error) {
	if len(data) < HeaderSize+FooterSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than header and footer", ErrInvalidFormat, len(data))
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %x", ErrInvalidFormat, magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, FormatVersion)
	}
	count := binary.LittleEndian.Uint32(data[8:12])

	body := data[HeaderSize : len(data)-FooterSize]
	want := binary.LittleEndian.Uint32(data[len(data)-FooterSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, got, want)
	}

	r := bytes.NewReader(body)
	tree := index.NewTree()
	for i := uint32(0); i < count; i++ {
		rec, err := readRecord(r)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		inserted, err := tree.Insert(rec)
		if err != nil {
			return nil, fmt.Errorf("inserting record %d: %w", i, err)
		}
		if !inserted {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrInvalidFormat, rec.Word())
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidFormat, r.Len())
	}
	return tree, nil
}

func readRecord(r *bytes.Reader) (*index.Record, error) {
	word, err := readString(r)
	if err != nil {
		return nil, err
	}
	if word == "" {
		return nil, fmt.Errorf("%w: empty word", ErrInvalidFormat)
	}
	rec := index.NewRecord(word)
	fileCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	for f := uint32(0); f < fileCount; f++ {
		file, err := readString(r)
		if err != nil {
			return nil, err
		}
		lineCount, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		if int64(lineCount)*4 > int64(r.Len()) {
			return nil, fmt.Errorf("%w: line count %d exceeds remaining data", ErrInvalidFormat, lineCount)
		}
		for l := uint32(0); l < lineCount; l++ {
			line, err := readUint32(r)
			if err != nil {
				return nil, err
			}
			if line == 0 {
				return nil, fmt.Errorf("%w: line number 0 for %q", ErrInvalidFormat, word)
			}
			rec.Add(file, int(line))
		}
	}
	return rec, nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	length, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if length > maxStringLength || int64(length) > int64(r.Len()) {
		return "", fmt.Errorf("%w: string length %d", ErrInvalidFormat, length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return string(buf), nil
}
