package trie

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// On-disk format: a 5-byte header (magic "CKGT" + format version) followed
// by a gzip stream. The payload is the sorted key set, each key a uvarint
// length plus raw bytes, preceded by a uvarint count. The tree is rebuilt
// on load; sorted keys insert into a trie deterministically, so Save is
// byte-stable for a given key set.

var magic = [4]byte{'C', 'K', 'G', 'T'}

const formatVersion = 1

// maxKeyLen bounds a single serialized key. Entity names are short; a
// length beyond this is a corrupt or crafted file, not data.
const maxKeyLen = 1 << 20

// ErrBadFormat is returned when a trie file has the wrong magic or an
// unsupported version.
var ErrBadFormat = errors.New("not a claimkg trie file")

// Save writes the trie to path, creating parent directories.
func (t *Trie) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trie file: %w", err)
	}
	defer f.Close()

	if err := t.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// WriteTo serializes the trie to w.
func (t *Trie) WriteTo(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write([]byte{formatVersion}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to init gzip: %w", err)
	}
	bw := bufio.NewWriter(zw)

	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(t.size))
	if _, err := bw.Write(scratch[:n]); err != nil {
		return fmt.Errorf("failed to write key count: %w", err)
	}

	writeErr := error(nil)
	t.Walk(func(key string) bool {
		n := binary.PutUvarint(scratch[:], uint64(len(key)))
		if _, err := bw.Write(scratch[:n]); err != nil {
			writeErr = err
			return false
		}
		if _, err := bw.WriteString(key); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("failed to write keys: %w", writeErr)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip: %w", err)
	}
	return nil
}

// Load reads a trie file written by Save.
func Load(path string) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trie file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read deserializes a trie from r.
func Read(r io.Reader) (*Trie, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrBadFormat)
	}
	if [4]byte(header[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadFormat)
	}
	if header[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFormat, header[4])
	}

	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read key count: %w", err)
	}
	// Sanity bound before allocating: key lengths are still unread, so
	// only reject counts that could not fit any plausible payload.
	if count > 1<<31 {
		return nil, fmt.Errorf("%w: implausible key count %d", ErrBadFormat, count)
	}

	t := &Trie{root: &node{}}
	buf := make([]byte, 0, 64)
	for i := uint64(0); i < count; i++ {
		klen, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, fmt.Errorf("truncated trie payload at key %d: %w", i, err)
		}
		if klen > maxKeyLen {
			return nil, fmt.Errorf("%w: implausible key length %d at key %d", ErrBadFormat, klen, i)
		}
		if cap(buf) < int(klen) {
			buf = make([]byte, klen)
		}
		buf = buf[:klen]
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("truncated trie payload at key %d: %w", i, err)
		}
		t.Add(string(buf))
	}

	return t, nil
}
