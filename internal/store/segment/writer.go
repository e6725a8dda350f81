package segment

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
)

// MagicBytes identifies a results segment ("RWSG").
const (
	MagicBytes    uint32 = 0x52575347
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
	FileExt              = ".rwsg"
)

// Header is the fixed 64-byte prefix of every segment.
type Header struct {
	Magic         uint32
	Version       uint32
	EntryCount    uint32
	DictOffset    int64
	DictSize      int64
	BodyOffset    int64
	BodySize      int64
	SignatureHash [16]byte
}

// DictEntry locates one word's encoded result inside the body.
type DictEntry struct {
	Word   string `json:"w"`
	Offset int64  `json:"o"`
	Len    int    `json:"l"`
}

type dictionary struct {
	Signature string      `json:"signature"`
	Entries   []DictEntry `json:"entries"`
}

// Snapshotter stores results in a single segment file per policy signature.
type Snapshotter struct {
	path string
}

// New returns a Snapshotter writing under dataDir. The file name is derived
// from the signature.
func New(dataDir, signature string) *Snapshotter {
	return &Snapshotter{path: filepath.Join(dataDir, store.SnapshotName(signature)+FileExt)}
}

func (s *Snapshotter) Path() string { return s.path }

// WriteSnapshot atomically replaces the segment: the data goes to a .tmp file
// that is renamed over the previous one once synced.
func (s *Snapshotter) WriteSnapshot(ctx context.Context, snap store.Snapshot) error {
	tmpPath := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	if err := writeSegment(ctx, f, snap); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming segment file: %w", err)
	}
	return nil
}

// ReadSnapshot decodes the whole segment.
func (s *Snapshotter) ReadSnapshot(ctx context.Context) (store.Snapshot, error) {
	r, err := OpenReader(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrNoSnapshot, s.path)
		}
		return store.Snapshot{}, err
	}
	defer r.Close()

	snap := store.Snapshot{Signature: r.Signature(), Entries: make([]store.Entry, 0, r.Len())}
	for _, d := range r.dict.Entries {
		if err := ctx.Err(); err != nil {
			return store.Snapshot{}, err
		}
		res, err := r.read(d)
		if err != nil {
			return store.Snapshot{}, err
		}
		snap.Entries = append(snap.Entries, store.Entry{Word: d.Word, Result: res})
	}
	return snap, nil
}

func writeSegment(ctx context.Context, f *os.File, snap store.Snapshot) error {
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.Write(headerBytes); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bodyStart := int64(HeaderSize)
	offset := int64(0)
	body := crc32.NewIEEE()
	dict := dictionary{Signature: snap.Signature, Entries: make([]DictEntry, 0, len(snap.Entries))}
	for _, e := range snap.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("marshaling result for %q: %w", e.Word, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing result for %q: %w", e.Word, err)
		}
		body.Write(data)
		dict.Entries = append(dict.Entries, DictEntry{Word: e.Word, Offset: offset, Len: len(data)})
		offset += int64(len(data))
	}

	dictStart := bodyStart + offset
	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], body.Sum32())
	binary.LittleEndian.PutUint64(footer[8:16], uint64(time.Now().Unix()))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(len(dictData)))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}

	sig := store.SignatureHash(snap.Signature)
	binary.LittleEndian.PutUint32(headerBytes[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(headerBytes[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(headerBytes[8:12], uint32(len(dict.Entries)))
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(dictStart))
	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(len(dictData)))
	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(bodyStart))
	binary.LittleEndian.PutUint64(headerBytes[40:48], uint64(offset))
	copy(headerBytes[48:64], sig[:])
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	return nil
}
