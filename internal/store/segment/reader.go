package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
)

// Reader gives random access to the results of one segment file.
type Reader struct {
	file   *os.File
	header Header
	dict   dictionary
}

// OpenReader validates the header, footer checksums and signature hash, then
// loads the dictionary. Results are decoded lazily.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment %s: %w", path, err)
	}
	return r, nil
}

func open(f *os.File) (*Reader, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	h := Header{
		Magic:      binary.LittleEndian.Uint32(headerBytes[0:4]),
		Version:    binary.LittleEndian.Uint32(headerBytes[4:8]),
		EntryCount: binary.LittleEndian.Uint32(headerBytes[8:12]),
		DictOffset: int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		DictSize:   int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		BodyOffset: int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		BodySize:   int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
	}
	copy(h.SignatureHash[:], headerBytes[48:64])
	if h.Magic != MagicBytes {
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported segment version %d", h.Version)
	}

	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, h.DictOffset+h.DictSize); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}

	dictBytes := make([]byte, h.DictSize)
	if _, err := f.ReadAt(dictBytes, h.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	if got, want := crc32.ChecksumIEEE(dictBytes), binary.LittleEndian.Uint32(footer[0:4]); got != want {
		return nil, fmt.Errorf("dictionary checksum mismatch: got %08x, want %08x", got, want)
	}
	body := crc32.NewIEEE()
	if _, err := io.Copy(body, io.NewSectionReader(f, h.BodyOffset, h.BodySize)); err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if got, want := body.Sum32(), binary.LittleEndian.Uint32(footer[4:8]); got != want {
		return nil, fmt.Errorf("body checksum mismatch: got %08x, want %08x", got, want)
	}

	var dict dictionary
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	if store.SignatureHash(dict.Signature) != h.SignatureHash {
		return nil, fmt.Errorf("signature hash does not match dictionary signature %q", dict.Signature)
	}
	if int(h.EntryCount) != len(dict.Entries) {
		return nil, fmt.Errorf("entry count mismatch: header %d, dictionary %d", h.EntryCount, len(dict.Entries))
	}
	sort.Slice(dict.Entries, func(i, j int) bool { return dict.Entries[i].Word < dict.Entries[j].Word })
	return &Reader{file: f, header: h, dict: dict}, nil
}

// Get decodes the result stored for word.
func (r *Reader) Get(word string) (decompose.Result, bool, error) {
	entries := r.dict.Entries
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].Word >= word
	})
	if idx >= len(entries) || entries[idx].Word != word {
		return nil, false, nil
	}
	res, err := r.read(entries[idx])
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (r *Reader) read(d DictEntry) (decompose.Result, error) {
	data := make([]byte, d.Len)
	if _, err := r.file.ReadAt(data, r.header.BodyOffset+d.Offset); err != nil {
		return nil, fmt.Errorf("reading result for %q: %w", d.Word, err)
	}
	var res decompose.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing result for %q: %w", d.Word, err)
	}
	return res, nil
}

// Signature returns the policy signature the segment was written under.
func (r *Reader) Signature() string {
	return r.dict.Signature
}

func (r *Reader) Len() int {
	return len(r.dict.Entries)
}

func (r *Reader) Close() error {
	return r.file.Close()
}
