package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// flagUncompressed marks a payload lz4 could not shrink.
const flagUncompressed uint8 = 1

// maxLZ4Expansion bounds how much an lz4 block can grow when decompressed.
const maxLZ4Expansion = 255

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// BundleData is the payload of a bundle file. Datasets stay encoded until
// a caller asks for them.
type BundleData struct {
	Infos    []*CollectionInfo              `msgpack:"infos"`
	Datasets map[string]msgpack.RawMessage `msgpack:"datasets"`
	Metadata map[string]interface{}        `msgpack:"metadata,omitempty"`
}

// NewBundleData encodes each collection separately.
func NewBundleData(collections []*Collection) (*BundleData, error) {
	data := &BundleData{
		Infos:    make([]*CollectionInfo, 0, len(collections)),
		Datasets: make(map[string]msgpack.RawMessage, len(collections)),
		Metadata: map[string]interface{}{"created_at": time.Now().UTC().Format(time.RFC3339)},
	}
	for _, c := range collections {
		if c == nil || c.Name == "" {
			return nil, errors.New("dataset without a name")
		}
		if _, dup := data.Datasets[c.Name]; dup {
			return nil, errors.Errorf("duplicate dataset %q", c.Name)
		}
		raw, err := msgpack.Marshal(c)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode dataset %q", c.Name)
		}
		info := infoFor(c)
		info.SizeOnDisk = int64(len(raw))
		data.Infos = append(data.Infos, info)
		data.Datasets[c.Name] = raw
	}
	return data, nil
}

// EncodeBundle writes header + lz4(msgpack(data)).
func EncodeBundle(w io.Writer, data *BundleData) error {
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "failed to encode MessagePack")
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(payload, compressed, hashTable[:])
	if err != nil {
		return errors.Wrap(err, "failed to compress data")
	}

	flags := uint8(0)
	body := compressed[:n]
	if n == 0 || n >= len(payload) {
		flags = flagUncompressed
		body = payload
	}

	if err := WriteHeader(w, flags, len(payload)); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "failed to write compressed data")
	}
	return nil
}

// DecodeBundle reads what EncodeBundle wrote.
func DecodeBundle(r io.Reader) (*BundleData, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read compressed data")
	}

	payload := body
	if header.Flags&flagUncompressed == 0 {
		if uint64(header.RawSize) > uint64(len(body))*maxLZ4Expansion {
			return nil, errors.Wrapf(ErrInvalidBundle, "header claims %d bytes from a %d byte body", header.RawSize, len(body))
		}
		payload = make([]byte, header.RawSize)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidBundle, "failed to decompress data: %v", err)
		}
		if n != int(header.RawSize) {
			return nil, errors.Wrapf(ErrInvalidBundle, "payload is %d bytes, header says %d", n, header.RawSize)
		}
	}

	var data BundleData
	if err := decodeMsgpack(payload, &data); err != nil {
		return nil, errors.Wrapf(ErrInvalidBundle, "failed to decode MessagePack: %v", err)
	}
	for _, info := range data.Infos {
		if _, ok := data.Datasets[info.Name]; !ok {
			return nil, errors.Wrapf(ErrInvalidBundle, "dataset %q listed but missing", info.Name)
		}
	}
	return &data, nil
}

// decodeMsgpack decodes integers as int64/uint64 and floats as float64.
func decodeMsgpack(b []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

func decodeCollection(raw msgpack.RawMessage) (*Collection, error) {
	var c Collection
	if err := decodeMsgpack(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// WriteBundleFile packs collections into path under an exclusive file lock.
// The file is replaced atomically.
func WriteBundleFile(ctx context.Context, path string, collections []*Collection) error {
	data, err := NewBundleData(collections)
	if err != nil {
		return err
	}

	unlock, err := lockFile(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create bundle directory")
	}
	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := EncodeBundle(tmp, data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close bundle")
	}
	return errors.Wrap(os.Rename(tmpName, path), "failed to move bundle into place")
}

// ReadBundleFile loads a bundle under a shared file lock.
func ReadBundleFile(ctx context.Context, path string) (*BundleData, error) {
	unlock, err := lockFile(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bundle")
	}
	defer file.Close()
	return DecodeBundle(file)
}

// lockFile takes a lock on a sidecar file so renames of path do not drop it.
func lockFile(ctx context.Context, path string, exclusive bool) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	if exclusive {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create lock directory")
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "failed to open bundle")
	}
	lock := flock.New(path + ".lock")

	var locked bool
	var err error
	if exclusive {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}
	if !locked {
		return nil, errors.Errorf("failed to acquire lock on %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
