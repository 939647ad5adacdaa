package storage

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// Magic bytes to identify a dataset bundle
	MagicBytes = "CMPS"
	// Current version
	FormatVersion = 1
	// File extension for dataset bundles
	FileExtension = ".campus"
)

// ErrInvalidBundle reports a file that is not a readable dataset bundle.
var ErrInvalidBundle = errors.New("invalid dataset bundle")

// FileHeader represents the header of a bundle file
type FileHeader struct {
	Magic    [4]byte // "CMPS"
	Version  uint8   // Format version
	Flags    uint8   // Reserved for future use
	Reserved [2]byte // Reserved for future use
	RawSize  uint32  // Length of the payload before compression
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8, rawSize int) error {
	header := FileHeader{
		Magic:   [4]byte{'C', 'M', 'P', 'S'},
		Version: FormatVersion,
		Flags:   flags,
		RawSize: uint32(rawSize),
	}

	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrapf(ErrInvalidBundle, "failed to read header: %v", err)
	}

	if string(header.Magic[:]) != MagicBytes {
		return nil, errors.Wrapf(ErrInvalidBundle, "expected %s, got %q", MagicBytes, string(header.Magic[:]))
	}

	if header.Version != FormatVersion {
		return nil, errors.Wrapf(ErrInvalidBundle, "unsupported file version: %d", header.Version)
	}

	return &header, nil
}
