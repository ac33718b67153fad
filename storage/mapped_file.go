// Package storage owns the read-only memory mapping of a tile file and hands
// out bounds-checked views into it. All higher layers access file bytes
// exclusively through the Slice primitive, so every bounds check lives here.
package storage

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"io"
	"os"
)

// ErrOutOfRange is returned when a requested byte range does not lie inside
// the mapped file. Callers use errors.Is to distinguish malformed offsets from
// I/O failures.
var ErrOutOfRange = errors.New("byte range outside mapped file")

// MappedFile is a read-only view on a whole file. When possible the file is
// memory-mapped, otherwise its content is loaded into an ordinary buffer. The
// file is never written through this type.
//
// A MappedFile is safe for concurrent readers. All slices returned by Slice
// are views into the mapping and become invalid when Close is called, callers
// must not retain them beyond the lifetime of the MappedFile.
type MappedFile struct {
	data    []byte
	mmapped bool
}

// Open maps the given file read-only. If the platform refuses the mapping
// (e.g. for empty files or exotic file systems), the file is read into memory
// instead so that the caller sees the same behavior either way.
func Open(path string) (*MappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open tile file %s", path)
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close file handle for tile file %s: %v", path, closeErr)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to determine size of tile file %s", path)
	}

	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, errors.Errorf("Tile file %s is too large to map into the address space (%d bytes)", path, size64)
	}
	size := int(size64)

	if size > 0 {
		data, mmapErr := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if mmapErr == nil {
			return &MappedFile{data: data, mmapped: true}, nil
		}
		sigolo.Debugf("Memory mapping of %s failed (%v), falling back to buffered loading", path, mmapErr)
	}

	data, err := readAllAt(file, size)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read tile file %s", path)
	}

	return &MappedFile{data: data, mmapped: false}, nil
}

func readAllAt(reader io.ReaderAt, size int) ([]byte, error) {
	data := make([]byte, size)

	var offset int64
	for offset < int64(size) {
		readBytes, err := reader.ReadAt(data[offset:], offset)
		offset += int64(readBytes)
		if err == io.EOF && offset == int64(size) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

// Size returns the length of the mapped region in bytes.
func (m *MappedFile) Size() uint64 {
	return uint64(len(m.data))
}

// Slice returns the view [offset, offset+length) of the mapped file. This is
// the single validated read primitive of the store: every record decode goes
// through it and a range not fully inside the mapping is reported as
// ErrOutOfRange instead of panicking.
func (m *MappedFile) Slice(offset uint64, length uint64) ([]byte, error) {
	size := uint64(len(m.data))
	if offset > size || length > size-offset {
		return nil, errors.Wrapf(ErrOutOfRange, "Requested range [%d, %d+%d) of a %d byte file", offset, offset, length, size)
	}
	return m.data[offset : offset+length], nil
}

// Close releases the mapping. After Close every previously returned slice is
// invalid. Calling Close a second time is a no-op.
func (m *MappedFile) Close() error {
	data := m.data
	m.data = nil

	if data == nil || !m.mmapped {
		return nil
	}

	m.mmapped = false
	err := unix.Munmap(data)
	return errors.Wrap(err, "Unable to unmap tile file")
}
