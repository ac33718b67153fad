package index

import (
	"encoding/binary"
	"github.com/pkg/errors"
	"tvf/format"
	"tvf/storage"
	"unicode/utf16"
)

// ErrOddPropertyIndex is returned when a property resolution starts at an odd
// string-table index. Properties occupy (key, value) pairs, so a property can
// only start at an even index.
var ErrOddPropertyIndex = errors.New("property index must be even")

// ResolveString returns the string at the given index of a tile's string
// table. The tile's block header provides the table locations. Nothing is
// cached, every call decodes directly from the mapped file.
func (r *Reader) ResolveString(tileId int32, index int32) (string, error) {
	block, found, err := r.TileBlock(tileId)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("Tile %d does not exist in this file", tileId)
	}
	return r.resolveString(block, index)
}

// ResolveProperty resolves the property starting at the given string-table
// index into its key and value. Fails with ErrOddPropertyIndex for odd
// indices.
func (r *Reader) ResolveProperty(tileId int32, index int32) (string, string, error) {
	block, found, err := r.TileBlock(tileId)
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", errors.Errorf("Tile %d does not exist in this file", tileId)
	}
	return r.resolveProperty(block, index)
}

func (r *Reader) resolveString(block format.TileBlockHeader, index int32) (string, error) {
	if index < 0 || index >= block.StringCount {
		return "", errors.Wrapf(storage.ErrOutOfRange, "String index %d outside string table with %d entries", index, block.StringCount)
	}

	entryData, err := r.file.Slice(block.StringsOffsetInBytes+uint64(index)*format.StringEntrySize, format.StringEntrySize)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to read string table entry %d", index)
	}
	entry := format.DecodeStringEntry(entryData)

	if entry.Offset < 0 || entry.Length < 0 || entry.Offset+entry.Length > block.CharactersCount {
		return "", errors.Wrapf(storage.ErrOutOfRange, "String entry %d spans characters [%d, %d) of a %d character table", index, entry.Offset, entry.Offset+entry.Length, block.CharactersCount)
	}

	characterData, err := r.file.Slice(block.CharactersOffsetInBytes+uint64(entry.Offset)*format.BytesPerCharacter, uint64(entry.Length)*format.BytesPerCharacter)
	if err != nil {
		return "", errors.Wrapf(err, "Unable to read %d characters of string %d", entry.Length, index)
	}

	return decodeCharacters(characterData), nil
}

func (r *Reader) resolveProperty(block format.TileBlockHeader, index int32) (string, string, error) {
	if index%2 != 0 {
		return "", "", errors.Wrapf(ErrOddPropertyIndex, "Cannot resolve property at string index %d", index)
	}

	key, err := r.resolveString(block, index)
	if err != nil {
		return "", "", errors.Wrap(err, "Unable to resolve property key")
	}

	value, err := r.resolveString(block, index+1)
	if err != nil {
		return "", "", errors.Wrapf(err, "Unable to resolve value of property %s", key)
	}

	return key, value, nil
}

// decodeCharacters turns raw little-endian UTF-16 code units into a Go string.
func decodeCharacters(data []byte) string {
	codeUnits := make([]uint16, len(data)/format.BytesPerCharacter)
	for i := range codeUnits {
		codeUnits[i] = binary.LittleEndian.Uint16(data[i*format.BytesPerCharacter:])
	}
	return string(utf16.Decode(codeUnits))
}
