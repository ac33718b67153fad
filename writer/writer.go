// Package writer produces tile files in the layout the mapped reader
// consumes. It is the counterpart of the index package and shares the byte
// layout through the format package.
package writer

import (
	"bufio"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"os"
	"sort"
	"tvf/feature"
	"tvf/format"
	"unicode/utf16"
)

// FormatVersion is written into the file header of newly encoded files.
const FormatVersion = 1

// Tile collects the features of one tile before encoding. Coordinates and
// strings are accumulated into the tile-wide arrays the format requires,
// strings are deduplicated.
type Tile struct {
	id          int32
	features    []format.MapFeature
	coordinates []format.Coordinate
	strings     []format.StringEntry
	characters  []uint16
	stringIndex map[string]int32
}

func NewTile(id int32) *Tile {
	return &Tile{
		id:          id,
		stringIndex: map[string]int32{},
	}
}

func (t *Tile) ID() int32 {
	return t.id
}

// AddFeature appends one feature to the tile. Properties are stored sorted by
// key so that encoding the same feature twice produces identical bytes. An
// empty label is stored as "no label".
func (t *Tile) AddFeature(id int64, geometryType format.GeometryType, label string, coordinates []format.Coordinate, properties feature.Properties) {
	coordinateOffset := int32(len(t.coordinates))
	t.coordinates = append(t.coordinates, coordinates...)

	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Properties must start at an even string index. Labels can leave the
	// table at an odd size, so pad with an empty string when needed.
	if len(t.strings)%2 != 0 {
		t.addString("")
	}

	propertiesOffset := int32(len(t.strings))
	for _, key := range keys {
		t.addString(key)
		t.addString(properties[key])
	}

	labelOffset := int32(format.NoLabel)
	if label != "" {
		labelOffset = t.addString(label)
	}

	t.features = append(t.features, format.MapFeature{
		Id:               id,
		LabelOffset:      labelOffset,
		GeometryType:     geometryType,
		CoordinateOffset: coordinateOffset,
		CoordinateCount:  int32(len(coordinates)),
		PropertiesOffset: propertiesOffset,
		PropertyCount:    int32(2 * len(keys)),
	})
}

// addString appends the string to the table and returns its index. Repeated
// strings reuse their character span, but property key/value pairs always get
// fresh consecutive table entries so that the pair invariant of the format
// holds.
func (t *Tile) addString(s string) int32 {
	index := int32(len(t.strings))

	if entryIndex, ok := t.stringIndex[s]; ok {
		t.strings = append(t.strings, t.strings[entryIndex])
		return index
	}

	codeUnits := utf16.Encode([]rune(s))
	t.strings = append(t.strings, format.StringEntry{
		Offset: int32(len(t.characters)),
		Length: int32(len(codeUnits)),
	})
	t.characters = append(t.characters, codeUnits...)
	t.stringIndex[s] = index

	return index
}

// encodedSize returns the size of the tile block in bytes, block header
// included.
func (t *Tile) encodedSize() uint64 {
	return format.TileBlockHeaderSize +
		uint64(len(t.features))*format.MapFeatureSize +
		uint64(len(t.coordinates))*format.CoordinateSize +
		uint64(len(t.strings))*format.StringEntrySize +
		uint64(len(t.characters))*format.BytesPerCharacter
}

// appendTo encodes the tile block at the given absolute file offset. The
// block layout is: block header, feature records, coordinate array, string
// table, character table. All offsets in the block header are absolute.
func (t *Tile) appendTo(buf []byte, tileOffset uint64) []byte {
	featuresOffset := tileOffset + format.TileBlockHeaderSize
	coordinatesOffset := featuresOffset + uint64(len(t.features))*format.MapFeatureSize
	stringsOffset := coordinatesOffset + uint64(len(t.coordinates))*format.CoordinateSize
	charactersOffset := stringsOffset + uint64(len(t.strings))*format.StringEntrySize

	buf = format.AppendTileBlockHeader(buf, format.TileBlockHeader{
		FeaturesCount:            int32(len(t.features)),
		CoordinatesCount:         int32(len(t.coordinates)),
		StringCount:              int32(len(t.strings)),
		CharactersCount:          int32(len(t.characters)),
		CoordinatesOffsetInBytes: coordinatesOffset,
		StringsOffsetInBytes:     stringsOffset,
		CharactersOffsetInBytes:  charactersOffset,
	})

	for _, mapFeature := range t.features {
		buf = format.AppendMapFeature(buf, mapFeature)
	}
	for _, coordinate := range t.coordinates {
		buf = format.AppendCoordinate(buf, coordinate)
	}
	for _, entry := range t.strings {
		buf = format.AppendStringEntry(buf, entry)
	}
	for _, codeUnit := range t.characters {
		buf = append(buf, byte(codeUnit), byte(codeUnit>>8))
	}

	return buf
}

// Encode serializes the given tiles into one complete file image. Tiles are
// written in the given order, which is also the lookup order of the tile
// index.
func Encode(tiles []*Tile) []byte {
	headerTableSize := uint64(len(tiles)) * format.TileHeaderEntrySize

	buf := format.AppendFileHeader(nil, format.FileHeader{
		Version:   FormatVersion,
		TileCount: int32(len(tiles)),
	})

	tileOffset := format.FileHeaderSize + headerTableSize
	for _, tile := range tiles {
		buf = format.AppendTileHeaderEntry(buf, format.TileHeaderEntry{
			ID:            tile.id,
			OffsetInBytes: tileOffset,
		})
		tileOffset += tile.encodedSize()
	}

	tileOffset = format.FileHeaderSize + headerTableSize
	for _, tile := range tiles {
		buf = tile.appendTo(buf, tileOffset)
		tileOffset += tile.encodedSize()
	}

	return buf
}

// WriteFile encodes the tiles and writes the result to the given path.
func WriteFile(path string, tiles []*Tile) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Unable to create tile file %s", path)
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close tile file %s: %v", path, closeErr)
		}
	}()

	bufferedWriter := bufio.NewWriter(file)
	_, err = bufferedWriter.Write(Encode(tiles))
	if err != nil {
		return errors.Wrapf(err, "Unable to write tile file %s", path)
	}

	err = bufferedWriter.Flush()
	return errors.Wrapf(err, "Unable to flush tile file %s", path)
}
