// Package format defines the on-disk layout of tiled vector-map files. All
// records are packed little-endian with the exact field offsets listed below.
// This is the compatibility contract between the encoder and the mapped reader,
// so any change here changes the file format.
package format

import (
	"encoding/binary"
	"math"
)

// Record sizes in bytes. The records are packed, so each size is the plain sum
// of its field sizes.
const (
	FileHeaderSize      = 12 // Version (8) + TileCount (4)
	TileHeaderEntrySize = 12 // ID (4) + OffsetInBytes (8)
	TileBlockHeaderSize = 40 // 4 counts (16) + 3 offsets (24)
	MapFeatureSize      = 29 // Id (8) + LabelOffset (4) + GeometryType (1) + 4 int32 fields (16)
	CoordinateSize      = 16 // Latitude (8) + Longitude (8)
	StringEntrySize     = 8  // Offset (4) + Length (4)

	// BytesPerCharacter is the width of one character unit in the character
	// table. All string offsets and lengths are counted in these units, not in
	// bytes. The units are UTF-16 code units.
	BytesPerCharacter = 2
)

// NoLabel is the LabelOffset value of features without a label. Any negative
// offset means "no label", this is the value the encoder writes.
const NoLabel = -1

// FileHeader sits at the very beginning of the file. TileCount entries of type
// TileHeaderEntry follow directly after it.
type FileHeader struct {
	Version   int64
	TileCount int32
}

// TileHeaderEntry maps a tile ID to the absolute byte offset of its tile
// block. Tile IDs are assumed to be unique, lookup semantics are first-match.
type TileHeaderEntry struct {
	ID            int32
	OffsetInBytes uint64
}

// TileBlockHeader sits at a tile's OffsetInBytes. FeaturesCount MapFeature
// records follow directly after it. All offsets are absolute from the start of
// the file.
type TileBlockHeader struct {
	FeaturesCount            int32
	CoordinatesCount         int32
	StringCount              int32
	CharactersCount          int32
	CoordinatesOffsetInBytes uint64
	StringsOffsetInBytes     uint64
	CharactersOffsetInBytes  uint64
}

// MapFeature is one stored feature record. CoordinateOffset and
// CoordinateCount index into the tile's coordinate array. PropertiesOffset and
// PropertyCount index into the tile's string table, counted in strings: each
// property occupies two consecutive entries (key, value), so PropertiesOffset
// is always even and PropertyCount is the number of strings, not pairs.
type MapFeature struct {
	Id               int64
	LabelOffset      int32
	GeometryType     GeometryType
	CoordinateOffset int32
	CoordinateCount  int32
	PropertiesOffset int32
	PropertyCount    int32
}

// Coordinate is one vertex of a feature geometry.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// coordinateEqualityTolerance is the maximum per-field difference under which
// two coordinates are still considered equal.
const coordinateEqualityTolerance = 1e-9

func (c Coordinate) Equal(other Coordinate) bool {
	return math.Abs(c.Latitude-other.Latitude) <= coordinateEqualityTolerance &&
		math.Abs(c.Longitude-other.Longitude) <= coordinateEqualityTolerance
}

// StringEntry describes one string of a tile's string table. Offset and Length
// are counted in character units (BytesPerCharacter bytes each) relative to the
// tile's character table, not in bytes.
type StringEntry struct {
	Offset int32
	Length int32
}

type GeometryType byte

const (
	GeometryTypePolyline GeometryType = iota
	GeometryTypePolygon
	GeometryTypePoint
)

func (g GeometryType) String() string {
	switch g {
	case GeometryTypePolyline:
		return "polyline"
	case GeometryTypePolygon:
		return "polygon"
	case GeometryTypePoint:
		return "point"
	}
	return "unknown"
}

func DecodeFileHeader(data []byte) FileHeader {
	return FileHeader{
		Version:   int64(binary.LittleEndian.Uint64(data[0:])),
		TileCount: int32(binary.LittleEndian.Uint32(data[8:])),
	}
}

func AppendFileHeader(buf []byte, header FileHeader) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(header.Version))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(header.TileCount))
	return buf
}

func DecodeTileHeaderEntry(data []byte) TileHeaderEntry {
	return TileHeaderEntry{
		ID:            int32(binary.LittleEndian.Uint32(data[0:])),
		OffsetInBytes: binary.LittleEndian.Uint64(data[4:]),
	}
}

func AppendTileHeaderEntry(buf []byte, entry TileHeaderEntry) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.ID))
	buf = binary.LittleEndian.AppendUint64(buf, entry.OffsetInBytes)
	return buf
}

func DecodeTileBlockHeader(data []byte) TileBlockHeader {
	return TileBlockHeader{
		FeaturesCount:            int32(binary.LittleEndian.Uint32(data[0:])),
		CoordinatesCount:         int32(binary.LittleEndian.Uint32(data[4:])),
		StringCount:              int32(binary.LittleEndian.Uint32(data[8:])),
		CharactersCount:          int32(binary.LittleEndian.Uint32(data[12:])),
		CoordinatesOffsetInBytes: binary.LittleEndian.Uint64(data[16:]),
		StringsOffsetInBytes:     binary.LittleEndian.Uint64(data[24:]),
		CharactersOffsetInBytes:  binary.LittleEndian.Uint64(data[32:]),
	}
}

func AppendTileBlockHeader(buf []byte, header TileBlockHeader) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(header.FeaturesCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(header.CoordinatesCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(header.StringCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(header.CharactersCount))
	buf = binary.LittleEndian.AppendUint64(buf, header.CoordinatesOffsetInBytes)
	buf = binary.LittleEndian.AppendUint64(buf, header.StringsOffsetInBytes)
	buf = binary.LittleEndian.AppendUint64(buf, header.CharactersOffsetInBytes)
	return buf
}

func DecodeMapFeature(data []byte) MapFeature {
	return MapFeature{
		Id:               int64(binary.LittleEndian.Uint64(data[0:])),
		LabelOffset:      int32(binary.LittleEndian.Uint32(data[8:])),
		GeometryType:     GeometryType(data[12]),
		CoordinateOffset: int32(binary.LittleEndian.Uint32(data[13:])),
		CoordinateCount:  int32(binary.LittleEndian.Uint32(data[17:])),
		PropertiesOffset: int32(binary.LittleEndian.Uint32(data[21:])),
		PropertyCount:    int32(binary.LittleEndian.Uint32(data[25:])),
	}
}

func AppendMapFeature(buf []byte, mapFeature MapFeature) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(mapFeature.Id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(mapFeature.LabelOffset))
	buf = append(buf, byte(mapFeature.GeometryType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(mapFeature.CoordinateOffset))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(mapFeature.CoordinateCount))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(mapFeature.PropertiesOffset))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(mapFeature.PropertyCount))
	return buf
}

func DecodeCoordinate(data []byte) Coordinate {
	return Coordinate{
		Latitude:  math.Float64frombits(binary.LittleEndian.Uint64(data[0:])),
		Longitude: math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
	}
}

func AppendCoordinate(buf []byte, coordinate Coordinate) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(coordinate.Latitude))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(coordinate.Longitude))
	return buf
}

func DecodeStringEntry(data []byte) StringEntry {
	return StringEntry{
		Offset: int32(binary.LittleEndian.Uint32(data[0:])),
		Length: int32(binary.LittleEndian.Uint32(data[4:])),
	}
}

func AppendStringEntry(buf []byte, entry StringEntry) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.Offset))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.Length))
	return buf
}
