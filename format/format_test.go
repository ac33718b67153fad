package format

import (
	"encoding/binary"
	"math"
	"testing"
	"tvf/util"
)

func TestFormat_recordSizes(t *testing.T) {
	util.AssertEqual(t, 12, len(AppendFileHeader(nil, FileHeader{})))
	util.AssertEqual(t, 12, len(AppendTileHeaderEntry(nil, TileHeaderEntry{})))
	util.AssertEqual(t, 40, len(AppendTileBlockHeader(nil, TileBlockHeader{})))
	util.AssertEqual(t, 29, len(AppendMapFeature(nil, MapFeature{})))
	util.AssertEqual(t, 16, len(AppendCoordinate(nil, Coordinate{})))
	util.AssertEqual(t, 8, len(AppendStringEntry(nil, StringEntry{})))
}

func TestFormat_fileHeaderRoundTrip(t *testing.T) {
	// Arrange
	header := FileHeader{Version: 3, TileCount: 1234}

	// Act
	data := AppendFileHeader(nil, header)

	// Assert
	util.AssertEqual(t, uint64(3), binary.LittleEndian.Uint64(data[0:]))
	util.AssertEqual(t, uint32(1234), binary.LittleEndian.Uint32(data[8:]))
	util.AssertEqual(t, header, DecodeFileHeader(data))
}

func TestFormat_tileHeaderEntryRoundTrip(t *testing.T) {
	// Arrange
	entry := TileHeaderEntry{ID: -7, OffsetInBytes: 0x1122334455667788}

	// Act
	data := AppendTileHeaderEntry(nil, entry)

	// Assert
	util.AssertEqual(t, uint64(0x1122334455667788), binary.LittleEndian.Uint64(data[4:]))
	util.AssertEqual(t, entry, DecodeTileHeaderEntry(data))
}

func TestFormat_tileBlockHeaderRoundTrip(t *testing.T) {
	// Arrange
	header := TileBlockHeader{
		FeaturesCount:            1,
		CoordinatesCount:         2,
		StringCount:              3,
		CharactersCount:          4,
		CoordinatesOffsetInBytes: 100,
		StringsOffsetInBytes:     200,
		CharactersOffsetInBytes:  300,
	}

	// Act
	data := AppendTileBlockHeader(nil, header)

	// Assert
	util.AssertEqual(t, uint32(1), binary.LittleEndian.Uint32(data[0:]))
	util.AssertEqual(t, uint32(4), binary.LittleEndian.Uint32(data[12:]))
	util.AssertEqual(t, uint64(100), binary.LittleEndian.Uint64(data[16:]))
	util.AssertEqual(t, uint64(300), binary.LittleEndian.Uint64(data[32:]))
	util.AssertEqual(t, header, DecodeTileBlockHeader(data))
}

func TestFormat_mapFeatureFieldOffsets(t *testing.T) {
	// Arrange
	mapFeature := MapFeature{
		Id:               0x0102030405060708,
		LabelOffset:      NoLabel,
		GeometryType:     GeometryTypePoint,
		CoordinateOffset: 10,
		CoordinateCount:  11,
		PropertiesOffset: 12,
		PropertyCount:    13,
	}

	// Act
	data := AppendMapFeature(nil, mapFeature)

	// Assert: The record is packed, the GeometryType byte at offset 12 shifts
	// all following fields to unaligned offsets.
	util.AssertEqual(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(data[0:]))
	util.AssertEqual(t, int32(-1), int32(binary.LittleEndian.Uint32(data[8:])))
	util.AssertEqual(t, byte(GeometryTypePoint), data[12])
	util.AssertEqual(t, uint32(10), binary.LittleEndian.Uint32(data[13:]))
	util.AssertEqual(t, uint32(11), binary.LittleEndian.Uint32(data[17:]))
	util.AssertEqual(t, uint32(12), binary.LittleEndian.Uint32(data[21:]))
	util.AssertEqual(t, uint32(13), binary.LittleEndian.Uint32(data[25:]))
	util.AssertEqual(t, mapFeature, DecodeMapFeature(data))
}

func TestFormat_coordinateRoundTrip(t *testing.T) {
	// Arrange
	coordinate := Coordinate{Latitude: 53.5511, Longitude: 9.9937}

	// Act
	data := AppendCoordinate(nil, coordinate)

	// Assert
	util.AssertEqual(t, math.Float64bits(53.5511), binary.LittleEndian.Uint64(data[0:]))
	util.AssertEqual(t, math.Float64bits(9.9937), binary.LittleEndian.Uint64(data[8:]))
	util.AssertEqual(t, coordinate, DecodeCoordinate(data))
}

func TestFormat_coordinateEquality(t *testing.T) {
	coordinate := Coordinate{Latitude: 10, Longitude: 20}

	util.AssertTrue(t, coordinate.Equal(Coordinate{Latitude: 10, Longitude: 20}))
	util.AssertTrue(t, coordinate.Equal(Coordinate{Latitude: 10 + 1e-10, Longitude: 20 - 1e-10}))
	util.AssertFalse(t, coordinate.Equal(Coordinate{Latitude: 10.001, Longitude: 20}))
	util.AssertFalse(t, coordinate.Equal(Coordinate{Latitude: 10, Longitude: 20.001}))
}

func TestFormat_geometryTypeString(t *testing.T) {
	util.AssertEqual(t, "polyline", GeometryTypePolyline.String())
	util.AssertEqual(t, "polygon", GeometryTypePolygon.String())
	util.AssertEqual(t, "point", GeometryTypePoint.String())
	util.AssertEqual(t, "unknown", GeometryType(99).String())
}
