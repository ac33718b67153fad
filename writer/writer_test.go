package writer

import (
	"testing"
	"tvf/feature"
	"tvf/format"
	"tvf/util"
)

func TestWriter_emptyFile(t *testing.T) {
	// Act
	data := Encode(nil)

	// Assert
	util.AssertEqual(t, format.FileHeaderSize, len(data))

	header := format.DecodeFileHeader(data)
	util.AssertEqual(t, int64(FormatVersion), header.Version)
	util.AssertEqual(t, int32(0), header.TileCount)
}

func TestWriter_tileOffsetsAreAbsolute(t *testing.T) {
	// Arrange
	firstTile := NewTile(1)
	firstTile.AddFeature(1, format.GeometryTypePoint, "", []format.Coordinate{{Latitude: 1, Longitude: 2}}, nil)
	secondTile := NewTile(2)

	// Act
	data := Encode([]*Tile{firstTile, secondTile})

	// Assert
	firstEntry := format.DecodeTileHeaderEntry(data[format.FileHeaderSize:])
	secondEntry := format.DecodeTileHeaderEntry(data[format.FileHeaderSize+format.TileHeaderEntrySize:])

	util.AssertEqual(t, int32(1), firstEntry.ID)
	util.AssertEqual(t, uint64(format.FileHeaderSize+2*format.TileHeaderEntrySize), firstEntry.OffsetInBytes)

	// Tile 1 holds one feature and one coordinate, tile 2 follows directly.
	expectedSecondOffset := firstEntry.OffsetInBytes + format.TileBlockHeaderSize + format.MapFeatureSize + format.CoordinateSize
	util.AssertEqual(t, int32(2), secondEntry.ID)
	util.AssertEqual(t, expectedSecondOffset, secondEntry.OffsetInBytes)

	// The last tile is empty, so the file ends right after its block header.
	util.AssertEqual(t, int(expectedSecondOffset+format.TileBlockHeaderSize), len(data))

	block := format.DecodeTileBlockHeader(data[firstEntry.OffsetInBytes:])
	util.AssertEqual(t, int32(1), block.FeaturesCount)
	util.AssertEqual(t, int32(1), block.CoordinatesCount)
	util.AssertEqual(t, firstEntry.OffsetInBytes+format.TileBlockHeaderSize+format.MapFeatureSize, block.CoordinatesOffsetInBytes)

	coordinate := format.DecodeCoordinate(data[block.CoordinatesOffsetInBytes:])
	util.AssertEqual(t, format.Coordinate{Latitude: 1, Longitude: 2}, coordinate)
}

func TestWriter_stringDeduplication(t *testing.T) {
	// Arrange: Both features carry the same key and value strings.
	tile := NewTile(1)
	properties := feature.Properties{"highway": "primary"}
	tile.AddFeature(1, format.GeometryTypePolyline, "", []format.Coordinate{{Latitude: 1, Longitude: 1}}, properties)
	tile.AddFeature(2, format.GeometryTypePolyline, "", []format.Coordinate{{Latitude: 2, Longitude: 2}}, properties)

	// Act
	data := Encode([]*Tile{tile})

	// Assert: Four string table entries (two per feature, pairs are never
	// shared) but the characters are stored only once.
	entry := format.DecodeTileHeaderEntry(data[format.FileHeaderSize:])
	block := format.DecodeTileBlockHeader(data[entry.OffsetInBytes:])

	util.AssertEqual(t, int32(4), block.StringCount)
	util.AssertEqual(t, int32(len("highway")+len("primary")), block.CharactersCount)

	firstKey := format.DecodeStringEntry(data[block.StringsOffsetInBytes:])
	secondKey := format.DecodeStringEntry(data[block.StringsOffsetInBytes+2*format.StringEntrySize:])
	util.AssertEqual(t, firstKey, secondKey)
}

func TestWriter_labellessFeature(t *testing.T) {
	// Arrange
	tile := NewTile(1)
	tile.AddFeature(1, format.GeometryTypePoint, "", []format.Coordinate{{Latitude: 1, Longitude: 1}}, nil)

	// Act
	data := Encode([]*Tile{tile})

	// Assert
	entry := format.DecodeTileHeaderEntry(data[format.FileHeaderSize:])
	mapFeature := format.DecodeMapFeature(data[entry.OffsetInBytes+format.TileBlockHeaderSize:])

	util.AssertEqual(t, int32(format.NoLabel), mapFeature.LabelOffset)
	util.AssertEqual(t, int32(0), mapFeature.PropertyCount)
}

func TestWriter_propertiesStartAtEvenIndices(t *testing.T) {
	// Arrange: Labels share the string table with properties and can leave it
	// at an odd size, the writer must pad so that properties always start at
	// an even index.
	tile := NewTile(1)
	tile.AddFeature(1, format.GeometryTypePoint, "A", []format.Coordinate{{Latitude: 1, Longitude: 1}}, feature.Properties{"natural": "water"})
	tile.AddFeature(2, format.GeometryTypePoint, "B", []format.Coordinate{{Latitude: 2, Longitude: 2}}, feature.Properties{"natural": "wood", "name": "B"})

	// Act
	data := Encode([]*Tile{tile})

	// Assert
	entry := format.DecodeTileHeaderEntry(data[format.FileHeaderSize:])
	featureData := data[entry.OffsetInBytes+format.TileBlockHeaderSize:]

	firstFeature := format.DecodeMapFeature(featureData)
	secondFeature := format.DecodeMapFeature(featureData[format.MapFeatureSize:])

	util.AssertEqual(t, int32(2), firstFeature.PropertyCount)
	util.AssertEqual(t, int32(0), firstFeature.PropertiesOffset)
	util.AssertEqual(t, int32(2), firstFeature.LabelOffset)

	// Feature 1 left the table with 3 strings, so feature 2 needs padding.
	util.AssertEqual(t, int32(4), secondFeature.PropertyCount)
	util.AssertEqual(t, int32(4), secondFeature.PropertiesOffset)
	util.AssertEqual(t, int32(8), secondFeature.LabelOffset)
}
