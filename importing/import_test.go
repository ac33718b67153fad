package importing

import (
	"github.com/paulmach/orb"
	"os"
	"path"
	"testing"
	"tvf/feature"
	"tvf/format"
	"tvf/index"
	"tvf/util"
)

const testOsmData = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
  <node id="1" lat="10.5" lon="10.5">
    <tag k="natural" v="water"/>
    <tag k="name" v="Pond"/>
  </node>
  <node id="2" lat="10.6" lon="10.6"/>
  <node id="3" lat="10.7" lon="10.6"/>
  <node id="4" lat="10.7" lon="10.5"/>
  <way id="10">
    <nd ref="2"/>
    <nd ref="3"/>
    <nd ref="4"/>
    <nd ref="2"/>
    <tag k="landuse" v="forest"/>
  </way>
  <way id="11">
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="primary"/>
  </way>
</osm>`

func TestImport_rejectsUnknownExtension(t *testing.T) {
	err := Import("input.csv", "output.tvf", 1)
	util.AssertNotNil(t, err)
}

func TestImport_osmToTileFile(t *testing.T) {
	// Arrange
	tempDir := t.TempDir()
	inputFile := path.Join(tempDir, "test.osm")
	outputFile := path.Join(tempDir, "test.tvf")
	err := os.WriteFile(inputFile, []byte(testOsmData), 0644)
	util.AssertNil(t, err)

	// Act
	err = Import(inputFile, outputFile, 1)
	util.AssertNil(t, err)

	// Assert
	reader, err := index.Open(outputFile, nil)
	util.AssertNil(t, err)
	defer reader.Close()

	util.AssertEqual(t, int32(1), reader.TileCount())

	var features []*feature.Feature
	err = reader.ForEachFeature(orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{11, 11}}, func(resolvedFeature *feature.Feature) bool {
		features = append(features, resolvedFeature)
		return true
	})
	util.AssertNil(t, err)

	// Untagged nodes are way geometry only, not features of their own.
	util.AssertEqual(t, 3, len(features))

	util.AssertEqual(t, int64(1), features[0].Id)
	util.AssertEqual(t, format.GeometryTypePoint, features[0].Type)
	util.AssertEqual(t, "Pond", features[0].Label)
	util.AssertEqual(t, feature.TypeLanduseWater, features[0].FeatureType)
	util.AssertApprox(t, 10.5, features[0].Coordinates[0].Latitude, 1e-12)
	util.AssertApprox(t, 10.5, features[0].Coordinates[0].Longitude, 1e-12)

	// The closed way becomes a polygon.
	util.AssertEqual(t, int64(10), features[1].Id)
	util.AssertEqual(t, format.GeometryTypePolygon, features[1].Type)
	util.AssertEqual(t, feature.TypeLanduseForest, features[1].FeatureType)
	util.AssertEqual(t, 4, len(features[1].Coordinates))

	// The open way stays a polyline.
	util.AssertEqual(t, int64(11), features[2].Id)
	util.AssertEqual(t, format.GeometryTypePolyline, features[2].Type)
	util.AssertEqual(t, feature.TypeHighwayPrimary, features[2].FeatureType)
	util.AssertEqual(t, 2, len(features[2].Coordinates))
}
