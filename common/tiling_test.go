package common

import (
	"github.com/paulmach/orb"
	"testing"
	"tvf/util"
)

func TestGridScheme_tileIdForCoordinate(t *testing.T) {
	scheme := NewGridScheme(1)

	// 360 columns per row, row 0 starts at lat -90, column 0 at lon -180.
	util.AssertEqual(t, int32(0), scheme.TileIDForCoordinate(-90, -180))
	util.AssertEqual(t, int32(359), scheme.TileIDForCoordinate(-90, 179.5))
	util.AssertEqual(t, int32(360), scheme.TileIDForCoordinate(-89, -180))
	util.AssertEqual(t, int32(100*360+190), scheme.TileIDForCoordinate(10.5, 10.5))
}

func TestGridScheme_clampAtWorldEdge(t *testing.T) {
	scheme := NewGridScheme(1)

	util.AssertEqual(t, scheme.TileIDForCoordinate(89.5, 179.5), scheme.TileIDForCoordinate(90, 180))
	util.AssertEqual(t, scheme.TileIDForCoordinate(-90, -180), scheme.TileIDForCoordinate(-95, -200))
}

func TestGridScheme_tilesForBoundingBox(t *testing.T) {
	// Arrange
	scheme := NewGridScheme(1)
	bbox := orb.Bound{Min: orb.Point{10.2, 10.2}, Max: orb.Point{11.8, 11.8}}

	// Act
	tileIds := scheme.TilesForBoundingBox(bbox)

	// Assert: 2x2 tiles covering lon 10..12 and lat 10..12.
	util.AssertEqual(t, 4, len(tileIds))
	util.AssertEqual(t, []int32{
		100*360 + 190, 100*360 + 191,
		101*360 + 190, 101*360 + 191,
	}, tileIds)
}

func TestGridScheme_singleTileBbox(t *testing.T) {
	scheme := NewGridScheme(1)
	bbox := orb.Bound{Min: orb.Point{10.2, 10.2}, Max: orb.Point{10.8, 10.8}}

	tileIds := scheme.TilesForBoundingBox(bbox)

	util.AssertEqual(t, 1, len(tileIds))
	util.AssertEqual(t, scheme.TileIDForCoordinate(10.5, 10.5), tileIds[0])
}

func TestGridScheme_monotonicityUnderContainment(t *testing.T) {
	// Arrange: bboxInner is contained in bboxOuter, so every tile of the inner
	// box must also be a candidate of the outer box.
	scheme := NewGridScheme(1)
	bboxInner := orb.Bound{Min: orb.Point{3.3, 4.4}, Max: orb.Point{5.5, 6.6}}
	bboxOuter := orb.Bound{Min: orb.Point{2.2, 3.3}, Max: orb.Point{7.7, 8.8}}

	// Act
	innerTileIds := scheme.TilesForBoundingBox(bboxInner)
	outerTileIds := scheme.TilesForBoundingBox(bboxOuter)

	// Assert
	outerSet := map[int32]bool{}
	for _, tileId := range outerTileIds {
		outerSet[tileId] = true
	}
	for _, tileId := range innerTileIds {
		util.AssertTrue(t, outerSet[tileId])
	}
}

func TestGridScheme_defaultTileSizeForInvalidInput(t *testing.T) {
	util.AssertEqual(t, DefaultTileSize, NewGridScheme(0).TileSize)
	util.AssertEqual(t, DefaultTileSize, NewGridScheme(-1).TileSize)
	util.AssertEqual(t, 0.5, NewGridScheme(0.5).TileSize)
}
