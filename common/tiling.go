// Package common contains the tiling scheme shared by the importer and the
// query engine. The reader itself only consumes tile IDs, so any function
// producing IDs for a bounding box can replace the grid scheme here.
package common

import (
	"github.com/paulmach/orb"
	"math"
)

// TilesForBoundingBoxFunc yields the IDs of all tiles a bounding box overlaps.
// Returned IDs that are not present in a tile file are silently skipped by the
// query engine.
type TilesForBoundingBoxFunc func(bbox orb.Bound) []int32

// DefaultTileSize is the edge length of one grid tile in degrees.
const DefaultTileSize = 1.0

// GridScheme partitions the world into a fixed lat/lon grid. Tile IDs are
// row-major cell numbers: id = row*columns + column, with row 0 at latitude
// -90 and column 0 at longitude -180.
type GridScheme struct {
	TileSize float64
}

func NewGridScheme(tileSize float64) GridScheme {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return GridScheme{TileSize: tileSize}
}

func (g GridScheme) columns() int32 {
	return int32(math.Ceil(360 / g.TileSize))
}

func (g GridScheme) rows() int32 {
	return int32(math.Ceil(180 / g.TileSize))
}

func (g GridScheme) column(lon float64) int32 {
	return clamp(int32((lon+180)/g.TileSize), g.columns()-1)
}

func (g GridScheme) row(lat float64) int32 {
	return clamp(int32((lat+90)/g.TileSize), g.rows()-1)
}

func clamp(value int32, max int32) int32 {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

// TileIDForCoordinate returns the ID of the tile containing the given
// position.
func (g GridScheme) TileIDForCoordinate(lat float64, lon float64) int32 {
	return g.row(lat)*g.columns() + g.column(lon)
}

// TilesForBoundingBox returns the IDs of all grid tiles the bounding box
// overlaps, both interval ends inclusive.
func (g GridScheme) TilesForBoundingBox(bbox orb.Bound) []int32 {
	minColumn := g.column(bbox.Min.Lon())
	maxColumn := g.column(bbox.Max.Lon())
	minRow := g.row(bbox.Min.Lat())
	maxRow := g.row(bbox.Max.Lat())

	var tileIds []int32
	for row := minRow; row <= maxRow; row++ {
		for column := minColumn; column <= maxColumn; column++ {
			tileIds = append(tileIds, row*g.columns()+column)
		}
	}

	return tileIds
}
