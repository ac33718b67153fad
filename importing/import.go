// Package importing converts OSM data into tile files. Nodes with tags become
// point features, ways become polylines or, when closed, polygons. Each
// feature is stored in the tile containing its first coordinate.
package importing

import (
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"os"
	"sort"
	"strings"
	"time"
	"tvf/common"
	"tvf/feature"
	"tvf/format"
	"tvf/writer"
)

const labelTagKey = "name"

// Import reads the given .osm or .pbf file and writes one tile file bucketed
// by the grid scheme with the given tile size. Ways reference nodes by ID, so
// the input must list nodes before ways (the normal order of OSM exports).
func Import(inputFile string, outputFile string, tileSize float64) error {
	if !strings.HasSuffix(inputFile, ".osm") && !strings.HasSuffix(inputFile, ".pbf") {
		return errors.Errorf("Input file must be an .osm or .pbf file but was %s", inputFile)
	}

	sigolo.Infof("Start import of file %s", inputFile)
	importStartTime := time.Now()

	f, err := os.Open(inputFile)
	if err != nil {
		return errors.Wrapf(err, "Unable to open input file %s", inputFile)
	}
	defer func() {
		closeErr := f.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close file handle for input file %s: %v", inputFile, closeErr)
		}
	}()

	var scanner osm.Scanner
	if strings.HasSuffix(inputFile, ".osm") {
		scanner = osmxml.New(context.Background(), f)
	} else {
		scanner = osmpbf.New(context.Background(), f, 1)
	}
	defer scanner.Close()

	scheme := common.NewGridScheme(tileSize)
	collector := newTileCollector(scheme)

	nodeCoordinates := map[osm.NodeID]format.Coordinate{}

	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			coordinate := format.Coordinate{Latitude: osmObj.Lat, Longitude: osmObj.Lon}
			nodeCoordinates[osmObj.ID] = coordinate

			if len(osmObj.Tags) == 0 {
				continue
			}
			collector.add(int64(osmObj.ID), format.GeometryTypePoint, osmObj.Tags, []format.Coordinate{coordinate})
		case *osm.Way:
			coordinates := make([]format.Coordinate, 0, len(osmObj.Nodes))
			for _, wayNode := range osmObj.Nodes {
				coordinate, ok := nodeCoordinates[wayNode.ID]
				if !ok {
					sigolo.Warnf("Way %d references unknown node %d, skipping way", osmObj.ID, wayNode.ID)
					coordinates = nil
					break
				}
				coordinates = append(coordinates, coordinate)
			}
			if len(coordinates) == 0 {
				continue
			}

			geometryType := format.GeometryTypePolyline
			if len(coordinates) > 2 && coordinates[0].Equal(coordinates[len(coordinates)-1]) {
				geometryType = format.GeometryTypePolygon
			}
			collector.add(int64(osmObj.ID), geometryType, osmObj.Tags, coordinates)
		}
	}

	err = scanner.Err()
	if err != nil {
		return errors.Wrapf(err, "Unable to scan input file %s", inputFile)
	}

	err = writer.WriteFile(outputFile, collector.sortedTiles())
	if err != nil {
		return err
	}

	sigolo.Infof("Finished import of %d features into %d tiles in %s", collector.featureCount, len(collector.tiles), time.Since(importStartTime))
	return nil
}

type tileCollector struct {
	scheme       common.GridScheme
	tiles        map[int32]*writer.Tile
	featureCount int
}

func newTileCollector(scheme common.GridScheme) *tileCollector {
	return &tileCollector{
		scheme: scheme,
		tiles:  map[int32]*writer.Tile{},
	}
}

func (c *tileCollector) add(id int64, geometryType format.GeometryType, tags osm.Tags, coordinates []format.Coordinate) {
	properties := feature.Properties{}
	for _, tag := range tags {
		properties[tag.Key] = tag.Value
	}
	label := properties[labelTagKey]

	tileId := c.scheme.TileIDForCoordinate(coordinates[0].Latitude, coordinates[0].Longitude)
	tile, ok := c.tiles[tileId]
	if !ok {
		tile = writer.NewTile(tileId)
		c.tiles[tileId] = tile
	}

	tile.AddFeature(id, geometryType, label, coordinates, properties)
	c.featureCount++
}

func (c *tileCollector) sortedTiles() []*writer.Tile {
	tiles := make([]*writer.Tile, 0, len(c.tiles))
	for _, tile := range c.tiles {
		tiles = append(tiles, tile)
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].ID() < tiles[j].ID() })
	return tiles
}
