package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"tvf/feature"
	"tvf/format"
	"tvf/storage"
)

// ForEachFeature visits every stored feature that has at least one vertex
// inside the closed intervals of the given bounding box. This is a coarse
// point-membership test on the feature's own vertices, not a geometric
// intersection: a polygon whose interior crosses the box while all its
// vertices lie outside is not reported. Consumers of this format rely on that
// behavior, so it must not be tightened.
//
// The candidate tiles come from the reader's tiling function, tile IDs without
// an entry in the file are skipped. Properties are resolved and the feature is
// classified only after it passed the bounding-box filter.
//
// A callback returning false stops the scan of the current tile only, the
// remaining candidate tiles are still visited. Any malformed record aborts the
// whole query and is returned as error.
func (r *Reader) ForEachFeature(bbox orb.Bound, callback func(*feature.Feature) bool) error {
	tileIds := r.tilesForBoundingBox(bbox)
	sigolo.Debugf("Query features in bbox=%v over %d candidate tiles", bbox, len(tileIds))

	for _, tileId := range tileIds {
		tileOffset, found, err := r.LocateTile(tileId)
		if err != nil {
			return errors.Wrapf(err, "Unable to locate tile %d", tileId)
		}
		if !found {
			sigolo.Tracef("Tile %d not present in file, skipping", tileId)
			continue
		}

		err = r.forEachFeatureInTile(tileId, tileOffset, bbox, callback)
		if err != nil {
			return errors.Wrapf(err, "Unable to read features of tile %d", tileId)
		}
	}

	return nil
}

func (r *Reader) forEachFeatureInTile(tileId int32, tileOffset uint64, bbox orb.Bound, callback func(*feature.Feature) bool) error {
	block, err := r.tileBlockHeader(tileOffset)
	if err != nil {
		return err
	}

	if sigolo.ShouldLogTrace() {
		sigolo.Tracef("Tile %d: features=%d, coordinates=%d, strings=%d", tileId, block.FeaturesCount, block.CoordinatesCount, block.StringCount)
	}

	featureData, err := r.file.Slice(tileOffset+format.TileBlockHeaderSize, uint64(block.FeaturesCount)*format.MapFeatureSize)
	if err != nil {
		return errors.Wrapf(err, "Unable to read %d feature records", block.FeaturesCount)
	}

	for i := int32(0); i < block.FeaturesCount; i++ {
		mapFeature := format.DecodeMapFeature(featureData[i*format.MapFeatureSize:])

		coordinates, err := r.resolveCoordinates(block, mapFeature)
		if err != nil {
			return errors.Wrapf(err, "Unable to resolve coordinates of feature %d", mapFeature.Id)
		}

		isInsideBbox := anyCoordinateInsideBbox(coordinates, bbox)

		label := ""
		if mapFeature.LabelOffset >= 0 {
			label, err = r.resolveString(block, mapFeature.LabelOffset)
			if err != nil {
				return errors.Wrapf(err, "Unable to resolve label of feature %d", mapFeature.Id)
			}
		}

		if !isInsideBbox {
			continue
		}

		// Properties are only needed for features that passed the filter, so
		// they are resolved lazily at this point.
		properties, err := r.resolveProperties(block, mapFeature)
		if err != nil {
			return errors.Wrapf(err, "Unable to resolve properties of feature %d", mapFeature.Id)
		}

		resolvedFeature := &feature.Feature{
			Id:          mapFeature.Id,
			Type:        mapFeature.GeometryType,
			Label:       label,
			Coordinates: coordinates,
			Properties:  properties,
			FeatureType: feature.Classify(properties, mapFeature.GeometryType),
		}

		if !callback(resolvedFeature) {
			// Stops this tile only, the scan continues with the next
			// candidate tile.
			return nil
		}
	}

	return nil
}

func (r *Reader) resolveCoordinates(block format.TileBlockHeader, mapFeature format.MapFeature) ([]format.Coordinate, error) {
	if mapFeature.CoordinateOffset < 0 || mapFeature.CoordinateCount < 0 ||
		mapFeature.CoordinateOffset+mapFeature.CoordinateCount > block.CoordinatesCount {
		return nil, errors.Wrapf(storage.ErrOutOfRange, "Coordinates [%d, %d) outside coordinate array with %d entries", mapFeature.CoordinateOffset, mapFeature.CoordinateOffset+mapFeature.CoordinateCount, block.CoordinatesCount)
	}

	coordinateData, err := r.file.Slice(block.CoordinatesOffsetInBytes+uint64(mapFeature.CoordinateOffset)*format.CoordinateSize, uint64(mapFeature.CoordinateCount)*format.CoordinateSize)
	if err != nil {
		return nil, err
	}

	coordinates := make([]format.Coordinate, mapFeature.CoordinateCount)
	for i := range coordinates {
		coordinates[i] = format.DecodeCoordinate(coordinateData[i*format.CoordinateSize:])
	}

	return coordinates, nil
}

func (r *Reader) resolveProperties(block format.TileBlockHeader, mapFeature format.MapFeature) (feature.Properties, error) {
	properties := feature.Properties{}

	for i := int32(0); i < mapFeature.PropertyCount/2; i++ {
		key, value, err := r.resolveProperty(block, mapFeature.PropertiesOffset+2*i)
		if err != nil {
			return nil, err
		}
		properties[key] = value
	}

	return properties, nil
}

func anyCoordinateInsideBbox(coordinates []format.Coordinate, bbox orb.Bound) bool {
	for _, coordinate := range coordinates {
		if bbox.Contains(orb.Point{coordinate.Longitude, coordinate.Latitude}) {
			return true
		}
	}
	return false
}
