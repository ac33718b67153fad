package io

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"io"
	"os"
	"time"
	"tvf/feature"
)

func WriteFeaturesAsGeoJsonFile(filename string, features []*feature.Feature) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", filename)
	}

	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close file handle for GeoJSON file %s: %v", filename, closeErr)
		}
	}()

	return WriteFeaturesAsGeoJson(features, file)
}

func WriteFeaturesAsGeoJson(features []*feature.Feature, writer io.Writer) error {
	sigolo.Debug("Write features to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	for _, resolvedFeature := range features {
		geoJsonFeature := geojson.NewFeature(resolvedFeature.Geometry())

		geoJsonFeature.Properties["@id"] = resolvedFeature.Id
		geoJsonFeature.Properties["@type"] = resolvedFeature.FeatureType.String()
		if resolvedFeature.Label != "" {
			geoJsonFeature.Properties["@label"] = resolvedFeature.Label
		}

		for key, value := range resolvedFeature.Properties {
			geoJsonFeature.Properties[key] = value
		}

		featureCollection.Features = append(featureCollection.Features, geoJsonFeature)
	}

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal feature collection")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON output")
	}

	sigolo.Debugf("Finished writing %d features in %s", len(features), time.Since(writeStartTime))

	return nil
}
