// Package feature contains the resolved, in-memory representation of stored
// map features and the tag based classification into render categories.
package feature

import (
	"github.com/paulmach/orb"
	"sort"
	"strings"
	"tvf/format"
)

// Properties are the OSM-style key/value tags of a feature.
type Properties map[string]string

// FirstWithKeyPrefix returns the lexicographically first property whose key
// starts with the given prefix. The sorted scan keeps prefix lookups
// deterministic even though map iteration order is not.
func (p Properties) FirstWithKeyPrefix(prefix string) (string, string, bool) {
	keys := make([]string, 0, len(p))
	for key := range p {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", "", false
	}

	sort.Strings(keys)
	return keys[0], p[keys[0]], true
}

// ValuesWithKeyPrefix returns the values of all properties whose key starts
// with the given prefix, in sorted key order.
func (p Properties) ValuesWithKeyPrefix(prefix string) []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, p[key])
	}
	return values
}

// Feature is one fully resolved map feature as handed to query callbacks. All
// fields are copies, a Feature stays valid after the underlying tile file has
// been closed.
type Feature struct {
	Id          int64
	Type        format.GeometryType
	Label       string
	Coordinates []format.Coordinate
	Properties  Properties
	FeatureType FeatureType
}

// Geometry converts the raw coordinate list into the orb geometry matching the
// feature's type. Coordinates map to orb points as (longitude, latitude).
func (f *Feature) Geometry() orb.Geometry {
	switch f.Type {
	case format.GeometryTypePoint:
		if len(f.Coordinates) == 0 {
			return orb.Point{}
		}
		return toPoint(f.Coordinates[0])
	case format.GeometryTypePolygon:
		ring := make(orb.Ring, 0, len(f.Coordinates)+1)
		for _, coordinate := range f.Coordinates {
			ring = append(ring, toPoint(coordinate))
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}
	default:
		lineString := make(orb.LineString, 0, len(f.Coordinates))
		for _, coordinate := range f.Coordinates {
			lineString = append(lineString, toPoint(coordinate))
		}
		return lineString
	}
}

func toPoint(coordinate format.Coordinate) orb.Point {
	return orb.Point{coordinate.Longitude, coordinate.Latitude}
}
