package feature

import (
	"strings"
	"tvf/format"
)

// FeatureType is the render category of a feature, derived from its tags at
// query time. It is a bit-flag set: every concrete highway type contains the
// TypeHighway bit and every concrete landuse type contains the TypeLanduse
// bit, so callers can match whole groups with a single mask.
type FeatureType uint32

const (
	TypeUnknown  FeatureType = 0
	TypeWaterway FeatureType = 1 << 0
	TypeRailway  FeatureType = 1 << 1
	TypeBorder   FeatureType = 1 << 2
	TypeBuilding FeatureType = 1 << 3

	TypeHighway            FeatureType = 1 << 4
	TypeHighwayMotorway    FeatureType = TypeHighway | 1<<5
	TypeHighwayTrunk       FeatureType = TypeHighway | 1<<6
	TypeHighwayPrimary     FeatureType = TypeHighway | 1<<7
	TypeHighwaySecondary   FeatureType = TypeHighway | 1<<8
	TypeHighwayTertiary    FeatureType = TypeHighway | 1<<9
	TypeHighwayResidential FeatureType = TypeHighway | 1<<10

	TypeLanduse            FeatureType = 1 << 11
	TypeLanduseForest      FeatureType = TypeLanduse | 1<<12
	TypeLanduseResidential FeatureType = TypeLanduse | 1<<13
	TypeLandusePlain       FeatureType = TypeLanduse | 1<<14
	TypeLanduseWater       FeatureType = TypeLanduse | 1<<15
	TypeLanduseMountains   FeatureType = TypeLanduse | 1<<16
	TypeLanduseDesert      FeatureType = TypeLanduse | 1<<17
	TypeLanduseNatural     FeatureType = TypeLanduse | 1<<18
)

func (t FeatureType) String() string {
	switch t {
	case TypeWaterway:
		return "waterway"
	case TypeRailway:
		return "railway"
	case TypeBorder:
		return "border"
	case TypeBuilding:
		return "building"
	case TypeHighway:
		return "highway"
	case TypeHighwayMotorway:
		return "highway-motorway"
	case TypeHighwayTrunk:
		return "highway-trunk"
	case TypeHighwayPrimary:
		return "highway-primary"
	case TypeHighwaySecondary:
		return "highway-secondary"
	case TypeHighwayTertiary:
		return "highway-tertiary"
	case TypeHighwayResidential:
		return "highway-residential"
	case TypeLanduse:
		return "landuse"
	case TypeLanduseForest:
		return "landuse-forest"
	case TypeLanduseResidential:
		return "landuse-residential"
	case TypeLandusePlain:
		return "landuse-plain"
	case TypeLanduseWater:
		return "landuse-water"
	case TypeLanduseMountains:
		return "landuse-mountains"
	case TypeLanduseDesert:
		return "landuse-desert"
	case TypeLanduseNatural:
		return "landuse-natural"
	}
	return "unknown"
}

var highwayTypes = map[string]FeatureType{
	"motorway":      TypeHighwayMotorway,
	"trunk":         TypeHighwayTrunk,
	"primary":       TypeHighwayPrimary,
	"secondary":     TypeHighwaySecondary,
	"tertiary":      TypeHighwayTertiary,
	"residential":   TypeHighwayResidential,
	"living_street": TypeHighwayResidential,
}

var residentialLanduseValues = map[string]bool{
	"residential":  true,
	"cemetery":     true,
	"industrial":   true,
	"commercial":   true,
	"square":       true,
	"construction": true,
	"military":     true,
	"quarry":       true,
	"brownfield":   true,
}

var plainLanduseValues = map[string]bool{
	"farm":              true,
	"meadow":            true,
	"grass":             true,
	"greenfield":        true,
	"recreation_ground": true,
	"winter_sports":     true,
	"allotments":        true,
}

var naturalTypes = map[string]FeatureType{
	"fell":      TypeLandusePlain,
	"grassland": TypeLandusePlain,
	"heath":     TypeLandusePlain,
	"moor":      TypeLandusePlain,
	"scrub":     TypeLandusePlain,
	"wetland":   TypeLandusePlain,
	"wood":      TypeLanduseForest,
	"tree_row":  TypeLanduseForest,
	"bare_rock": TypeLanduseMountains,
	"rock":      TypeLanduseMountains,
	"scree":     TypeLanduseMountains,
	"sand":      TypeLanduseDesert,
	"beach":     TypeLanduseDesert,
	"water":     TypeLanduseWater,
}

// Classify derives the render category of a feature from its tags and
// geometry. The rules form an ordered chain, the first matching rule wins and
// ends the evaluation. All comparisons are case sensitive. The rule order is
// part of the query contract, reordering it changes results for features whose
// tags satisfy several rules.
func Classify(properties Properties, geometryType format.GeometryType) FeatureType {
	if highwayValue, ok := properties["highway"]; ok {
		if highwayType, known := highwayTypes[highwayValue]; known {
			return highwayType
		}
		return TypeUnknown
	}

	if _, _, ok := properties.FirstWithKeyPrefix("water"); ok && geometryType != format.GeometryTypePoint {
		return TypeWaterway
	}

	if _, ok := properties["railway"]; ok {
		return TypeRailway
	}

	// A feature can carry several keys with the same prefix, such as "boundary"
	// next to "boundary:marker". These rules match when any of them satisfies
	// the value predicate.
	boundaryValues := properties.ValuesWithKeyPrefix("boundary")
	if anyHasPrefix(boundaryValues, "administrative") {
		for _, adminLevel := range properties.ValuesWithKeyPrefix("admin_level") {
			if adminLevel == "2" {
				return TypeBorder
			}
		}
	}
	if anyHasPrefix(boundaryValues, "forest") {
		return TypeLanduseForest
	}

	landuseValues := properties.ValuesWithKeyPrefix("landuse")
	if anyHasPrefix(landuseValues, "forest") || anyHasPrefix(landuseValues, "orchard") {
		return TypeLanduseForest
	}

	if geometryType == format.GeometryTypePolygon {
		landuseValue := properties["landuse"]
		if residentialLanduseValues[landuseValue] {
			return TypeLanduseResidential
		}
		if plainLanduseValues[landuseValue] {
			return TypeLandusePlain
		}
		if landuseValue == "reservoir" || landuseValue == "basin" {
			return TypeLanduseWater
		}

		if _, _, ok := properties.FirstWithKeyPrefix("building"); ok {
			return TypeLanduseResidential
		}
		if _, _, ok := properties.FirstWithKeyPrefix("leisure"); ok {
			return TypeLanduseResidential
		}
		if _, _, ok := properties.FirstWithKeyPrefix("amenity"); ok {
			return TypeLanduseResidential
		}
	}

	if _, naturalValue, ok := properties.FirstWithKeyPrefix("natural"); ok {
		// Water keeps its category for every geometry, lakes are often stored
		// as labeled points. The remaining natural values only apply to
		// polygons.
		if naturalValue == "water" {
			return TypeLanduseWater
		}
		if geometryType == format.GeometryTypePolygon {
			if naturalType, known := naturalTypes[naturalValue]; known {
				return naturalType
			}
			return TypeLanduseNatural
		}
	}

	return TypeUnknown
}

func anyHasPrefix(values []string, prefix string) bool {
	for _, value := range values {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
