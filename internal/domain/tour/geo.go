package tour

import (
	"math"
	"strconv"
	"strings"

	"github.com/geocoder89/tourhub/internal/apperr"
)

type Unit string

const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
	earthRadiusM     = earthRadiusKm * 1000
)

var errLatLng = apperr.Validation("invalid_latlng", "Please provide latitude and longitude in the format lat,lng.", nil)

func ParseUnit(raw string) (Unit, error) {
	switch Unit(raw) {
	case Miles, Kilometers:
		return Unit(raw), nil
	default:
		return "", apperr.Validation("invalid_unit", "Unit must be mi or km.", nil)
	}
}

// ParseLatLng reads "lat,lng".
func ParseLatLng(raw string) (float64, float64, error) {
	latRaw, lngRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return 0, 0, errLatLng
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, errLatLng
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, errLatLng
	}
	return lat, lng, nil
}

// RadiusRadians converts a distance in unit to an angle on the sphere.
func RadiusRadians(distance float64, unit Unit) float64 {
	if unit == Miles {
		return distance / earthRadiusMiles
	}
	return distance / earthRadiusKm
}

// Multiplier converts meters to unit.
func Multiplier(unit Unit) float64 {
	if unit == Miles {
		return 0.000621371
	}
	return 0.001
}

// AngularDistance is the haversine central angle in radians.
func AngularDistance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(a)))
}

// DistanceMeters is the distance between two points on the sphere.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return MetersFromRadians(AngularDistance(lat1, lng1, lat2, lng2))
}

func MetersFromRadians(ang float64) float64 {
	return ang * earthRadiusM
}

type Distance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

type DifficultyStats struct {
	Difficulty Difficulty `json:"difficulty"`
	NumTours   int        `json:"numTours"`
	NumRatings int        `json:"numRatings"`
	AvgRating  float64    `json:"avgRating"`
	AvgPrice   float64    `json:"avgPrice"`
	MinPrice   float64    `json:"minPrice"`
	MaxPrice   float64    `json:"maxPrice"`
}

type MonthPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// StatsMinRating is the ratings floor applied to tour stats.
const StatsMinRating = 4.5
