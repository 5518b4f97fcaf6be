package domain

import (
	"math"
	"sort"
)

// earthRadiusKm is the mean earth radius used by the spherical approximation.
const earthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within the legal ranges.
// Latitude must be within [-90, 90] and longitude within [-180, 180].
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula. The result is full precision; callers round
// for display. A missing coordinate means "unknown distance", not zero; that
// case is modeled by carrying *Coordinate and never calling Distance on nil.
func Distance(a, b Coordinate) float64 {
	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to one decimal place for display.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// DeliveryOffer is a delivery currently offered to drivers. Pickup is nil
// when the restaurant has no geocoded address yet.
type DeliveryOffer struct {
	OrderID      string      `json:"orderId"`
	RestaurantID string      `json:"restaurantId"`
	Pickup       *Coordinate `json:"pickup,omitempty"`

	// DistanceKm is filled in by RankByProximity, rounded to one decimal.
	// Nil means the distance is unknown.
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// RankByProximity orders offers by great-circle distance from the driver's
// position, nearest first. Offers without a pickup coordinate sort last with
// DistanceKm left nil. The ranking is a read-only convenience for drivers,
// never a correctness-critical ordering.
func RankByProximity(from Coordinate, offers []DeliveryOffer) []DeliveryOffer {
	type keyed struct {
		offer DeliveryOffer
		km    float64
	}

	entries := make([]keyed, len(offers))
	for i, offer := range offers {
		entries[i] = keyed{offer: offer, km: math.Inf(1)}
		entries[i].offer.DistanceKm = nil
		if offer.Pickup == nil {
			continue
		}
		km := Distance(from, *offer.Pickup)
		entries[i].km = km
		rounded := RoundKm(km)
		entries[i].offer.DistanceKm = &rounded
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].km < entries[j].km
	})

	ranked := make([]DeliveryOffer, len(entries))
	for i, e := range entries {
		ranked[i] = e.offer
	}
	return ranked
}
