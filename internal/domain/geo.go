package domain

import "strings"

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether the point lies inside b, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat <= b.North && lat >= b.South && lon <= b.East && lon >= b.West
}

// SriLankaBounds frames the island for map views and coordinate checks.
var SriLankaBounds = Bounds{North: 9.9, South: 5.9, East: 82.0, West: 79.5}

// Island centroid used for weather lookups.
const (
	SriLankaCenterLat = 7.8731
	SriLankaCenterLon = 80.7718
)

// Districts lists the 25 administrative districts.
var Districts = []string{
	"Ampara", "Anuradhapura", "Badulla", "Batticaloa", "Colombo",
	"Galle", "Gampaha", "Hambantota", "Jaffna", "Kalutara",
	"Kandy", "Kegalle", "Kilinochchi", "Kurunegala", "Mannar",
	"Matale", "Matara", "Monaragala", "Mullaitivu", "Nuwara Eliya",
	"Polonnaruwa", "Puttalam", "Ratnapura", "Trincomalee", "Vavuniya",
}

// IsDistrict reports whether name is one of Districts (exact match).
func IsDistrict(name string) bool {
	for _, d := range Districts {
		if d == name {
			return true
		}
	}
	return false
}

// SearchDistricts returns the districts whose name contains q, ignoring case.
// An empty query matches nothing.
func SearchDistricts(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	out := []string{}
	if q == "" {
		return out
	}
	for _, d := range Districts {
		if strings.Contains(strings.ToLower(d), q) {
			out = append(out, d)
		}
	}
	return out
}

// MatchesDistrict reports whether district equals filter ignoring case. An
// empty filter matches everything.
func MatchesDistrict(district, filter string) bool {
	return filter == "" || strings.EqualFold(district, filter)
}
