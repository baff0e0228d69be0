package domain

import "strings"

// Trend values reported or derived for a station's water level movement.
const (
	TrendRising  = "Rising"
	TrendFalling = "Falling"
)

// Thresholds is a station's flood threshold triple in metres. By domain
// convention alert <= minor <= major. A zero value means "unset".
type Thresholds struct {
	Alert float64 `json:"alert_level"`
	Minor float64 `json:"minor_flood_level"`
	Major float64 `json:"major_flood_level"`
}

// StationRecord is the unified per-station view produced by the merge
// engine: live reading, static reference data, and derived alert fields.
// Nil pointer fields mean "no current reading".
type StationRecord struct {
	StationName        string     `json:"station_name"`
	RiverName          string     `json:"river_name"`
	BasinName          string     `json:"river_basin_name"`
	LatLng             [2]float64 `json:"lat_lng"`
	WaterLevel         *float64   `json:"water_level"`
	PreviousWaterLevel *float64   `json:"previous_water_level"`
	Thresholds
	AlertStatus     AlertStatus `json:"alert_status"`
	FloodScore      *float64    `json:"flood_score"`
	RisingOrFalling string      `json:"rising_or_falling,omitempty"`
	RainfallMM      *float64    `json:"rainfall_mm,omitempty"`
	Remarks         string      `json:"remarks,omitempty"`
	Timestamp       string      `json:"timestamp"`
}

// GaugingStation is the station-metadata view of a merged record.
type GaugingStation struct {
	Name      string     `json:"name"`
	RiverName string     `json:"river_name"`
	BasinName string     `json:"river_basin_name"`
	LatLng    [2]float64 `json:"lat_lng"`
	Thresholds
}

// River is derived from the stations that reference it. It has no identity
// outside the snapshot that produced it.
type River struct {
	Name      string `json:"name"`
	BasinName string `json:"river_basin_name"`
}

// Basin is derived the same way as River.
type Basin struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// BasinCode extracts the numeric code from basin names like
// "Kelani Ganga (RB 01)". Returns "" when the name carries no code.
func BasinCode(name string) string {
	i := strings.Index(name, "(RB ")
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(name[i+len("(RB "):], ")")
}

// AlertSummary groups stations sharing an alert status.
type AlertSummary struct {
	AlertStatus AlertStatus `json:"alert_status"`
	Count       int         `json:"count"`
	Stations    []string    `json:"stations"`
}

// LiveReading is the source-agnostic shape every live-feed adapter produces.
// Timestamp is derived from the artifact's own identity (filename-embedded
// date-time); in-payload record timestamps are known unreliable.
type LiveReading struct {
	StationName        string
	RiverName          string
	BasinName          string
	WaterLevel         *float64
	PreviousWaterLevel *float64
	Trend              string
	RainfallMM         *float64
	Remarks            string

	// Thresholds is set only by generations that carry the triple in-payload.
	Thresholds *Thresholds
	Timestamp  string
}

// StaticStation is a static-reference entry: coordinates plus thresholds,
// joined to live readings by normalized station name.
type StaticStation struct {
	Name       string
	LatLng     [2]float64
	Thresholds Thresholds
}

// FreshReading is an entry from the independently cadenced fresh-readings
// feed, keyed by raw station name and carrying its own timestamp.
type FreshReading struct {
	StationName string
	WaterLevel  *float64
	Timestamp   string
}
