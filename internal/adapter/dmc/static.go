package dmc

import (
	"context"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// StaticStationsSource reads the static stations reference file that ships
// alongside the listing-based generations: coordinates as a latLng pair
// plus the threshold triple.
type StaticStationsSource struct {
	client *Client
	url    string
}

// NewStaticStationsSource creates a source over a stations.json file.
func NewStaticStationsSource(client *Client, url string) *StaticStationsSource {
	return &StaticStationsSource{client: client, url: url}
}

func (s *StaticStationsSource) Name() string { return "static-stations" }

type staticStationItem struct {
	Name            string    `json:"name"`
	LatLng          []float64 `json:"latLng"`
	AlertLevel      float64   `json:"alert_level"`
	MinorFloodLevel float64   `json:"minor_flood_level"`
	MajorFloodLevel float64   `json:"major_flood_level"`
}

func (s *StaticStationsSource) Stations(ctx context.Context) ([]domain.StaticStation, error) {
	var items []staticStationItem
	if err := s.client.GetJSON(ctx, s.Name(), s.url, &items); err != nil {
		return nil, err
	}

	stations := make([]domain.StaticStation, 0, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		st := domain.StaticStation{
			Name: it.Name,
			Thresholds: domain.Thresholds{
				Alert: it.AlertLevel,
				Minor: it.MinorFloodLevel,
				Major: it.MajorFloodLevel,
			},
		}
		if len(it.LatLng) == 2 {
			st.LatLng = [2]float64{it.LatLng[0], it.LatLng[1]}
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// MetricStaticSource reads the independently hosted thresholds feed the
// third generation introduced. Same information, different field names:
// explicit latitude/longitude and an "_m" suffix on every level.
type MetricStaticSource struct {
	client *Client
	url    string
}

// NewMetricStaticSource creates a source over the *_m thresholds feed.
func NewMetricStaticSource(client *Client, url string) *MetricStaticSource {
	return &MetricStaticSource{client: client, url: url}
}

func (s *MetricStaticSource) Name() string { return "static-thresholds-m" }

type metricStaticItem struct {
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	AlertLevelM     float64 `json:"alert_level_m"`
	MinorFloodLevM  float64 `json:"minor_flood_level_m"`
	MajorFloodLevM  float64 `json:"major_flood_level_m"`
}

func (s *MetricStaticSource) Stations(ctx context.Context) ([]domain.StaticStation, error) {
	var items []metricStaticItem
	if err := s.client.GetJSON(ctx, s.Name(), s.url, &items); err != nil {
		return nil, err
	}

	stations := make([]domain.StaticStation, 0, len(items))
	for _, it := range items {
		if it.Name == "" {
			continue
		}
		stations = append(stations, domain.StaticStation{
			Name:   it.Name,
			LatLng: [2]float64{it.Latitude, it.Longitude},
			Thresholds: domain.Thresholds{
				Alert: it.AlertLevelM,
				Minor: it.MinorFloodLevM,
				Major: it.MajorFloodLevM,
			},
		})
	}
	return stations, nil
}
