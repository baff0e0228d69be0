package dmc

import (
	"context"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// FreshLevelsSource reads the independently cadenced fresh-readings feed.
// It is keyed by raw station name (the same spelling the live bulletins
// use) and carries its own timestamps, which the merge engine prefers over
// the primary artifact's when a reading is present.
type FreshLevelsSource struct {
	client *Client
	url    string
}

// NewFreshLevelsSource creates a source over the fresh readings feed.
func NewFreshLevelsSource(client *Client, url string) *FreshLevelsSource {
	return &FreshLevelsSource{client: client, url: url}
}

func (s *FreshLevelsSource) Name() string { return "fresh-levels" }

type freshItem struct {
	StationName string   `json:"station_name"`
	WaterLevelM *float64 `json:"water_level_m"`
	Timestamp   string   `json:"timestamp"`
}

func (s *FreshLevelsSource) LatestReadings(ctx context.Context) ([]domain.FreshReading, error) {
	var items []freshItem
	if err := s.client.GetJSON(ctx, s.Name(), s.url, &items); err != nil {
		return nil, err
	}

	readings := make([]domain.FreshReading, 0, len(items))
	for _, it := range items {
		if it.StationName == "" {
			continue
		}
		readings = append(readings, domain.FreshReading{
			StationName: it.StationName,
			WaterLevel:  it.WaterLevelM,
			Timestamp:   it.Timestamp,
		})
	}
	return readings, nil
}
