package dmc

import (
	"context"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// waterLevelDir is the versioned path both listing-based generations
// publish their dated water level artifacts under.
const waterLevelDir = "data-parsed/river-water-level-and-flood-warnings"

// ParsedV1Source reads the first-generation layout: a dated JSON array of
// station readings with in-payload thresholds, discovered via directory
// listing.
type ParsedV1Source struct {
	client   *Client
	resolver Resolver
	baseURL  string
}

// NewParsedV1Source creates the parsed-v1 live source.
func NewParsedV1Source(client *Client, c *cache.Cache, dataBaseURL, contentsAPIURL string) *ParsedV1Source {
	return &ParsedV1Source{
		client:   client,
		resolver: NewListingResolver(client, contentsAPIURL+"/"+waterLevelDir, ".json", c, "latest_water_level_file"),
		baseURL:  dataBaseURL + "/" + waterLevelDir,
	}
}

func (s *ParsedV1Source) Name() string { return "dmc-parsed-v1" }

type parsedV1Item struct {
	Station         string   `json:"station"`
	River           string   `json:"river"`
	RiverBasin      string   `json:"river_basin"`
	WaterLevel2     *float64 `json:"water_level_2"` // latest reading
	WaterLevel1     *float64 `json:"water_level_1"` // previous reading
	AlertLevel      float64  `json:"alert_level"`
	MinorFloodLevel float64  `json:"minor_flood_level"`
	MajorFloodLevel float64  `json:"major_flood_level"`
	Rainfall        *float64 `json:"rainfall"`
	Remarks         string   `json:"remarks"`
	RemarksRising   string   `json:"remarks_rising"`
}

// LatestReadings resolves the newest artifact and maps its records into the
// common live-reading shape. Timestamps come from the artifact filename;
// in-payload times are unreliable.
func (s *ParsedV1Source) LatestReadings(ctx context.Context) ([]domain.LiveReading, error) {
	name, err := s.resolver.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	var items []parsedV1Item
	if err := s.client.GetJSON(ctx, s.Name(), s.baseURL+"/"+name, &items); err != nil {
		return nil, err
	}

	ts := timestampFromArtifact(name)
	readings := make([]domain.LiveReading, 0, len(items))
	for _, it := range items {
		if it.Station == "" {
			continue
		}
		readings = append(readings, domain.LiveReading{
			StationName:        it.Station,
			RiverName:          it.River,
			BasinName:          it.RiverBasin,
			WaterLevel:         it.WaterLevel2,
			PreviousWaterLevel: it.WaterLevel1,
			Trend:              it.RemarksRising,
			RainfallMM:         it.Rainfall,
			Remarks:            it.Remarks,
			Thresholds: &domain.Thresholds{
				Alert: it.AlertLevel,
				Minor: it.MinorFloodLevel,
				Major: it.MajorFloodLevel,
			},
			Timestamp: ts,
		})
	}
	return readings, nil
}
