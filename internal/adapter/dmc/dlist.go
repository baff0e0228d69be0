package dmc

import (
	"context"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// DListSource reads the {"d_list": [...]} envelope shared by the second and
// third upstream generations. The generations differ only in how the
// artifact is located and addressed, so both construct the same source with
// a different resolver.
type DListSource struct {
	name           string
	client         *Client
	resolver       Resolver
	baseURL        string
	artifactSuffix string // appended to resolved ids that lack a file extension
}

// NewDListV2Source creates the second-generation live source: the envelope
// is discovered through a directory listing of "*-water-level.json" files.
func NewDListV2Source(client *Client, c *cache.Cache, dataBaseURL, contentsAPIURL string) *DListSource {
	return &DListSource{
		name:     "dmc-dlist-v2",
		client:   client,
		resolver: NewListingResolver(client, contentsAPIURL+"/"+waterLevelDir, "-water-level.json", c, "latest_water_level_file"),
		baseURL:  dataBaseURL + "/" + waterLevelDir,
	}
}

// NewDListV3Source creates the third-generation live source: the envelope
// is located through a TSV document manifest whose ids carry no file
// extension.
func NewDListV3Source(client *Client, c *cache.Cache, docsIndexURL, docsBaseURL string) *DListSource {
	return &DListSource{
		name:           "dmc-dlist-v3",
		client:         client,
		resolver:       NewIndexResolver(client, docsIndexURL, "water-level", c, "latest_water_level_doc"),
		baseURL:        docsBaseURL,
		artifactSuffix: ".json",
	}
}

func (s *DListSource) Name() string { return s.name }

type dListEnvelope struct {
	DList []dListItem `json:"d_list"`
}

type dListItem struct {
	Station            string   `json:"station"`
	River              string   `json:"river"`
	RiverBasin         string   `json:"river_basin"`
	WaterLevel         *float64 `json:"water_level"`
	PreviousWaterLevel *float64 `json:"previous_water_level"`
	RisingOrFalling    string   `json:"rising_or_falling"`
	Rainfall           *float64 `json:"rainfall"`
	Remarks            string   `json:"remarks"`
}

// LatestReadings resolves the newest envelope and maps its records into the
// common live-reading shape. These generations carry no in-payload
// thresholds; the merge engine joins them from a static source instead.
func (s *DListSource) LatestReadings(ctx context.Context) ([]domain.LiveReading, error) {
	id, err := s.resolver.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	var envelope dListEnvelope
	if err := s.client.GetJSON(ctx, s.Name(), s.baseURL+"/"+id+s.artifactSuffix, &envelope); err != nil {
		return nil, err
	}

	ts := timestampFromArtifact(id)
	readings := make([]domain.LiveReading, 0, len(envelope.DList))
	for _, it := range envelope.DList {
		if it.Station == "" {
			continue
		}
		readings = append(readings, domain.LiveReading{
			StationName:        it.Station,
			RiverName:          it.River,
			BasinName:          it.RiverBasin,
			WaterLevel:         it.WaterLevel,
			PreviousWaterLevel: it.PreviousWaterLevel,
			Trend:              it.RisingOrFalling,
			RainfallMM:         it.Rainfall,
			Remarks:            it.Remarks,
			Timestamp:          ts,
		})
	}
	return readings, nil
}
