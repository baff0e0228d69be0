package aggregate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/domain"
	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

func ptr(v float64) *float64 { return &v }

type stubLive struct {
	readings []domain.LiveReading
	err      error
	calls    int
}

func (s *stubLive) Name() string { return "stub-live" }

func (s *stubLive) LatestReadings(context.Context) ([]domain.LiveReading, error) {
	s.calls++
	return s.readings, s.err
}

type stubStatic struct {
	name     string
	stations []domain.StaticStation
	err      error
	calls    int
}

func (s *stubStatic) Name() string { return s.name }

func (s *stubStatic) Stations(context.Context) ([]domain.StaticStation, error) {
	s.calls++
	return s.stations, s.err
}

type stubFresh struct {
	readings []domain.FreshReading
	err      error
	calls    int
}

func (s *stubFresh) Name() string { return "stub-fresh" }

func (s *stubFresh) LatestReadings(context.Context) ([]domain.FreshReading, error) {
	s.calls++
	return s.readings, s.err
}

type stubPublisher struct {
	published [][]domain.StationRecord
	err       error
}

func (s *stubPublisher) PublishAlerts(_ context.Context, records []domain.StationRecord) error {
	s.published = append(s.published, records)
	return s.err
}

type fixture struct {
	agg   *Aggregator
	clock *clockwork.FakeClock
}

func newFixture(live LiveSource, statics []StaticSource, fresh FreshSource, publisher AlertPublisher) fixture {
	fc := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		agg:   New(live, statics, fresh, publisher, cache.New(fc, 15*time.Minute, 100), logger, observability.NewMetricsForTesting()),
		clock: fc,
	}
}

func TestLatestLevelsMergesStaticAndDerivesAlert(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{
			StationName:        "Nagalagam Street",
			RiverName:          "Kelani Ganga",
			BasinName:          "Kelani Ganga (RB 01)",
			WaterLevel:         ptr(2.5),
			PreviousWaterLevel: ptr(2.0),
		},
	}}
	static := &stubStatic{name: "static", stations: []domain.StaticStation{
		{
			Name:       "N' Street", // alias of Nagalagam Street
			LatLng:     [2]float64{6.96, 79.88},
			Thresholds: domain.Thresholds{Alert: 1.5, Minor: 2.0, Major: 3.0},
		},
	}}

	f := newFixture(live, []StaticSource{static}, nil, nil)
	records := f.agg.LatestLevels(context.Background())

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Nagalagam Street", rec.StationName)
	assert.Equal(t, [2]float64{6.96, 79.88}, rec.LatLng)
	assert.Equal(t, domain.StatusMinor, rec.AlertStatus)
	require.NotNil(t, rec.FloodScore)
	assert.InDelta(t, 0.6667, *rec.FloodScore, 0.001)
	assert.Equal(t, domain.TrendRising, rec.RisingOrFalling)
}

func TestLatestLevelsUnmatchedStationFallsBackToRemarks(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Unknown Station", WaterLevel: ptr(1.0), Remarks: "Minor Flood"},
		{StationName: "Quiet Station", WaterLevel: ptr(0.4)},
	}}

	f := newFixture(live, nil, nil, nil)
	records := f.agg.LatestLevels(context.Background())

	require.Len(t, records, 2)
	assert.Equal(t, [2]float64{}, records[0].LatLng)
	assert.Equal(t, domain.StatusMinor, records[0].AlertStatus)
	assert.Nil(t, records[0].FloodScore)
	assert.Equal(t, domain.StatusNormal, records[1].AlertStatus)
}

func TestLatestLevelsFreshReadingWins(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", WaterLevel: ptr(4.0), Timestamp: "2026-08-28 06:00:00"},
		{StationName: "Glencourse", WaterLevel: ptr(2.0), Timestamp: "2026-08-28 06:00:00"},
	}}
	fresh := &stubFresh{readings: []domain.FreshReading{
		{StationName: "Hanwella", WaterLevel: ptr(4.7), Timestamp: "2026-08-28 06:45:00"},
		{StationName: "Glencourse", WaterLevel: ptr(2.3)}, // no timestamp, untrusted
	}}

	f := newFixture(live, nil, fresh, nil)
	records := f.agg.LatestLevels(context.Background())

	require.Len(t, records, 2)
	assert.Equal(t, 4.7, *records[0].WaterLevel)
	assert.Equal(t, "2026-08-28 06:45:00", records[0].Timestamp)
	assert.Equal(t, 2.0, *records[1].WaterLevel)
	assert.Equal(t, "2026-08-28 06:00:00", records[1].Timestamp)
}

func TestLatestLevelsStaticPriorityFirstWins(t *testing.T) {
	primary := &stubStatic{name: "primary", stations: []domain.StaticStation{
		{Name: "Hanwella", LatLng: [2]float64{6.9, 80.08}, Thresholds: domain.Thresholds{Alert: 7, Minor: 8, Major: 10}},
	}}
	secondary := &stubStatic{name: "secondary", stations: []domain.StaticStation{
		{Name: "Hanwella", LatLng: [2]float64{1, 1}, Thresholds: domain.Thresholds{Alert: 1, Minor: 2, Major: 3}},
	}}
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", WaterLevel: ptr(5.0)},
	}}

	f := newFixture(live, []StaticSource{primary, secondary}, nil, nil)
	records := f.agg.LatestLevels(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, [2]float64{6.9, 80.08}, records[0].LatLng)
	assert.Equal(t, 7.0, records[0].Alert)
	assert.Equal(t, domain.StatusNormal, records[0].AlertStatus)
}

func TestLatestLevelsLiveFailureReturnsEmptyAndIsNotCached(t *testing.T) {
	live := &stubLive{err: errors.New("upstream down")}

	f := newFixture(live, nil, nil, nil)
	assert.Empty(t, f.agg.LatestLevels(context.Background()))
	assert.Empty(t, f.agg.LatestLevels(context.Background()))

	// Each call retried upstream; the failure was never memoized.
	assert.Equal(t, 2, live.calls)
	assert.Error(t, f.agg.CheckReadiness(context.Background()))
}

func TestLatestLevelsStaticFailureDegradesGracefully(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", WaterLevel: ptr(1.0)},
	}}
	broken := &stubStatic{name: "broken", err: errors.New("listing failed")}
	working := &stubStatic{name: "working", stations: []domain.StaticStation{
		{Name: "Hanwella", LatLng: [2]float64{6.9, 80.08}, Thresholds: domain.Thresholds{Alert: 7, Minor: 8, Major: 10}},
	}}

	f := newFixture(live, []StaticSource{broken, working}, nil, nil)
	records := f.agg.LatestLevels(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, [2]float64{6.9, 80.08}, records[0].LatLng)
}

func TestLatestLevelsCachedUntilTTLExpires(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", WaterLevel: ptr(1.0)},
	}}

	f := newFixture(live, nil, nil, nil)
	ctx := context.Background()

	f.agg.LatestLevels(ctx)
	f.agg.LatestLevels(ctx)
	assert.Equal(t, 1, live.calls)
	assert.NoError(t, f.agg.CheckReadiness(ctx))

	f.clock.Advance(15 * time.Minute)
	f.agg.LatestLevels(ctx)
	assert.Equal(t, 2, live.calls)
}

func TestDerivedViewsFirstSeenOrder(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Nagalagam Street", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
		{StationName: "Hanwella", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
		{StationName: "Thawalama", RiverName: "Gin Ganga", BasinName: "Gin Ganga (RB 09)", WaterLevel: ptr(1.0)},
	}}

	f := newFixture(live, nil, nil, nil)
	ctx := context.Background()

	rivers := f.agg.Rivers(ctx)
	require.Len(t, rivers, 2)
	assert.Equal(t, "Kelani Ganga", rivers[0].Name)
	assert.Equal(t, "Gin Ganga", rivers[1].Name)

	basins := f.agg.Basins(ctx)
	require.Len(t, basins, 2)
	assert.Equal(t, "Kelani Ganga (RB 01)", basins[0].Name)
	assert.Equal(t, "01", basins[0].Code)
	assert.Equal(t, "09", basins[1].Code)

	stations := f.agg.Stations(ctx)
	require.Len(t, stations, 3)
	assert.Equal(t, "Nagalagam Street", stations[0].Name)
}

func TestByNameLookups(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
	}}

	f := newFixture(live, nil, nil, nil)
	ctx := context.Background()

	station, err := f.agg.StationByName(ctx, "hanwella")
	require.NoError(t, err)
	assert.Equal(t, "Hanwella", station.Name)

	_, err = f.agg.StationByName(ctx, "nowhere")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	river, err := f.agg.RiverByName(ctx, "KELANI GANGA")
	require.NoError(t, err)
	assert.Equal(t, "Kelani Ganga", river.Name)

	_, err = f.agg.RiverByName(ctx, "nile")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	basin, err := f.agg.BasinByName(ctx, "kelani ganga (rb 01)")
	require.NoError(t, err)
	assert.Equal(t, "01", basin.Code)

	_, err = f.agg.BasinByName(ctx, "amazon")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStationsByRiver(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Nagalagam Street", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
		{StationName: "Hanwella", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
		{StationName: "Thawalama", RiverName: "Gin Ganga", BasinName: "Gin Ganga (RB 09)", WaterLevel: ptr(1.0)},
	}}

	f := newFixture(live, nil, nil, nil)
	ctx := context.Background()

	stations, err := f.agg.StationsByRiver(ctx, "kelani ganga")
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Nagalagam Street", stations[0].Name)
	assert.Equal(t, "Hanwella", stations[1].Name)

	_, err = f.agg.StationsByRiver(ctx, "Nile")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRiversByBasin(t *testing.T) {
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Hanwella", RiverName: "Kelani Ganga", BasinName: "Kelani Ganga (RB 01)", WaterLevel: ptr(1.0)},
		{StationName: "Thawalama", RiverName: "Gin Ganga", BasinName: "Gin Ganga (RB 09)", WaterLevel: ptr(1.0)},
	}}

	f := newFixture(live, nil, nil, nil)
	ctx := context.Background()

	rivers, err := f.agg.RiversByBasin(ctx, "KELANI GANGA (RB 01)")
	require.NoError(t, err)
	require.Len(t, rivers, 1)
	assert.Equal(t, "Kelani Ganga", rivers[0].Name)

	_, err = f.agg.RiversByBasin(ctx, "Amazon")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func alertFixtureLive() *stubLive {
	return &stubLive{readings: []domain.LiveReading{
		{StationName: "Calm", WaterLevel: ptr(1.0), Thresholds: &domain.Thresholds{Alert: 5, Minor: 6, Major: 7}},
		{StationName: "Warned", WaterLevel: ptr(5.5), Thresholds: &domain.Thresholds{Alert: 5, Minor: 6, Major: 7}},
		{StationName: "Flooded", WaterLevel: ptr(7.5), Thresholds: &domain.Thresholds{Alert: 5, Minor: 6, Major: 7}},
		{StationName: "Silent", Thresholds: &domain.Thresholds{Alert: 5, Minor: 6, Major: 7}},
	}}
}

func TestActiveAlertsSortedBySeverity(t *testing.T) {
	f := newFixture(alertFixtureLive(), nil, nil, nil)
	alerts := f.agg.ActiveAlerts(context.Background())

	require.Len(t, alerts, 2)
	assert.Equal(t, "Flooded", alerts[0].StationName)
	assert.Equal(t, domain.StatusMajor, alerts[0].AlertStatus)
	assert.Equal(t, "Warned", alerts[1].StationName)
	assert.Equal(t, domain.StatusAlert, alerts[1].AlertStatus)
}

func TestAlertSummaryGroupsAndOmitsEmpty(t *testing.T) {
	f := newFixture(alertFixtureLive(), nil, nil, nil)
	summary := f.agg.AlertSummary(context.Background())

	require.Len(t, summary, 4)
	assert.Equal(t, domain.StatusMajor, summary[0].AlertStatus)
	assert.Equal(t, []string{"Flooded"}, summary[0].Stations)
	assert.Equal(t, domain.StatusAlert, summary[1].AlertStatus)
	assert.Equal(t, domain.StatusNormal, summary[2].AlertStatus)
	assert.Equal(t, domain.StatusNoData, summary[3].AlertStatus)
	assert.Equal(t, 1, summary[3].Count)
}

func TestPublisherReceivesOnlyActiveRecords(t *testing.T) {
	pub := &stubPublisher{}
	f := newFixture(alertFixtureLive(), nil, nil, pub)

	f.agg.LatestLevels(context.Background())

	require.Len(t, pub.published, 1)
	require.Len(t, pub.published[0], 2)
	assert.Equal(t, "Warned", pub.published[0][0].StationName)
	assert.Equal(t, "Flooded", pub.published[0][1].StationName)
}

func TestPublisherNotCalledWithoutActiveAlerts(t *testing.T) {
	pub := &stubPublisher{}
	live := &stubLive{readings: []domain.LiveReading{
		{StationName: "Calm", WaterLevel: ptr(1.0), Thresholds: &domain.Thresholds{Alert: 5, Minor: 6, Major: 7}},
	}}

	f := newFixture(live, nil, nil, pub)
	f.agg.LatestLevels(context.Background())
	assert.Empty(t, pub.published)
}

func TestPublisherFailureDoesNotPoisonSnapshot(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	live := alertFixtureLive()
	f := newFixture(live, nil, nil, pub)

	records := f.agg.LatestLevels(context.Background())
	require.Len(t, records, 4)

	// Snapshot stays cached even though publishing failed.
	f.agg.LatestLevels(context.Background())
	assert.Equal(t, 1, live.calls)
}

func TestEmptyLiveResultIsNotCached(t *testing.T) {
	live := &stubLive{}

	f := newFixture(live, nil, nil, nil)
	assert.Empty(t, f.agg.LatestLevels(context.Background()))
	assert.Empty(t, f.agg.LatestLevels(context.Background()))
	assert.Equal(t, 2, live.calls)
}
