// Package aggregate is the data aggregation and normalization core: it
// pulls the configured upstream sources through the shared cache, merges
// them into unified station records, derives rivers and basins, and hands
// newly detected flood alerts to the optional publisher.
//
// Every read operation degrades to an empty collection on upstream
// failure; nothing here is fatal to the process. Recovery is driven by the
// cache TTL: a failed fetch is retried by the next inbound request, never
// by the core itself.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/floodwatch-lk/flood-data-api/internal/cache"
	"github.com/floodwatch-lk/flood-data-api/internal/domain"
	"github.com/floodwatch-lk/flood-data-api/internal/observability"
)

// LiveSource provides the primary water level bulletin.
type LiveSource interface {
	Name() string
	LatestReadings(ctx context.Context) ([]domain.LiveReading, error)
}

// StaticSource provides coordinates and thresholds keyed by station name.
type StaticSource interface {
	Name() string
	Stations(ctx context.Context) ([]domain.StaticStation, error)
}

// FreshSource provides the independently cadenced secondary readings feed.
type FreshSource interface {
	Name() string
	LatestReadings(ctx context.Context) ([]domain.FreshReading, error)
}

// AlertPublisher receives the active-alert records of a freshly computed
// snapshot.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, records []domain.StationRecord) error
}

// Cache operation keys. Keys name logical operations, not parameters, so
// by-name lookups re-scan the cached collection instead of being cached
// individually.
const (
	keyLatestLevels    = "latest_water_levels"
	keyGaugingStations = "gauging_stations"
	keyRivers          = "rivers"
	keyRiverBasins     = "river_basins"
	staticKeyPrefix    = "static_stations:"
)

// Aggregator merges the configured sources into station records and serves
// the derived resource views. Safe for concurrent use; the injected cache
// is the only shared mutable state.
type Aggregator struct {
	live      LiveSource
	statics   []StaticSource // priority order, first match wins
	fresh     FreshSource    // nil when the active generation has no fresh feed
	publisher AlertPublisher // nil disables alert publishing
	cache     *cache.Cache
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates an Aggregator. fresh and publisher may be nil.
func New(live LiveSource, statics []StaticSource, fresh FreshSource, publisher AlertPublisher, c *cache.Cache, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		live:      live,
		statics:   statics,
		fresh:     fresh,
		publisher: publisher,
		cache:     c,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one non-empty snapshot has been
// produced.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no upstream snapshot produced yet")
	}
	return nil
}

// LatestLevels returns the current merged snapshot, computing it on cache
// miss. Empty snapshots are not cached so the next request retries
// upstream.
func (a *Aggregator) LatestLevels(ctx context.Context) []domain.StationRecord {
	if v, ok := a.cacheGet(keyLatestLevels); ok {
		return v.([]domain.StationRecord)
	}

	start := time.Now()

	live, err := a.live.LatestReadings(ctx)
	if err != nil {
		a.logger.Warn("live feed unavailable", "source", a.live.Name(), "error", err)
		return nil
	}
	if len(live) == 0 {
		return nil
	}

	statics := buildStaticIndex(a.staticSets(ctx))
	fresh := buildFreshIndex(a.freshReadings(ctx))

	records := mergeReadings(live, statics, fresh)
	if len(records) == 0 {
		return records
	}

	a.cache.Set(keyLatestLevels, records)
	a.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	a.updateStatusGauge(records)
	a.ready.Store(true)
	a.publishAlerts(ctx, records)

	return records
}

// Stations returns the station-metadata views of the current snapshot.
func (a *Aggregator) Stations(ctx context.Context) []domain.GaugingStation {
	if v, ok := a.cacheGet(keyGaugingStations); ok {
		return v.([]domain.GaugingStation)
	}
	stations := stationViews(a.LatestLevels(ctx))
	if len(stations) > 0 {
		a.cache.Set(keyGaugingStations, stations)
	}
	return stations
}

// StationByName finds a station by display name, case-insensitively.
// Returns domain.ErrNotFound on a miss.
func (a *Aggregator) StationByName(ctx context.Context, name string) (domain.GaugingStation, error) {
	for _, s := range a.Stations(ctx) {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return domain.GaugingStation{}, domain.ErrNotFound
}

// StationsByRiver returns the stations on the named river, matched
// case-insensitively. Returns domain.ErrNotFound when the river itself is
// unknown; a known river always yields at least the station that derived it.
func (a *Aggregator) StationsByRiver(ctx context.Context, name string) ([]domain.GaugingStation, error) {
	if _, err := a.RiverByName(ctx, name); err != nil {
		return nil, err
	}
	var stations []domain.GaugingStation
	for _, s := range a.Stations(ctx) {
		if strings.EqualFold(s.RiverName, name) {
			stations = append(stations, s)
		}
	}
	return stations, nil
}

// Rivers returns the distinct rivers of the current snapshot in encounter
// order.
func (a *Aggregator) Rivers(ctx context.Context) []domain.River {
	if v, ok := a.cacheGet(keyRivers); ok {
		return v.([]domain.River)
	}
	rivers := extractRivers(a.LatestLevels(ctx))
	if len(rivers) > 0 {
		a.cache.Set(keyRivers, rivers)
	}
	return rivers
}

// RiverByName finds a river by name, case-insensitively.
func (a *Aggregator) RiverByName(ctx context.Context, name string) (domain.River, error) {
	for _, r := range a.Rivers(ctx) {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return domain.River{}, domain.ErrNotFound
}

// Basins returns the distinct river basins of the current snapshot in
// encounter order.
func (a *Aggregator) Basins(ctx context.Context) []domain.Basin {
	if v, ok := a.cacheGet(keyRiverBasins); ok {
		return v.([]domain.Basin)
	}
	basins := extractBasins(a.LatestLevels(ctx))
	if len(basins) > 0 {
		a.cache.Set(keyRiverBasins, basins)
	}
	return basins
}

// BasinByName finds a basin by name, case-insensitively.
func (a *Aggregator) BasinByName(ctx context.Context, name string) (domain.Basin, error) {
	for _, b := range a.Basins(ctx) {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return domain.Basin{}, domain.ErrNotFound
}

// RiversByBasin returns the rivers in the named basin, matched
// case-insensitively. Returns domain.ErrNotFound when the basin itself is
// unknown.
func (a *Aggregator) RiversByBasin(ctx context.Context, name string) ([]domain.River, error) {
	if _, err := a.BasinByName(ctx, name); err != nil {
		return nil, err
	}
	var rivers []domain.River
	for _, r := range a.Rivers(ctx) {
		if strings.EqualFold(r.BasinName, name) {
			rivers = append(rivers, r)
		}
	}
	return rivers, nil
}

// ActiveAlerts returns the stations currently in ALERT or worse, most
// severe first.
func (a *Aggregator) ActiveAlerts(ctx context.Context) []domain.StationRecord {
	var alerts []domain.StationRecord
	for _, rec := range a.LatestLevels(ctx) {
		if rec.AlertStatus.Active() {
			alerts = append(alerts, rec)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].AlertStatus.SeverityRank() < alerts[j].AlertStatus.SeverityRank()
	})
	return alerts
}

// summaryOrder fixes the grouping order of AlertSummary output.
var summaryOrder = []domain.AlertStatus{
	domain.StatusMajor,
	domain.StatusMinor,
	domain.StatusAlert,
	domain.StatusNormal,
	domain.StatusNoData,
}

// AlertSummary groups the snapshot's stations by alert status, omitting
// empty groups.
func (a *Aggregator) AlertSummary(ctx context.Context) []domain.AlertSummary {
	byStatus := make(map[domain.AlertStatus][]string)
	for _, rec := range a.LatestLevels(ctx) {
		byStatus[rec.AlertStatus] = append(byStatus[rec.AlertStatus], rec.StationName)
	}

	summaries := make([]domain.AlertSummary, 0, len(byStatus))
	for _, status := range summaryOrder {
		stations := byStatus[status]
		if len(stations) == 0 {
			continue
		}
		summaries = append(summaries, domain.AlertSummary{
			AlertStatus: status,
			Count:       len(stations),
			Stations:    stations,
		})
	}
	return summaries
}

func (a *Aggregator) staticSets(ctx context.Context) [][]domain.StaticStation {
	sets := make([][]domain.StaticStation, 0, len(a.statics))
	for _, src := range a.statics {
		key := staticKeyPrefix + src.Name()
		if v, ok := a.cacheGet(key); ok {
			sets = append(sets, v.([]domain.StaticStation))
			continue
		}
		stations, err := src.Stations(ctx)
		if err != nil {
			// A missing static source degrades to default coordinates
			// and thresholds, it never blocks the snapshot.
			a.logger.Warn("static source unavailable", "source", src.Name(), "error", err)
			continue
		}
		if len(stations) > 0 {
			a.cache.Set(key, stations)
		}
		sets = append(sets, stations)
	}
	return sets
}

func (a *Aggregator) freshReadings(ctx context.Context) []domain.FreshReading {
	if a.fresh == nil {
		return nil
	}
	readings, err := a.fresh.LatestReadings(ctx)
	if err != nil {
		a.logger.Warn("fresh feed unavailable", "source", a.fresh.Name(), "error", err)
		return nil
	}
	return readings
}

func (a *Aggregator) publishAlerts(ctx context.Context, records []domain.StationRecord) {
	if a.publisher == nil {
		return
	}
	var active []domain.StationRecord
	for _, rec := range records {
		if rec.AlertStatus.Active() {
			active = append(active, rec)
		}
	}
	if len(active) == 0 {
		return
	}
	if err := a.publisher.PublishAlerts(ctx, active); err != nil {
		a.logger.Warn("alert publish failed", "count", len(active), "error", err)
		return
	}
	a.metrics.AlertsPublished.Add(float64(len(active)))
}

func (a *Aggregator) updateStatusGauge(records []domain.StationRecord) {
	counts := make(map[domain.AlertStatus]int)
	for _, rec := range records {
		counts[rec.AlertStatus]++
	}
	for _, status := range summaryOrder {
		a.metrics.StationsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func (a *Aggregator) cacheGet(key string) (any, bool) {
	v, ok := a.cache.Get(key)
	if ok {
		a.metrics.CacheLookups.WithLabelValues(key, "hit").Inc()
	} else {
		a.metrics.CacheLookups.WithLabelValues(key, "miss").Inc()
	}
	return v, ok
}
