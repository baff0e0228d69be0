package aggregate

import (
	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// buildStaticIndex flattens the static source results, given in priority
// order, into a lookup by normalized station name. Precedence is
// whole-record: the first source to claim a name wins outright, fields from
// competing sources are never mixed.
func buildStaticIndex(sets [][]domain.StaticStation) map[string]domain.StaticStation {
	idx := make(map[string]domain.StaticStation)
	for _, set := range sets {
		for _, s := range set {
			key := domain.NormalizeStationName(s.Name)
			if key == "" {
				continue
			}
			if _, ok := idx[key]; !ok {
				idx[key] = s
			}
		}
	}
	return idx
}

// buildFreshIndex keys fresh readings by raw station name, dropping entries
// without a reading. A fresh value is trusted only when it carries its own
// timestamp; a stalled feed returning readings without times must not
// silently displace the primary artifact's data.
func buildFreshIndex(readings []domain.FreshReading) map[string]domain.FreshReading {
	idx := make(map[string]domain.FreshReading, len(readings))
	for _, r := range readings {
		if r.WaterLevel == nil || r.Timestamp == "" {
			continue
		}
		if _, ok := idx[r.StationName]; !ok {
			idx[r.StationName] = r
		}
	}
	return idx
}

// mergeReadings combines the live feed with static reference data and the
// optional fresh feed into the unified per-station records. Every live
// reading produces a record; a missing static match leaves zero coordinates
// and thresholds, it never drops the station.
func mergeReadings(live []domain.LiveReading, statics map[string]domain.StaticStation, fresh map[string]domain.FreshReading) []domain.StationRecord {
	records := make([]domain.StationRecord, 0, len(live))
	for _, r := range live {
		rec := domain.StationRecord{
			StationName:        r.StationName,
			RiverName:          r.RiverName,
			BasinName:          r.BasinName,
			WaterLevel:         r.WaterLevel,
			PreviousWaterLevel: r.PreviousWaterLevel,
			RainfallMM:         r.RainfallMM,
			Remarks:            r.Remarks,
			Timestamp:          r.Timestamp,
		}
		if r.Thresholds != nil {
			rec.Thresholds = *r.Thresholds
		}

		if s, ok := statics[domain.NormalizeStationName(r.StationName)]; ok {
			rec.LatLng = s.LatLng
			if s.Thresholds.Alert > 0 {
				rec.Thresholds = s.Thresholds
			}
		}

		// Freshest wins: the secondary feed's reading and its own
		// timestamp displace the primary values.
		if f, ok := fresh[r.StationName]; ok {
			rec.WaterLevel = f.WaterLevel
			rec.Timestamp = f.Timestamp
		}

		rec.RisingOrFalling = trend(r)

		if rec.Thresholds.Alert > 0 {
			rec.AlertStatus = domain.CalculateAlertStatus(rec.WaterLevel, rec.Thresholds)
		} else {
			rec.AlertStatus = domain.StatusFromRemarks(rec.Remarks, rec.WaterLevel)
		}
		rec.FloodScore = domain.CalculateFloodScore(rec.WaterLevel, rec.Thresholds.Alert, rec.Thresholds.Major)

		records = append(records, rec)
	}
	return records
}

// trend prefers the feed's explicit value; otherwise it is derived from the
// primary feed's current and previous readings, never from fresh-feed data.
func trend(r domain.LiveReading) string {
	if r.Trend != "" {
		return r.Trend
	}
	if r.WaterLevel == nil || r.PreviousWaterLevel == nil {
		return ""
	}
	switch {
	case *r.WaterLevel > *r.PreviousWaterLevel:
		return domain.TrendRising
	case *r.WaterLevel < *r.PreviousWaterLevel:
		return domain.TrendFalling
	}
	return ""
}

// stationViews derives the station-metadata list from merged records,
// first-seen order, de-duplicated by display name.
func stationViews(records []domain.StationRecord) []domain.GaugingStation {
	seen := make(map[string]struct{}, len(records))
	stations := make([]domain.GaugingStation, 0, len(records))
	for _, rec := range records {
		if rec.StationName == "" {
			continue
		}
		if _, ok := seen[rec.StationName]; ok {
			continue
		}
		seen[rec.StationName] = struct{}{}
		stations = append(stations, domain.GaugingStation{
			Name:       rec.StationName,
			RiverName:  rec.RiverName,
			BasinName:  rec.BasinName,
			LatLng:     rec.LatLng,
			Thresholds: rec.Thresholds,
		})
	}
	return stations
}

// extractRivers collects the distinct rivers in encounter order. Rivers
// have no identity outside the snapshot that produced them.
func extractRivers(records []domain.StationRecord) []domain.River {
	seen := make(map[string]struct{})
	rivers := make([]domain.River, 0)
	for _, rec := range records {
		if rec.RiverName == "" {
			continue
		}
		if _, ok := seen[rec.RiverName]; ok {
			continue
		}
		seen[rec.RiverName] = struct{}{}
		rivers = append(rivers, domain.River{
			Name:      rec.RiverName,
			BasinName: rec.BasinName,
		})
	}
	return rivers
}

// extractBasins collects the distinct basins in encounter order.
func extractBasins(records []domain.StationRecord) []domain.Basin {
	seen := make(map[string]struct{})
	basins := make([]domain.Basin, 0)
	for _, rec := range records {
		if rec.BasinName == "" {
			continue
		}
		if _, ok := seen[rec.BasinName]; ok {
			continue
		}
		seen[rec.BasinName] = struct{}{}
		basins = append(basins, domain.Basin{
			Name: rec.BasinName,
			Code: domain.BasinCode(rec.BasinName),
		})
	}
	return basins
}
