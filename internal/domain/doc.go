// Package domain models Sri Lanka Disaster Management Centre (DMC) river
// gauging data: stations, water level readings, flood thresholds, and the
// derived alert classification.
//
// # Data Source
//
// The DMC publishes river water level bulletins as periodically regenerated
// JSON/TSV artifacts in public source-hosting repositories. Three upstream
// layouts exist across pipeline generations:
//
//	parsed-v1  a dated JSON array ("YYYYMMDD.HHMMSS.json") under a versioned
//	           data-parsed path, discovered via a directory listing; flood
//	           thresholds travel inside each record.
//	dlist-v2   a {"d_list": [...]} envelope discovered the same way, joined
//	           against a separate static stations file for coordinates and
//	           thresholds.
//	dlist-v3   the v2 envelope located through a TSV document index, enriched
//	           by an independently hosted fresh-readings feed and a static
//	           thresholds feed whose fields carry an "_m" (metres) suffix.
//
// # Station Naming
//
// The live bulletins and the static reference data disagree on the spelling
// of several station names ("Nagalagam Street" vs "N' Street", "Rathnapura"
// vs "Ratnapura", ...). Cross-feed joins therefore go through
// [NormalizeStationName]: a hand-curated alias table followed by lowercase
// folding and removal of whitespace, apostrophes, and parentheses. The
// normalized form is a join key only; API responses always show the live
// feed's spelling.
//
// # Alert Classification
//
// Each station carries three monotonically increasing thresholds in metres:
// alert level, minor flood level, and major flood level. A reading is
// classified by comparing against them highest-severity first, so a level at
// or above the major threshold is MAJOR regardless of the lower thresholds.
// Unset (non-positive) thresholds are treated as +Inf and can never be
// crossed. Stations with no usable thresholds fall back to a remarks
// heuristic; stations with no reading at all are NO_DATA.
//
// The flood score is a continuous severity metric normalized between the
// alert threshold (0.0) and the major flood threshold (1.0). It is
// deliberately unclamped: water above the major flood level scores above 1,
// water below the alert level scores negative. It is undefined (nil) when
// the reading is absent or the thresholds are degenerate (major <= alert).
package domain
