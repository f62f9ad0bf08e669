package service

import (
	"encoding/json"
	"strings"
)

// SecondsPerDay is the canonical bucket width for daily rollups.
const SecondsPerDay = 86400

// DefaultCurrency is used when event metadata carries no parseable
// currency code.
const DefaultCurrency = "ETH"

// DayBucket maps a unix timestamp to the start of its day bucket.
// Pure function: the same timestamp always yields the same bucket, which
// is what keeps DailyStat assignment deterministic across replays.
func DayBucket(ts int64) int64 {
	return ts - (ts % SecondsPerDay)
}

// ClassifyCurrency extracts a normalized currency code from the raw event
// metadata. Metadata is JSON-ish; anything unparseable or missing falls
// back to the given default (empty default means DefaultCurrency).
func ClassifyCurrency(metadata, fallback string) string {
	if fallback == "" {
		fallback = DefaultCurrency
	}

	var fields struct {
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal([]byte(metadata), &fields); err != nil {
		return fallback
	}
	code := normalizeSymbol(fields.Currency)
	if code == "" {
		return fallback
	}
	return code
}

// normalizeSymbol uppercases the code and strips exchange-style suffixes
// such as "usdc.e".
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(strings.Split(symbol, ".")[0]))
}
