package exporter

import (
	"fmt"

	"brokersum/internal/summary"
	"brokersum/internal/tickdata"
)

// OutputPrefix returns the artifact prefix for one (pivot, trade type,
// business day) triple, ending in a slash.
func OutputPrefix(pivot summary.Pivot, t tickdata.TradeType, day string) string {
	dir := fmt.Sprintf("%s_%s", pivot, t)
	return fmt.Sprintf("%s/%s_%s/", dir, dir, day)
}

// OutputKey returns the artifact key for a single pivot entity.
func OutputKey(pivot summary.Pivot, t tickdata.TradeType, day, entity string) string {
	return OutputPrefix(pivot, t, day) + entity + ".csv"
}
