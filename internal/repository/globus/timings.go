package globus

import (
	"strconv"
	"strings"
)

// ParseServerTiming parses a Globus Search server-timing header into a
// metric name to milliseconds map. Globus reports seconds; the legacy
// dialect (Solr QTime) is milliseconds. Entries look like
// "total=1.23;desc" separated by commas; malformed entries are skipped.
func ParseServerTiming(header string) map[string]int {
	timings := make(map[string]int)
	if header == "" {
		return timings
	}
	for _, pair := range strings.Split(header, ",") {
		measurement, _, _ := strings.Cut(pair, ";")
		name, value, ok := strings.Cut(strings.TrimSpace(measurement), "=")
		if !ok {
			continue
		}
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		timings[name] = int(seconds * 1000)
	}
	return timings
}
