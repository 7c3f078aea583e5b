package cups

import (
	"context"
	"strings"
)

// searchLimit caps driver search results; beyond this the caller should
// refine the keyword instead of scrolling.
const searchLimit = 100

// DriverRecord is one installable driver from the system driver database.
// URI is the first whitespace-delimited token of the lpinfo line; Description
// is the remainder.
type DriverRecord struct {
	URI         string `json:"uri"`
	Description string `json:"description"`
}

// SearchDrivers fetches the driver database fresh and filters it by keyword.
// The listing is re-fetched on every call, so there is no staleness to
// manage. An empty keyword returns the full set; results are capped at
// searchLimit and keep the database's relative order.
func (c *Client) SearchDrivers(ctx context.Context, keyword string) ([]DriverRecord, error) {
	result := c.run(ctx, c.cfg.DriverLoadTimeout(), "lpinfo", "-m")
	if !result.ExitedZero {
		return nil, Classify("driver listing", result)
	}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	records := make([]DriverRecord, 0, searchLimit)
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(line), keyword) {
			continue
		}
		records = append(records, parseDriverLine(line))
		if len(records) == searchLimit {
			break
		}
	}
	return records, nil
}

func parseDriverLine(line string) DriverRecord {
	fields := strings.SplitN(line, " ", 2)
	record := DriverRecord{URI: fields[0]}
	if len(fields) > 1 {
		record.Description = strings.TrimSpace(fields[1])
	}
	return record
}
