package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rickgao/market-sync/internal/model"
)

// universeEntry is the part of a universe document entry the job reads.
type universeEntry struct {
	Region json.Number `json:"region"`
}

// GetRegionIDs fetches the universe document and returns the distinct region
// IDs in document order.
func (c *Client) GetRegionIDs(ctx context.Context) ([]model.RegionID, error) {
	if c.universeURL == "" {
		return nil, fmt.Errorf("get universe: no universe url configured")
	}

	resp, err := c.doWithRetry(ctx, c.universeURL)
	if err != nil {
		return nil, fmt.Errorf("get universe: %w", err)
	}

	regions, err := parseUniverse(resp.body)
	if err != nil {
		return nil, &ProtocolError{URL: c.universeURL, Reason: "decode universe", Err: err}
	}
	return regions, nil
}

// parseUniverse streams the top-level object so document order survives.
// Entries without a region are skipped; the first occurrence of a region wins.
func parseUniverse(body []byte) ([]model.RegionID, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	seen := make(map[model.RegionID]struct{})
	var regions []model.RegionID

	for dec.More() {
		// Entry key (location name or ID); unused.
		if _, err := dec.Token(); err != nil {
			return nil, err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		var entry universeEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Region == "" {
			continue
		}
		id, err := entry.Region.Int64()
		if err != nil {
			continue
		}

		region := model.RegionID(id)
		if _, dup := seen[region]; dup {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}

	return regions, nil
}
