package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/market-sync/internal/model"
)

// GetTypeIDsPage fetches one page of the type IDs with a market in region.
func (c *Client) GetTypeIDsPage(ctx context.Context, region model.RegionID, page int) ([]model.TypeID, PageInfo, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	fullURL := c.esiURL(fmt.Sprintf("/markets/%d/types/", region), query)

	resp, err := c.doWithRetry(ctx, fullURL)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("get types region %d page %d: %w", region, page, err)
	}

	info, err := parsePageInfo(fullURL, resp.header)
	if err != nil {
		return nil, PageInfo{}, err
	}

	var ids []model.TypeID
	if err := json.Unmarshal(resp.body, &ids); err != nil {
		return nil, PageInfo{}, &ProtocolError{URL: fullURL, Reason: "decode type ids", Err: err}
	}

	return ids, info, nil
}

// GetOrdersPage fetches one page of all buy and sell orders in region.
func (c *Client) GetOrdersPage(ctx context.Context, region model.RegionID, page int) ([]model.Order, PageInfo, error) {
	query := url.Values{}
	query.Set("order_type", "all")
	query.Set("page", strconv.Itoa(page))
	fullURL := c.esiURL(fmt.Sprintf("/markets/%d/orders/", region), query)

	resp, err := c.doWithRetry(ctx, fullURL)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("get orders region %d page %d: %w", region, page, err)
	}

	info, err := parsePageInfo(fullURL, resp.header)
	if err != nil {
		return nil, PageInfo{}, err
	}

	var raw []APIOrder
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return nil, PageInfo{}, &ProtocolError{URL: fullURL, Reason: "decode orders", Err: err}
	}

	orders := make([]model.Order, len(raw))
	for i, o := range raw {
		orders[i] = o.ToModel(region)
	}
	return orders, info, nil
}

// GetHistory fetches the daily history of typeID in region.
//
// An empty series, or a 2xx/4xx body carrying an "error" field, yields FetchEmpty.
// Retryable failures are retried with the client's fixed delay; whatever still
// fails yields FetchFailed with the cause in Reason.
func (c *Client) GetHistory(ctx context.Context, region model.RegionID, typeID model.TypeID) model.HistoryResult {
	query := url.Values{}
	query.Set("type_id", strconv.FormatInt(int64(typeID), 10))
	fullURL := c.esiURL(fmt.Sprintf("/markets/%d/history/", region), query)

	resp, err := c.doWithRetry(ctx, fullURL)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable() && hasErrorField(apiErr.Body) {
			return model.HistoryResult{Status: model.FetchEmpty}
		}
		return model.HistoryResult{
			Status: model.FetchFailed,
			Reason: fmt.Errorf("get history region %d type %d: %w", region, typeID, err),
		}
	}

	return decodeHistory(fullURL, resp.body)
}

func decodeHistory(fullURL string, body []byte) model.HistoryResult {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if hasErrorField(trimmed) {
			return model.HistoryResult{Status: model.FetchEmpty}
		}
		return model.HistoryResult{
			Status: model.FetchFailed,
			Reason: &ProtocolError{URL: fullURL, Reason: "expected history array, got object"},
		}
	}

	var raw []APIHistoryPoint
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return model.HistoryResult{
			Status: model.FetchFailed,
			Reason: &ProtocolError{URL: fullURL, Reason: "decode history", Err: err},
		}
	}
	if len(raw) == 0 {
		return model.HistoryResult{Status: model.FetchEmpty}
	}

	points := make([]model.HistoryPoint, 0, len(raw))
	for _, p := range raw {
		hp, err := p.ToModel()
		if err != nil {
			return model.HistoryResult{
				Status: model.FetchFailed,
				Reason: &ProtocolError{URL: fullURL, Reason: "decode history", Err: err},
			}
		}
		points = append(points, hp)
	}

	return model.HistoryResult{Status: model.FetchData, Points: points}
}

// hasErrorField reports whether body is a JSON object with an "error" member.
func hasErrorField(body []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false
	}
	_, ok := obj["error"]
	return ok
}
