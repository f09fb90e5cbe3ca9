package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/market-sync/internal/model"
)

// Response headers.
const (
	HeaderPages            = "X-Pages"
	HeaderErrorLimitRemain = "X-Esi-Error-Limit-Remain"
)

// PageInfo is the pagination metadata of one listing page.
type PageInfo struct {
	Pages int // Total page count declared by X-Pages

	// ErrorLimitRemain is the remaining ESI error budget, or -1 when the
	// header was absent or unreadable.
	ErrorLimitRemain int
}

// parsePageInfo reads X-Pages and X-Esi-Error-Limit-Remain.
func parsePageInfo(fullURL string, h http.Header) (PageInfo, error) {
	raw := h.Get(HeaderPages)
	if raw == "" {
		return PageInfo{}, &ProtocolError{URL: fullURL, Reason: "missing " + HeaderPages + " header"}
	}
	pages, err := strconv.Atoi(raw)
	if err != nil || pages < 1 {
		return PageInfo{}, &ProtocolError{URL: fullURL, Reason: fmt.Sprintf("invalid %s header %q", HeaderPages, raw)}
	}

	info := PageInfo{Pages: pages, ErrorLimitRemain: -1}
	if v := h.Get(HeaderErrorLimitRemain); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			info.ErrorLimitRemain = n
		}
	}
	return info, nil
}

// APIHistoryPoint is one entry of GET /markets/{region_id}/history/.
type APIHistoryPoint struct {
	Date       string          `json:"date"`
	Volume     int64           `json:"volume"`
	Average    decimal.Decimal `json:"average"`
	Highest    decimal.Decimal `json:"highest"`
	Lowest     decimal.Decimal `json:"lowest"`
	OrderCount int64           `json:"order_count"`
}

// ToModel converts to the domain type.
func (p APIHistoryPoint) ToModel() (model.HistoryPoint, error) {
	date, err := time.Parse(model.DateLayout, p.Date)
	if err != nil {
		return model.HistoryPoint{}, fmt.Errorf("parse history date %q: %w", p.Date, err)
	}
	return model.HistoryPoint{
		Date:       date,
		Volume:     p.Volume,
		Average:    p.Average,
		Highest:    p.Highest,
		Lowest:     p.Lowest,
		OrderCount: p.OrderCount,
	}, nil
}

// APIOrder is one entry of GET /markets/{region_id}/orders/.
type APIOrder struct {
	OrderID      int64           `json:"order_id"`
	TypeID       int64           `json:"type_id"`
	LocationID   int64           `json:"location_id"`
	SystemID     int64           `json:"system_id"`
	IsBuyOrder   bool            `json:"is_buy_order"`
	Price        decimal.Decimal `json:"price"`
	VolumeRemain int64           `json:"volume_remain"`
	VolumeTotal  int64           `json:"volume_total"`
	Issued       time.Time       `json:"issued"`
}

// ToModel converts to the domain type. The listing does not carry the region,
// so the caller supplies it.
func (o APIOrder) ToModel(region model.RegionID) model.Order {
	return model.Order{
		OrderID:      o.OrderID,
		RegionID:     region,
		SystemID:     o.SystemID,
		StationID:    o.LocationID,
		TypeID:       model.TypeID(o.TypeID),
		IsBuyOrder:   o.IsBuyOrder,
		Price:        o.Price,
		VolumeRemain: o.VolumeRemain,
		VolumeTotal:  o.VolumeTotal,
		Issued:       o.Issued,
	}
}
