// Package api provides the HTTP client for the EVE Swagger Interface (ESI) market
// endpoints and for the static universe document that lists trade regions.
//
// ESI endpoints used:
//   - GET /markets/{region_id}/types/?page=N   (X-Pages header)
//   - GET /markets/{region_id}/history/?type_id=T
//   - GET /markets/{region_id}/orders/?order_type=all&page=N   (X-Pages header)
//
// Every ESI response may carry X-Esi-Error-Limit-Remain, the remaining error
// budget for the current window. Requests are paced by a token bucket and the
// client backs off as a whole after a 420 or 429.
package api
