package database

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/market-sync/internal/config"
)

// BuildConnString builds a PostgreSQL URL from config. The application name
// and connect timeout are passed as query parameters so pgxpool applies them
// to every connection it opens.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	if cfg.AppName != "" {
		q.Set("application_name", cfg.AppName)
	}
	if cfg.ConnectTimeout > 0 {
		// libpq takes whole seconds
		secs := max(1, int(cfg.ConnectTimeout/time.Second))
		q.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
