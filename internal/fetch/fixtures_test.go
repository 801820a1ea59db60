package fetch

import (
	"testing"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/config"
	"github.com/dcwatch/dcwatch/pkg/httputil"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

func testLog() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

// testClient builds a client with retry disabled so failure tests do
// not sit through backoff sleeps.
func testClient(log *logger.Logger) *httputil.Client {
	return httputil.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"}, log).DisableRetry()
}

func mustDate(t *testing.T, s string) contracts.Date {
	t.Helper()
	d, err := contracts.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
