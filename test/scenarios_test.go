package test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawnchairsociety/opendelve/internal/config"
	"github.com/lawnchairsociety/opendelve/internal/server"
)

func TestRunAllTestsAgainstServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Archive.Enabled = false
	cfg.Connections.MaxPerIP = 10

	ts := httptest.NewServer(server.NewServer(cfg).Handler())
	defer ts.Close()

	address := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	for _, r := range RunAllTests(address, 42) {
		if !r.Passed {
			t.Errorf("%s: %s", r.Name, r.Message)
		}
	}
}
