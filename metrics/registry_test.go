package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUnitRegistryRecords(t *testing.T) {
	r := NewRegistry()
	r.RecordProduce("events", 3, 5*time.Millisecond, nil)
	r.RecordProduce("events", 0, time.Millisecond, errors.New("boom"))
	r.RecordSend("events", 2, time.Millisecond, nil)
	r.RecordPartitionLookup("events", nil)
	r.SetSystemInfo("test", "now")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"kaffe_producer_produce_total",
		"kaffe_producer_batch_size",
		"kaffe_client_send_total",
		"kaffe_client_partition_lookup_total",
		"kaffe_system_info",
		"kaffe_start_time_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatal(name)
		}
	}
}

// Two registries must not collide: no global prometheus state.
func TestUnitRegistryIsolated(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.RecordProduce("events", 1, time.Millisecond, nil)
	b.RecordProduce("events", 1, time.Millisecond, nil)
}
