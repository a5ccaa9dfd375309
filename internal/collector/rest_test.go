package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k3y" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			if r.URL.Query().Get("symbol") == "NONE" {
				w.Write([]byte(`[]`))
				return
			}
			w.Write([]byte(`[{"timestamp":1758893400,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
				{"timestamp":1758807000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":20}]`))
		case "/api/v1/profile":
			if r.URL.Query().Get("symbol") == "NONE" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(`{"name":"Acme Corp","sector":""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "k3y", "")
	ctx := context.Background()

	bars, err := f.FetchDailyBars(ctx, "ACME", 30)
	if err != nil {
		t.Fatalf("FetchDailyBars: %v", err)
	}
	if len(bars) != 2 || bars[0].Close != 1.5 {
		t.Fatalf("expected sorted bars, got %+v", bars)
	}

	if _, err := f.FetchDailyBars(ctx, "NONE", 30); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	info, err := f.FetchIssuerInfo(ctx, "ACME")
	if err != nil {
		t.Fatalf("FetchIssuerInfo: %v", err)
	}
	if info.Name != "Acme Corp" || info.Sector != "N/A" {
		t.Errorf("info = %+v", info)
	}

	if _, err := f.FetchIssuerInfo(ctx, "NONE"); !errors.Is(err, ErrInfoUnavailable) {
		t.Errorf("expected ErrInfoUnavailable, got %v", err)
	}
}
