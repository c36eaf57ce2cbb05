package pagination

import (
	"net/url"
	"testing"
)

func TestFromQueryDefaultsAndClamps(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantPage  int
		wantLimit int
	}{
		{"empty", "", 1, DefaultLimit},
		{"explicit", "page=3&limit=50", 3, 50},
		{"zero page", "page=0&limit=10", 1, 10},
		{"negative", "page=-2&limit=-5", 1, DefaultLimit},
		{"over max", "page=1&limit=5000", 1, MaxLimit},
		{"garbage", "page=abc&limit=xyz", 1, DefaultLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := url.ParseQuery(tc.raw)
			if err != nil {
				t.Fatalf("parsing query: %v", err)
			}
			got := FromQuery(query)
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("got %+v, want page=%d limit=%d", got, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 4, Limit: 25}
	if got := p.Offset(); got != 75 {
		t.Fatalf("Offset() = %d, want 75", got)
	}
}
