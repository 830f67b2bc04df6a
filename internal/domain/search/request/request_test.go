package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/cardex/internal/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestNew_APIDefaults(t *testing.T) {
	r, err := New("  travel  ", nil, nil, APIDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "travel" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != 10 || r.Threshold() != 0.7 {
		t.Errorf("defaults = %d/%v, want 10/0.7", r.Limit(), r.Threshold())
	}
}

func TestNew_BrowseDefaults(t *testing.T) {
	r, err := New("travel", nil, nil, BrowseDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 20 || r.Threshold() != 0.6 {
		t.Errorf("defaults = %d/%v, want 20/0.6", r.Limit(), r.Threshold())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("q", intPtr(3), floatPtr(0), APIDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 3 || r.Threshold() != 0 {
		t.Errorf("got %d/%v", r.Limit(), r.Threshold())
	}
}

func TestNew_LargeLimitKept(t *testing.T) {
	r, err := New("q", intPtr(5000), nil, APIDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != 5000 {
		t.Errorf("Limit() = %d, want 5000", r.Limit())
	}
}

func TestNew_LongQueryAccepted(t *testing.T) {
	long := strings.Repeat("cashback on groceries ", 200)
	r, err := New(long, nil, nil, APIDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != strings.TrimSpace(long) {
		t.Error("query must be kept whole, only trimmed")
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := New(q, nil, nil, APIDefaults()); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("New(%q): expected ErrInvalidQuery, got %v", q, err)
		}
	}
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		limit     *int
		threshold *float64
	}{
		{"zero limit", "q", intPtr(0), nil},
		{"negative limit", "q", intPtr(-2), nil},
		{"threshold above 1", "q", nil, floatPtr(1.2)},
		{"negative threshold", "q", nil, floatPtr(-0.1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, tt.limit, tt.threshold, APIDefaults())
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}
