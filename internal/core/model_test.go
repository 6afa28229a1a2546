package core_test

import (
	"errors"
	"testing"
	"time"

	"paper-trader/internal/core"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2025-03-10", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"  2025-03-10  ", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-10T14:30:00", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"10/03/2025", time.Time{}, true},
		{"next Tuesday", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := core.ParseDate(tt.input)
		if tt.wantErr {
			if !errors.Is(err, core.ErrUnparsableDate) {
				t.Errorf("ParseDate(%q): expected ErrUnparsableDate, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): unexpected error %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestEventKind_Valid(t *testing.T) {
	if !core.EventStockOrder.Valid() || !core.EventSale.Valid() {
		t.Error("canonical kinds must be valid")
	}
	if core.EventKind("refund").Valid() {
		t.Error("unknown kind accepted")
	}
	if core.EventKind("").Valid() {
		t.Error("empty kind accepted")
	}
}
