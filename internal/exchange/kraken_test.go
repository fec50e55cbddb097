package exchange

import "testing"

func TestTimeframeMinutes(t *testing.T) {
	tests := []struct {
		tf      string
		minutes int
		wantErr bool
	}{
		{"1m", 1, false},
		{"5m", 5, false},
		{"15m", 15, false},
		{"1h", 60, false},
		{"4h", 240, false},
		{"1d", 1440, false},
		{"", 0, true},
		{"m", 0, true},
		{"5x", 0, true},
		{"-5m", 0, true},
	}
	for _, tt := range tests {
		got, err := timeframeMinutes(tt.tf)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.tf)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.tf, err)
		}
		if got != tt.minutes {
			t.Errorf("%q: got %d minutes, want %d", tt.tf, got, tt.minutes)
		}
	}
}

func TestPairCode(t *testing.T) {
	if got := pairCode("XBT/EUR"); got != "XBTEUR" {
		t.Errorf("pairCode = %q, want XBTEUR", got)
	}
}
