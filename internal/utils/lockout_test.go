package utils

import (
	"testing"
	"time"
)

func TestNextLockout(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	tests := []struct {
		name       string
		failed     int
		threshold  int
		wantFailed int
		wantLocked bool
	}{
		{name: "first failure", failed: 0, threshold: 5, wantFailed: 1, wantLocked: false},
		{name: "below threshold", failed: 3, threshold: 5, wantFailed: 4, wantLocked: false},
		{name: "crossing threshold locks", failed: 4, threshold: 5, wantFailed: 5, wantLocked: true},
		{name: "beyond threshold stays locked", failed: 7, threshold: 5, wantFailed: 8, wantLocked: true},
		{name: "threshold disabled", failed: 100, threshold: 0, wantFailed: 101, wantLocked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed, until := NextLockout(tt.failed, tt.threshold, window, now)
			if failed != tt.wantFailed {
				t.Errorf("failed = %d, want %d", failed, tt.wantFailed)
			}
			if (until != nil) != tt.wantLocked {
				t.Fatalf("locked = %v, want %v", until != nil, tt.wantLocked)
			}
			if until != nil && !until.Equal(now.Add(window)) {
				t.Errorf("locked until %v, want %v", *until, now.Add(window))
			}
		})
	}
}
