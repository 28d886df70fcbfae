package model

import (
	"testing"
	"time"
)

func TestUserLocked(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	in5 := now.Add(5 * time.Minute)
	past := now.Add(-time.Second)

	tests := []struct {
		name  string
		until *time.Time
		want  bool
	}{
		{name: "never locked", until: nil, want: false},
		{name: "inside window", until: &in5, want: true},
		{name: "window expired", until: &past, want: false},
		{name: "boundary instant", until: &now, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{LockedUntil: tt.until}
			if got := u.Locked(now); got != tt.want {
				t.Errorf("Locked() = %v, want %v", got, tt.want)
			}
		})
	}
}
