package repository

import (
	"testing"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

func TestCheckLockout(t *testing.T) {
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-time.Second)

	tests := []struct {
		name    string
		until   *time.Time
		wantErr error
	}{
		{name: "never locked", until: nil, wantErr: nil},
		{name: "window open", until: &future, wantErr: ErrAccountLocked},
		{name: "window expired", until: &past, wantErr: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := model.User{LockedUntil: tt.until}
			if err := CheckLockout(u, now); err != tt.wantErr {
				t.Errorf("CheckLockout() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
