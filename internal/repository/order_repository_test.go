package repository

import (
	"testing"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

func TestVisibleTo(t *testing.T) {
	order := model.Order{ID: 1, UserID: 10}

	tests := []struct {
		name    string
		userID  uint64
		role    string
		wantErr error
	}{
		{name: "owner", userID: 10, role: model.RoleCustomer, wantErr: nil},
		{name: "admin sees all", userID: 99, role: model.RoleAdmin, wantErr: nil},
		{name: "manager sees all", userID: 99, role: model.RoleManager, wantErr: nil},
		{name: "other customer", userID: 11, role: model.RoleCustomer, wantErr: ErrForbidden},
		{name: "no implied hierarchy", userID: 99, role: model.RoleSuperAdmin, wantErr: ErrForbidden},
		{name: "empty role", userID: 11, role: "", wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VisibleTo(order, tt.userID, tt.role); err != tt.wantErr {
				t.Errorf("VisibleTo() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
