package model

import "testing"

func TestValidOrderTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderShipped, false},
		{OrderPending, OrderDelivered, false},
		{OrderPaid, OrderShipped, true},
		{OrderPaid, OrderCancelled, true},
		{OrderPaid, OrderDelivered, false},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderShipped, false},
		{OrderCancelled, OrderPending, false},
		{"", OrderPaid, false},
		{OrderPending, "UNKNOWN", false},
	}
	for _, tt := range tests {
		if got := ValidOrderTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidOrderTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidNotificationType(t *testing.T) {
	for _, typ := range []string{NotificationOrderStatus, NotificationPaymentStatus, NotificationGeneric, NotificationSystemAlert} {
		if !ValidNotificationType(typ) {
			t.Errorf("ValidNotificationType(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"", "ORDER_STATUS", "order-status", "alert"} {
		if ValidNotificationType(typ) {
			t.Errorf("ValidNotificationType(%q) = true, want false", typ)
		}
	}
}
