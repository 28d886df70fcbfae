package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
)

// NotificationRepo provides access to the `notifications` table. The table
// is indexed on (user_id, created_at) and (user_id, is_read); every query
// here is scoped by user_id so one user can never observe another's rows.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

const notificationColumns = "id,user_id,type,title,message,payload,order_id,is_read,created_at"

// Insert appends a notification row and returns the stored record with its
// generated id and timestamp. Rows are immutable afterwards except for
// is_read.
func (r *NotificationRepo) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, type, title, message, payload, order_id) VALUES (?,?,?,?,?,?)",
		n.UserID, n.Type, n.Title, n.Message, n.Payload, n.OrderID)
	if err != nil {
		return model.Notification{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Notification{}, err
	}
	n.ID = uint64(id)
	// Query back the row so CreatedAt reflects the database clock, which
	// is the clock all watermark comparisons run against.
	var stored model.Notification
	var orderID sql.NullInt64
	err = r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=?", n.ID).Scan(
		&stored.ID, &stored.UserID, &stored.Type, &stored.Title, &stored.Message,
		&stored.Payload, &orderID, &stored.IsRead, &stored.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	if orderID.Valid {
		v := uint64(orderID.Int64)
		stored.OrderID = &v
	}
	return stored, nil
}

// ListSince returns a user's notifications strictly newer than the given
// watermark, oldest first with id as the tie-break. A nil watermark means
// "beginning of time": the newest `limit` rows are selected and re-sorted
// ascending so the first poll is bounded but still ends on the newest
// event. The optional type set and order id narrow the result.
func (r *NotificationRepo) ListSince(ctx context.Context, userID uint64, since *time.Time, types []string, orderID *uint64, limit int) ([]model.Notification, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString("SELECT " + notificationColumns + " FROM notifications WHERE user_id=?")
	args = append(args, userID)
	if since != nil {
		sb.WriteString(" AND created_at > ?")
		args = append(args, since.UTC())
	}
	if len(types) > 0 {
		sb.WriteString(" AND type IN (?" + strings.Repeat(",?", len(types)-1) + ")")
		for _, t := range types {
			args = append(args, t)
		}
	}
	if orderID != nil {
		sb.WriteString(" AND order_id=?")
		args = append(args, *orderID)
	}
	if since == nil {
		// Bounded first poll: newest rows first, flipped below.
		sb.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
		args = append(args, limit)
	} else {
		// Watermark polls return everything qualifying: truncating here
		// could drop rows that share the boundary timestamp, and the
		// client's next watermark would silently skip them.
		sb.WriteString(" ORDER BY created_at ASC, id ASC")
		if limit > 0 {
			sb.WriteString(" LIMIT ?")
			args = append(args, limit)
		}
	}

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var (
			n   model.Notification
			oid sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.Payload, &oid, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if oid.Valid {
			v := uint64(oid.Int64)
			n.OrderID = &v
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if since == nil {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// MarkRead flips is_read for the given ids, restricted to rows owned by
// userID. Ids belonging to other users are silently ignored so the call
// leaks nothing about foreign notifications. Returns the number of rows
// actually updated.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := "UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0 AND id IN (?" +
		strings.Repeat(",?", len(ids)-1) + ")"
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0", userID).Scan(&n)
	return n, err
}

// HasRecentActivity reports whether the user has order or payment movement
// inside the lookback window. The polling handler uses this to suggest a
// faster client interval while something is in flight.
func (r *NotificationRepo) HasRecentActivity(ctx context.Context, userID uint64, lookback time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-lookback)
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id=? AND created_at > ? AND type IN (?,?)`,
		userID, cutoff, model.NotificationOrderStatus, model.NotificationPaymentStatus).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NewestEventTime returns the creation time of the user's most recent
// notification, or nil when they have none. Used for the idle heuristic.
func (r *NotificationRepo) NewestEventTime(ctx context.Context, userID uint64) (*time.Time, error) {
	var t time.Time
	err := r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM notifications WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT 1",
		userID).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
