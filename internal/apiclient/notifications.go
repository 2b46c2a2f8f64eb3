package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Notification is one inbox entry.
type Notification struct {
	ID               int64      `json:"id"`
	NotificationType string     `json:"notification_type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	Priority         string     `json:"priority,omitempty"`
	IsRead           bool       `json:"is_read"`
	ActivityID       *int64     `json:"activity_id,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// ListNotifications returns the signed-in account's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	return doList[Notification](ctx, c, Request{Endpoint: "users.notifications", Method: http.MethodGet, Path: "/users/notifications/"})
}

// doList runs a list request. Both a bare array and a paginated envelope are
// accepted.
func doList[T any](ctx context.Context, c *Client, req Request) ([]T, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, req, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, unexpectedResponse(req.Endpoint, http.StatusOK, nil, errors.New("empty body"))
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, unexpectedResponse(req.Endpoint, http.StatusOK, raw, err)
	}
	return page.Results, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{
		Endpoint: "users.notificationRead",
		Method:   http.MethodPost,
		Path:     "/users/notifications/" + strconv.FormatInt(id, 10) + "/read/",
	}, nil)
}

// MarkAllNotificationsRead flags every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.Do(ctx, Request{
		Endpoint: "users.notificationsReadAll",
		Method:   http.MethodPost,
		Path:     "/users/notifications/read-all/",
	}, nil)
}
