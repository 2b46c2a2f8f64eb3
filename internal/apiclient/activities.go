package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/shared"
)

// Activity is a volunteer activity as listed by the activity service.
type Activity struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Category            any        `json:"category,omitempty"`
	Location            string     `json:"location"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	MaxParticipants     int        `json:"max_participants"`
	CurrentParticipants int        `json:"current_participants,omitempty"`
	Status              string     `json:"status"`
	ApprovalStatus      string     `json:"approval_status,omitempty"`
	OrganizerID         int64      `json:"organizer_id,omitempty"`
	OrganizerName       string     `json:"organizer_name,omitempty"`
}

// ActivityPage is the paginated list envelope.
type ActivityPage struct {
	Count    int        `json:"count"`
	Next     string     `json:"next,omitempty"`
	Previous string     `json:"previous,omitempty"`
	Results  []Activity `json:"results"`
}

// ActivityFilter narrows ListActivities.
type ActivityFilter struct {
	Search         string
	Status         string
	ApprovalStatus string
	Page           int
}

func (f ActivityFilter) values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.ApprovalStatus != "" {
		q.Set("approval_status", f.ApprovalStatus)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Participation is the answer to a join request.
type Participation struct {
	ID       int64  `json:"id"`
	Activity int64  `json:"activity"`
	Status   string `json:"status"`
}

// Review is an administrator decision on a submitted activity.
type Review struct {
	ApprovalStatus  string `json:"approval_status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	AdminNotes      string `json:"admin_notes,omitempty"`
}

// ListActivities fetches one page of activities.
func (c *Client) ListActivities(ctx context.Context, filter ActivityFilter) (*ActivityPage, error) {
	var out ActivityPage
	err := c.Do(ctx, Request{
		Endpoint: "activities.list",
		Method:   http.MethodGet,
		Path:     "/activities/activities/",
		Query:    filter.values(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActivity fetches one activity.
func (c *Client) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	var out Activity
	err := c.Do(ctx, Request{
		Endpoint: "activities.detail",
		Method:   http.MethodGet,
		Path:     "/activities/activities/" + strconv.FormatInt(id, 10) + "/",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinActivity applies the signed-in volunteer to an activity.
func (c *Client) JoinActivity(ctx context.Context, id int64, message string) (*Participation, error) {
	var out Participation
	err := c.Do(ctx, Request{
		Endpoint: "activities.join",
		Method:   http.MethodPost,
		Path:     "/activities/participants/",
		Body: map[string]any{
			"activity":            id,
			"application_message": message,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReviewActivity records an approval or rejection from the console.
func (c *Client) ReviewActivity(ctx context.Context, id int64, review Review) (*Activity, error) {
	var out Activity
	err := c.Do(ctx, Request{
		Endpoint: "activities.review",
		Method:   http.MethodPatch,
		Path:     "/activities/activities/" + strconv.FormatInt(id, 10) + "/approve/",
		Body:     review,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Category is an activity category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewActivity is what an organizer submits; the backend queues it for review.
type NewActivity struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description"`
	Category        int64      `json:"category" validate:"required,gt=0"`
	Location        string     `json:"location" validate:"required,max=200"`
	StartDate       *time.Time `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date" validate:"required"`
	MaxParticipants int        `json:"max_participants" validate:"required,gt=0"`
}

// Validate checks a submission before it reaches the backend.
func (a NewActivity) Validate(v *auth.Validator) error {
	if err := v.Struct(a); err != nil {
		return err
	}
	if a.EndDate.Before(*a.StartDate) {
		return shared.ValidationError("invalid input", map[string][]string{"end_date": {"must not be before start_date"}})
	}
	return nil
}

// Participant is one application to an activity as the organizer sees it.
type Participant struct {
	ID                 int64  `json:"id"`
	Activity           int64  `json:"activity"`
	ActivityTitle      string `json:"activity_title,omitempty"`
	UserID             int64  `json:"user_id,omitempty"`
	UserName           string `json:"user_name,omitempty"`
	UserEmail          string `json:"user_email,omitempty"`
	Status             string `json:"status"`
	ApplicationMessage string `json:"application_message,omitempty"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
}

// ParticipantDecision is an organizer verdict on one application.
type ParticipantDecision struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	OrganizerNotes  string `json:"organizer_notes,omitempty"`
}

// Validate requires approved or rejected, and a reason for a rejection.
func (d ParticipantDecision) Validate() error {
	if d.Status != "approved" && d.Status != "rejected" {
		return shared.ValidationError("invalid input", map[string][]string{"status": {"must be approved or rejected"}})
	}
	if d.Status == "rejected" && strings.TrimSpace(d.RejectionReason) == "" {
		return shared.ValidationError("invalid input", map[string][]string{"rejection_reason": {"is required"}})
	}
	return nil
}

// CreateActivity submits a new activity for the signed-in organizer.
func (c *Client) CreateActivity(ctx context.Context, activity NewActivity) (*Activity, error) {
	var out Activity
	err := c.Do(ctx, Request{
		Endpoint: "activities.create",
		Method:   http.MethodPost,
		Path:     "/activities/activities/",
		Body:     activity,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories fetches every activity category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return doList[Category](ctx, c, Request{
		Endpoint: "activities.categories",
		Method:   http.MethodGet,
		Path:     "/activities/categories/",
	})
}

// ListParticipants fetches the applications to one activity.
func (c *Client) ListParticipants(ctx context.Context, activityID int64) ([]Participant, error) {
	return doList[Participant](ctx, c, Request{
		Endpoint: "activities.participants",
		Method:   http.MethodGet,
		Path:     "/activities/participants/",
		Query:    url.Values{"activity": {strconv.FormatInt(activityID, 10)}},
	})
}

// DecideParticipant approves or rejects one application.
func (c *Client) DecideParticipant(ctx context.Context, id int64, decision ParticipantDecision) (*Participant, error) {
	var out Participant
	err := c.Do(ctx, Request{
		Endpoint: "activities.participantApproval",
		Method:   http.MethodPatch,
		Path:     "/activities/participants/" + strconv.FormatInt(id, 10) + "/approve/",
		Body:     decision,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
