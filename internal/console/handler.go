// Package console serves the portal and administrator frontends: a JSON API that
// fronts the backend with a server-held session, and the guarded page routes.
package console

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/volunteerhub/portal/internal/apiclient"
	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/guard"
	"github.com/volunteerhub/portal/internal/i18n"
	"github.com/volunteerhub/portal/internal/platform/httpx"
	"github.com/volunteerhub/portal/internal/session"
	"github.com/volunteerhub/portal/internal/shared"
)

// Handler serves one frontend bound to one session namespace.
type Handler struct {
	logger    *slog.Logger
	store     *session.Store
	service   *auth.Service
	client    *apiclient.Client
	table     *guard.Table
	validator *auth.Validator
	staticDir string
}

// HandlerParams groups the dependencies of a Handler.
type HandlerParams struct {
	Logger    *slog.Logger
	Store     *session.Store
	Service   *auth.Service
	Client    *apiclient.Client
	Table     *guard.Table
	StaticDir string
}

// NewHandler constructs a Handler instance.
func NewHandler(params HandlerParams) *Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger.With(slog.String("frontend", params.Table.Name)),
		store:     params.Store,
		service:   params.Service,
		client:    params.Client,
		table:     params.Table,
		validator: auth.NewValidator(),
		staticDir: params.StaticDir,
	}
}

func (h *Handler) admin() bool {
	return h.store.Namespace() == session.NamespaceAdmin
}

// MountAPI registers the JSON endpoints. State-changing calls must come from
// the frontend's own origin.
func (h *Handler) MountAPI(r chi.Router) {
	r.Use(httpx.SameOrigin)
	r.Get("/session", h.getSession)
	r.Post("/session/login", h.login)
	r.Post("/session/logout", h.logout)
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)
	r.Get("/activities", h.listActivities)
	r.Get("/activities/{id}", h.getActivity)
	r.Get("/notifications", h.listNotifications)
	r.Post("/notifications/read-all", h.readAllNotifications)
	r.Post("/notifications/{id}/read", h.readNotification)
	if h.admin() {
		r.Post("/activities/{id}/review", h.reviewActivity)
		return
	}
	r.Post("/session/register", h.register)
	r.Get("/accounts/username", h.checkUsername)
	r.Post("/activities/{id}/join", h.joinActivity)
	r.Get("/categories", h.listCategories)
	r.Post("/activities", h.createActivity)
	r.Get("/activities/{id}/participants", h.listParticipants)
	r.Post("/participants/{id}/approve", h.decideParticipant)
}

type sessionView struct {
	LoggedIn        bool            `json:"logged_in"`
	Namespace       string          `json:"namespace"`
	Principal       *auth.Principal `json:"principal,omitempty"`
	RoleLabel       string          `json:"role_label,omitempty"`
	Home            string          `json:"home,omitempty"`
	AccessExpiresAt *time.Time      `json:"access_expires_at,omitempty"`
}

func (h *Handler) viewOf(state auth.SessionState) sessionView {
	view := sessionView{Namespace: string(h.store.Namespace())}
	if !state.LoggedIn {
		return view
	}
	view.LoggedIn = true
	view.Principal = state.Principal
	view.RoleLabel = h.roleLabel(state.Principal.Role)
	view.Home = h.table.Prefix + h.table.HomePath(state.Principal)
	if exp, ok := state.Tokens.AccessExpiry(); ok {
		view.AccessExpiresAt = &exp
	}
	return view
}

func (h *Handler) roleLabel(role auth.Role) string {
	t := h.client.Translator()
	switch role {
	case auth.RoleAdmin:
		return t.T(i18n.KeyRoleAdmin)
	case auth.RoleVolunteer:
		return t.T(i18n.KeyRoleVolunteer)
	case auth.RoleOrganizer:
		return t.T(i18n.KeyRoleOrganizer)
	default:
		return t.T(i18n.KeyRoleUnknown)
	}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.viewOf(h.store.Restore(r.Context())))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	role := auth.RoleAdmin
	if !h.admin() {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			h.fail(w, r, auth.PortalRole(auth.RoleUnknown))
			return
		}
		role = parsed
	}
	if _, err := h.service.Login(r.Context(), role, auth.Credentials{Username: req.Username, Password: req.Password}); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.viewOf(h.store.Restore(r.Context())))
}

type registerRequest struct {
	auth.Registration
	Role string `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		role = auth.RoleUnknown
	}
	user, signedIn, err := h.service.Register(r.Context(), role, req.Registration)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !signedIn {
		httpx.JSON(w, http.StatusCreated, map[string]any{"logged_in": false, "principal": user})
		return
	}
	httpx.JSON(w, http.StatusCreated, h.viewOf(h.store.Restore(r.Context())))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	answer, err := h.service.CheckUsername(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key := i18n.KeyUsernameTaken
	if answer.Available {
		key = i18n.KeyUsernameFree
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"username":  answer.Username,
		"available": answer.Available,
		"message":   h.client.Translator().T(key, answer.Username),
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.client.GetProfile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var changes auth.ProfileUpdate
	if !h.decode(w, r, &changes) {
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), changes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := apiclient.ActivityFilter{
		Search:         q.Get("search"),
		Status:         q.Get("status"),
		ApprovalStatus: q.Get("approval_status"),
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			h.fail(w, r, shared.ValidationError("invalid input", map[string][]string{"page": {"must be a positive number"}}))
			return
		}
		filter.Page = page
	}
	page, err := h.client.ListActivities(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	activity, err := h.client.GetActivity(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activity)
}

type joinRequest struct {
	Message string `json:"message"`
}

func (h *Handler) joinActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	if !h.requireRole(w, r, auth.RoleVolunteer, "only volunteers can join activities") {
		return
	}
	participation, err := h.client.JoinActivity(r.Context(), id, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, participation)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.client.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if categories == nil {
		categories = []apiclient.Category{}
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	var req apiclient.NewActivity
	if !h.decode(w, r, &req) {
		return
	}
	if !h.requireRole(w, r, auth.RoleOrganizer, "only organizations can publish activities") {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if err := req.Validate(h.validator); err != nil {
		h.fail(w, r, err)
		return
	}
	activity, err := h.client.CreateActivity(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, activity)
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if !h.requireRole(w, r, auth.RoleOrganizer, "only organizations can see applicants") {
		return
	}
	participants, err := h.client.ListParticipants(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if participants == nil {
		participants = []apiclient.Participant{}
	}
	httpx.JSON(w, http.StatusOK, participants)
}

func (h *Handler) decideParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var decision apiclient.ParticipantDecision
	if !h.decode(w, r, &decision) {
		return
	}
	if !h.requireRole(w, r, auth.RoleOrganizer, "only organizations can decide on applicants") {
		return
	}
	if err := decision.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	participant, err := h.client.DecideParticipant(r.Context(), id, decision)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, participant)
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, role auth.Role, message string) bool {
	if h.store.Restore(r.Context()).HasRole(role) {
		return true
	}
	h.fail(w, r, shared.RoleMismatchError(message))
	return false
}

var reviewStatuses = map[string]bool{"approved": true, "rejected": true}

func (h *Handler) reviewActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var review apiclient.Review
	if !h.decode(w, r, &review) {
		return
	}
	if !reviewStatuses[review.ApprovalStatus] {
		h.fail(w, r, shared.ValidationError("invalid input", map[string][]string{"approval_status": {"must be approved or rejected"}}))
		return
	}
	if review.ApprovalStatus == "rejected" && strings.TrimSpace(review.RejectionReason) == "" {
		h.fail(w, r, shared.ValidationError("invalid input", map[string][]string{"rejection_reason": {"is required"}}))
		return
	}
	activity, err := h.client.ReviewActivity(r.Context(), id, review)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, activity)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.client.ListNotifications(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []apiclient.Notification{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) readNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.client.MarkNotificationRead(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) readAllNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.client.MarkAllNotificationsRead(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	err := httpx.DecodeJSON(r, target)
	switch {
	case errors.Is(err, httpx.ErrUnsupportedMediaType):
		h.logger.Info("request rejected", slog.String("path", r.URL.Path), slog.String("content_type", r.Header.Get("Content-Type")))
		httpx.Problem(w, http.StatusUnsupportedMediaType, http.StatusText(http.StatusUnsupportedMediaType), "request body must be application/json")
		return false
	case err != nil:
		h.fail(w, r, shared.ValidationError("invalid request body", nil))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, shared.ValidationError("invalid input", map[string][]string{"id": {"must be a positive number"}}))
		return 0, false
	}
	return id, true
}

// fail writes err as a problem. Console role mismatches and expired sessions get
// the localized explanation instead of the raw message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	t := h.client.Translator()
	if apiErr, ok := shared.AsError(err); ok {
		switch {
		case errors.Is(err, shared.ErrRoleMismatch) && h.admin():
			copied := *apiErr
			copied.Message = t.T(i18n.KeyAdminOnlyLogin)
			err = &copied
		case errors.Is(err, shared.ErrAuthRejected) && !isLoginRoute(r):
			copied := *apiErr
			copied.Message = t.T(i18n.KeySessionExpired)
			err = &copied
		}
	}
	status := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		h.logger.Info("request rejected", slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func isLoginRoute(r *http.Request) bool {
	rctx := chi.RouteContext(r.Context())
	return rctx != nil && strings.HasSuffix(rctx.RoutePattern(), "/session/login")
}
