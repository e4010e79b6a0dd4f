package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
	"pricing-service/internal/service"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type storeRequest struct {
	Name       string            `json:"name"`
	Domain     string            `json:"domain"`
	TagName    string            `json:"html_tag_name"`
	Attributes map[string]string `json:"html_tag_attributes"`
}

type storeResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Domain     string            `json:"domain"`
	TagName    string            `json:"html_tag_name"`
	Attributes map[string]string `json:"html_tag_attributes"`
}

func newStoreResponse(s *models.Store) storeResponse {
	return storeResponse{ID: s.ID, Name: s.Name, Domain: s.Domain, TagName: s.Rule.TagName, Attributes: s.Rule.Attributes}
}

type createAlertRequest struct {
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	PriceLimit decimal.Decimal `json:"price_limit"`
}

type updateAlertRequest struct {
	PriceLimit decimal.Decimal `json:"price_limit"`
}

type itemResponse struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Price     *string    `json:"price"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

type alertResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	PriceLimit string        `json:"price_limit"`
	Item       *itemResponse `json:"item"`
	FetchError string        `json:"fetch_error,omitempty"`
}

func newAlertResponse(d service.AlertDetail) alertResponse {
	resp := alertResponse{
		ID:         d.Alert.ID,
		Name:       d.Alert.Name,
		PriceLimit: models.FormatPrice(d.Alert.PriceFloor),
	}
	if d.Item != nil {
		item := &itemResponse{ID: d.Item.ID, URL: d.Item.URL}
		if d.Item.Price != nil {
			p := models.FormatPrice(*d.Item.Price)
			item.Price = &p
		}
		if !d.Item.CheckedAt.IsZero() {
			t := d.Item.CheckedAt
			item.CheckedAt = &t
		}
		resp.Item = item
	}
	if d.FetchErr != nil {
		resp.FetchError = d.FetchErr.Error()
	}
	return resp
}

// Handler reúne os endpoints JSON do serviço
type Handler struct {
	users  *service.Users
	stores *service.Stores
	alerts *service.Alerts
	items  *service.Items
	secure bool
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(h.users.MaxAge().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	session, err := h.users.CreateSession(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, status, userResponse{ID: user.ID, Email: user.Email})
}

// Register cria a conta e já abre a sessão.
// POST /users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusCreated)
}

// Login confere as credenciais e abre a sessão.
// POST /users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

// Logout encerra a sessão atual.
// POST /users/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.users.Logout(r.Context(), cookie.Value); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// ListStores GET /stores
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]storeResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, newStoreResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetStore GET /stores/{id}
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.stores.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoreResponse(store))
}

func (req storeRequest) input() service.StoreInput {
	return service.StoreInput{Name: req.Name, Domain: req.Domain, TagName: req.TagName, Attributes: req.Attributes}
}

// CreateStore POST /stores
func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store, err := h.stores.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStoreResponse(store))
}

// UpdateStore PUT /stores/{id}
func (h *Handler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	store, err := h.stores.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoreResponse(store))
}

// DeleteStore DELETE /stores/{id}
func (h *Handler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.stores.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAlerts lista os alertas do usuário logado.
// GET /alerts
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	details, err := h.alerts.ListForUser(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]alertResponse, 0, len(details))
	for _, d := range details {
		out = append(out, newAlertResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetAlert GET /alerts/{id}
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	alert, err := h.alerts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if alert.UserID != session.UserID {
		writeServiceError(w, r, service.ErrForbidden)
		return
	}
	item, err := h.items.Get(r.Context(), alert.ItemID)
	if err != nil && !errors.Is(err, service.ErrItemNotFound) {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAlertResponse(service.AlertDetail{Alert: alert, Item: item}))
}

// CreateAlert resolve a loja pela URL e cria o alerta.
// POST /alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session := SessionFromContext(r.Context())
	detail, err := h.alerts.Create(r.Context(), session.UserID, req.Name, req.URL, req.PriceLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAlertResponse(*detail))
}

// UpdateAlert muda o piso do alerta.
// PUT /alerts/{id}
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var req updateAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session := SessionFromContext(r.Context())
	alert, err := h.alerts.UpdateFloor(r.Context(), session.UserID, chi.URLParam(r, "id"), req.PriceLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	item, err := h.items.Get(r.Context(), alert.ItemID)
	if err != nil && !errors.Is(err, service.ErrItemNotFound) {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAlertResponse(service.AlertDetail{Alert: alert, Item: item}))
}

// DeleteAlert DELETE /alerts/{id}
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if err := h.alerts.Delete(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
