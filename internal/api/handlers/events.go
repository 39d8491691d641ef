package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/eventradar/server/internal/api/middleware"
	"github.com/eventradar/server/internal/api/problem"
	"github.com/eventradar/server/internal/domain/events"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

// eventResponse is the wire form of an event. Location is WKT text,
// POINT(lon lat), matching what callers submit.
type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Datetime    time.Time `json:"datetime"`
	CategoryID  int64     `json:"category_id"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventResponse(event *events.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location.String(),
		Datetime:    event.Datetime,
		CategoryID:  event.CategoryID,
		CreatedBy:   event.CreatedBy,
		CreatedAt:   event.CreatedAt,
	}
}

func toEventResponses(items []events.Event) []eventResponse {
	out := make([]eventResponse, 0, len(items))
	for i := range items {
		out = append(out, toEventResponse(&items[i]))
	}
	return out
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	items, err := h.Service.List(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(items))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	item, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env,
				problem.WithDetail("Event not found"))
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(item))
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Datetime    time.Time `json:"datetime"`
	CategoryID  int64     `json:"category_id"`
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	// Attribution comes from the verified token, never the request body.
	var createdBy *string
	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		createdBy = &principal.UserID
	}

	item, err := h.Service.Create(r.Context(), events.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Datetime:    req.Datetime,
		CategoryID:  req.CategoryID,
		CreatedBy:   createdBy,
	})
	if err != nil {
		var verr events.ValidationError
		if errors.As(err, &verr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", verr, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(item))
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Datetime    *time.Time `json:"datetime"`
	CategoryID  *int64     `json:"category_id"`
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), pathParam(r, "id"), events.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Datetime:    req.Datetime,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env,
				problem.WithDetail("Event not found"))
			return
		}
		var verr events.ValidationError
		if errors.As(err, &verr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", verr, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(item))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	item, err := h.Service.Delete(r.Context(), pathParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env,
				problem.WithDetail("Event not found"))
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(item))
}

// Search returns events within radius of (latitude, longitude). The radius
// is in degrees, the native unit of the geometry column. An empty result is
// a 200 with an empty list, not a 404.
func (h *EventsHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	query := r.URL.Query()
	lat, err := parseFloatParam(query.Get("latitude"), "latitude")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	lon, err := parseFloatParam(query.Get("longitude"), "longitude")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	radius, err := parseFloatParam(query.Get("radius"), "radius")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	items, err := h.Service.SearchRadius(r.Context(), lat, lon, radius)
	if err != nil {
		var verr events.ValidationError
		if errors.As(err, &verr) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", verr, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(items))
}

func parseFloatParam(raw, field string) (float64, error) {
	if raw == "" {
		return 0, events.ValidationError{Field: field, Message: "is required"}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, events.ValidationError{Field: field, Message: "must be a number"}
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
