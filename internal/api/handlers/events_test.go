package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventradar/server/internal/api/middleware"
	"github.com/eventradar/server/internal/domain/events"
	"github.com/eventradar/server/internal/geo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memEventRepo struct {
	mu    sync.Mutex
	items map[string]*events.Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{items: make(map[string]*events.Event)}
}

func (m *memEventRepo) List(_ context.Context) ([]events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, nil
}

func (m *memEventRepo) GetByID(_ context.Context, id string) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &events.Event{
		ID:          params.ID,
		Title:       params.Title,
		Description: params.Description,
		Location:    params.Location,
		Datetime:    params.Datetime,
		CategoryID:  params.CategoryID,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	m.items[params.ID] = item
	copied := *item
	return &copied, nil
}

func (m *memEventRepo) Update(_ context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if params.Title != nil {
		item.Title = *params.Title
	}
	if params.Description != nil {
		item.Description = *params.Description
	}
	if params.Location != nil {
		item.Location = *params.Location
	}
	if params.Datetime != nil {
		item.Datetime = *params.Datetime
	}
	if params.CategoryID != nil {
		item.CategoryID = *params.CategoryID
	}
	if params.CreatedBy != nil {
		item.CreatedBy = params.CreatedBy
	}
	copied := *item
	return &copied, nil
}

func (m *memEventRepo) Delete(_ context.Context, id string) (*events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	delete(m.items, id)
	return item, nil
}

func (m *memEventRepo) SearchWithin(_ context.Context, center geo.Point, radius float64) ([]events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, 0)
	for _, item := range m.items {
		dx := item.Location.Lon - center.Lon
		dy := item.Location.Lat - center.Lat
		if math.Sqrt(dx*dx+dy*dy) <= radius {
			out = append(out, *item)
		}
	}
	return out, nil
}

func newEventsHandler(t *testing.T) (*EventsHandler, *memEventRepo) {
	t.Helper()
	repo := newMemEventRepo()
	service := events.NewService(repo, zerolog.Nop())
	return NewEventsHandler(service, "test"), repo
}

func createTestEvent(t *testing.T, handler *EventsHandler, title string, lon, lat float64) eventResponse {
	t.Helper()
	body := `{"title":"` + title + `","description":"d","location":"POINT(` +
		formatCoord(lon) + " " + formatCoord(lat) + `)","datetime":"2026-09-01T19:00:00Z","category_id":1}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	handler.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestEventsHandlerWithoutService(t *testing.T) {
	handler := NewEventsHandler(nil, "test")

	// Every operation must answer 500 instead of panicking.
	calls := []func(http.ResponseWriter, *http.Request){
		handler.List, handler.Get, handler.Create, handler.Update, handler.Delete, handler.Search,
	}
	for _, call := range calls {
		rec := httptest.NewRecorder()
		require.NotPanics(t, func() {
			call(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", strings.NewReader("{}")))
		})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	}
}

func TestEventCreateReturnsRecord(t *testing.T) {
	handler, _ := newEventsHandler(t)

	created := createTestEvent(t, handler, "Jazz Night", 30.06, -1.95)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Jazz Night", created.Title)
	require.Equal(t, "POINT(30.06 -1.95)", created.Location)
	require.Nil(t, created.CreatedBy)
}

func TestEventCreateAttributesPrincipal(t *testing.T) {
	handler, repo := newEventsHandler(t)

	body := `{"title":"Jazz Night","description":"d","location":"POINT(30.06 -1.95)","datetime":"2026-09-01T19:00:00Z","category_id":1}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	ctx := middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: "user-42", Email: "a@example.com"})
	handler.Create(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusCreated, rec.Code)

	var created eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.CreatedBy)
	require.Equal(t, "user-42", *created.CreatedBy)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CreatedBy)
	require.Equal(t, "user-42", *stored.CreatedBy)
}

func TestEventCreateIgnoresBodyAttribution(t *testing.T) {
	handler, _ := newEventsHandler(t)

	body := `{"title":"Jazz Night","description":"d","location":"POINT(30.06 -1.95)","datetime":"2026-09-01T19:00:00Z","category_id":1,"created_by":"attacker"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Nil(t, created.CreatedBy)
}

func TestEventCreateValidation(t *testing.T) {
	handler, _ := newEventsHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"d","location":"POINT(1 2)","datetime":"2026-09-01T19:00:00Z"}`},
		{"missing datetime", `{"title":"T","description":"d","location":"POINT(1 2)"}`},
		{"bad location", `{"title":"T","location":"1,2","datetime":"2026-09-01T19:00:00Z"}`},
		{"out of range", `{"title":"T","location":"POINT(200 95)","datetime":"2026-09-01T19:00:00Z"}`},
		{"malformed json", `{"title":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(tc.body))
			handler.Create(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func getWithID(handler http.HandlerFunc, method, target, id string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, reader)
	req.SetPathValue("id", id)
	handler(rec, req)
	return rec
}

func TestEventGet(t *testing.T) {
	handler, _ := newEventsHandler(t)
	created := createTestEvent(t, handler, "Jazz Night", 30.06, -1.95)

	rec := getWithID(handler.Get, http.MethodGet, "/api/v1/events/"+created.ID, created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, created.ID, got.ID)
}

func TestEventGetMissingAndMalformed(t *testing.T) {
	handler, _ := newEventsHandler(t)

	// Unknown but well-formed ULID.
	rec := getWithID(handler.Get, http.MethodGet, "/api/v1/events/01HQZX3Y4K6F7G8H9J0K1M2N3P", "01HQZX3Y4K6F7G8H9J0K1M2N3P", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id resolves to the same 404, not a 500.
	rec = getWithID(handler.Get, http.MethodGet, "/api/v1/events/not-a-ulid", "not-a-ulid", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventList(t *testing.T) {
	handler, _ := newEventsHandler(t)
	createTestEvent(t, handler, "One", 1, 1)
	createTestEvent(t, handler, "Two", 2, 2)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
}

func TestEventUpdatePartial(t *testing.T) {
	handler, _ := newEventsHandler(t)
	created := createTestEvent(t, handler, "Original", 30.06, -1.95)

	rec := getWithID(handler.Update, http.MethodPut, "/api/v1/events/"+created.ID, created.ID, `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, created.Description, updated.Description)
	require.Equal(t, created.Location, updated.Location)
	require.True(t, created.CreatedAt.Equal(updated.CreatedAt))
}

func TestEventUpdateMissing(t *testing.T) {
	handler, _ := newEventsHandler(t)

	rec := getWithID(handler.Update, http.MethodPut, "/api/v1/events/01HQZX3Y4K6F7G8H9J0K1M2N3P", "01HQZX3Y4K6F7G8H9J0K1M2N3P", `{"title":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventUpdateBadLocation(t *testing.T) {
	handler, _ := newEventsHandler(t)
	created := createTestEvent(t, handler, "Original", 30.06, -1.95)

	rec := getWithID(handler.Update, http.MethodPut, "/api/v1/events/"+created.ID, created.ID, `{"location":"garbage"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventDeleteReturnsRecord(t *testing.T) {
	handler, _ := newEventsHandler(t)
	created := createTestEvent(t, handler, "Doomed", 30.06, -1.95)

	rec := getWithID(handler.Delete, http.MethodDelete, "/api/v1/events/"+created.ID, created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	require.Equal(t, created.ID, deleted.ID)
	require.Equal(t, "Doomed", deleted.Title)

	rec = getWithID(handler.Delete, http.MethodDelete, "/api/v1/events/"+created.ID, created.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventSearch(t *testing.T) {
	handler, _ := newEventsHandler(t)
	near := createTestEvent(t, handler, "Near", 30.06, -1.95)
	createTestEvent(t, handler, "Far", 130.06, 40.0)

	rec := httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/search?latitude=-1.95&longitude=30.06&radius=0.01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, near.ID, items[0].ID)
}

func TestEventSearchEmptyIsOK(t *testing.T) {
	handler, _ := newEventsHandler(t)

	rec := httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/search?latitude=0&longitude=0&radius=0.5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestEventSearchBadParams(t *testing.T) {
	handler, _ := newEventsHandler(t)

	cases := []struct {
		name  string
		query string
	}{
		{"missing latitude", "longitude=30&radius=1"},
		{"missing longitude", "latitude=1&radius=1"},
		{"missing radius", "latitude=1&longitude=30"},
		{"non-numeric", "latitude=abc&longitude=30&radius=1"},
		{"negative radius", "latitude=1&longitude=30&radius=-1"},
		{"out of range latitude", "latitude=95&longitude=30&radius=1"},
		{"abbreviated names rejected", "lat=1&lon=30&radius=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/search?"+tc.query, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
