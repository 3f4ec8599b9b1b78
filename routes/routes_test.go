package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/federation-registry/handlers"
	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/notify"
	"github.com/Dosada05/federation-registry/repositories/memory"
	"github.com/Dosada05/federation-registry/routes"
	"github.com/Dosada05/federation-registry/services"
)

var secret = []byte("test-secret")

const seedJSON = `{
	"tournaments": [{"id": 1, "title": "Spring Cup", "organizing_region_id": 1,
		"start_date": "2025-06-01T09:00:00Z", "end_date": "2025-06-03T18:00:00Z", "is_registration_open": true}],
	"categories": [{"id": 10, "tournament_id": 1, "age_category": "adult", "gender": "M", "bow_type": "recurve"}],
	"athletes": [{"id": 1, "name": "A"}, {"id": 2, "name": "B"}, {"id": 3, "name": "C"},
		{"id": 4, "name": "D"}, {"id": 5, "name": "E"}],
	"coaches": [{"id": 1, "name": "Coach"}],
	"judges": [{"id": 1, "name": "Judge"}]
}`

type apiEnv struct {
	server *httptest.Server
	hub    *notify.Hub
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	seed, err := memory.ReadSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)
	require.NoError(t, store.Load(seed))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	redisPub := notify.NewRedisPublisherWithClient(rdb, "events")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	notifier := notify.Multi{hub, redisPub}
	clock := func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	categories := services.NewCachedTournamentProvider(services.NewTournamentProvider(store), time.Minute, logger)

	regs := services.NewRegistrationService(store, store, store, store, store, categories, notifier, logger)
	regs.SetClock(clock)
	results := services.NewResultsService(store, store, store, store, categories, notifier, logger)
	results.SetClock(clock)

	router := routes.SetupRoutes(routes.Options{
		JWTSecret: secret,
		Logger:    logger,
	}, routes.Handlers{
		Registrations: handlers.NewRegistrationHandler(regs, nil),
		Results:       handlers.NewResultsHandler(results),
		WebSocket:     handlers.NewWebSocketHandler(hub, nil, logger),
		Events:        handlers.NewEventsHandler(redisPub),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiEnv{server: srv, hub: hub}
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

var (
	adminClaims = jwt.MapClaims{"user_id": 100, "role": "admin"}
	rep1Claims  = jwt.MapClaims{"user_id": 1, "role": "regional_representative", "region_id": 1}
	rep2Claims  = jwt.MapClaims{"user_id": 2, "role": "regional_representative", "region_id": 2}
)

func (e *apiEnv) do(t *testing.T, method, path string, claims jwt.MapClaims, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if claims != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, claims))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func registrationBody(region, athletes int, withJudge bool) map[string]interface{} {
	list := make([]map[string]interface{}, athletes)
	for i := range list {
		list[i] = map[string]interface{}{"athlete_id": i + 1, "coach_id": 1}
	}
	body := map[string]interface{}{"region_id": region, "tournament_category_id": 10, "athletes": list}
	if withJudge {
		body["judges"] = []map[string]interface{}{{"judge_id": 1}}
	}
	return body
}

func registrationID(t *testing.T, body map[string]interface{}) int {
	t.Helper()
	reg, ok := body["registration"].(map[string]interface{})
	require.True(t, ok, "response has no registration: %v", body)
	return int(reg["id"].(float64))
}

func TestHealthAndAuth(t *testing.T) {
	api := newAPI(t)

	resp, err := http.Get(api.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := api.do(t, http.MethodGet, "/registrations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status, _ = api.do(t, http.MethodGet, "/registrations", jwt.MapClaims{"user_id": 5, "role": "regional_representative"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "representative without region")
}

func TestRegistrationWorkflow(t *testing.T) {
	api := newAPI(t)

	status, body := api.do(t, http.MethodPost, "/registrations", rep2Claims, registrationBody(2, 5, false))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.EqualValues(t, 4, body["capacity"])

	status, _ = api.do(t, http.MethodPost, "/registrations", rep2Claims, registrationBody(1, 1, false))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(t, http.MethodPost, "/registrations", rep2Claims, `{"region_id": 2, "tournament_category_id": 10, "color": "red"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	unknown := registrationBody(2, 1, false)
	unknown["tournament_category_id"] = 99
	status, _ = api.do(t, http.MethodPost, "/registrations", rep2Claims, unknown)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(t, http.MethodPost, "/registrations", rep2Claims, registrationBody(2, 3, false))
	require.Equal(t, http.StatusCreated, status, body)
	id := registrationID(t, body)
	reg := body["registration"].(map[string]interface{})
	assert.Equal(t, "PENDING", reg["status"])
	assert.Equal(t, "REG-000001", reg["registration_number"])

	status, _ = api.do(t, http.MethodPost, "/registrations", rep2Claims, registrationBody(2, 1, false))
	assert.Equal(t, http.StatusConflict, status)

	path := "/registrations/" + strconv.Itoa(id)
	status, _ = api.do(t, http.MethodPost, path+"/approve", rep2Claims, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(t, http.MethodPost, path+"/approve", adminClaims, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "no judge on the roster")

	status, body = api.do(t, http.MethodPatch, path+"/roster", rep2Claims, map[string]interface{}{"judges": []map[string]interface{}{{"judge_id": 1}}})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = api.do(t, http.MethodPost, path+"/reject", adminClaims, map[string]string{"reason": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = api.do(t, http.MethodPost, path+"/approve", adminClaims, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "APPROVED", body["registration"].(map[string]interface{})["status"])

	status, body = api.do(t, http.MethodPost, path+"/withdraw", rep2Claims, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "APPROVED", body["current_status"])

	status, body = api.do(t, http.MethodGet, path+"/history", rep2Claims, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["history"], 3)

	status, _ = api.do(t, http.MethodGet, path, rep1Claims, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(t, http.MethodGet, "/registrations?status=APPROVED", adminClaims, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, _ = api.do(t, http.MethodGet, "/registrations?limit=abc", adminClaims, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodGet, "/registrations/999", adminClaims, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodGet, "/registrations/abc", adminClaims, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResultsAndEvents(t *testing.T) {
	api := newAPI(t)

	results := map[string]interface{}{"results": []map[string]interface{}{
		{"athlete_id": 1, "place": 2},
		{"athlete_id": 2, "place": 1, "raw_score": 291.5},
	}}
	status, _ := api.do(t, http.MethodPut, "/categories/10/results", rep1Claims, results)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := api.do(t, http.MethodPut, "/categories/10/results", adminClaims, results)
	require.Equal(t, http.StatusOK, status, body)
	stored := body["results"].([]interface{})
	require.Len(t, stored, 2)
	assert.EqualValues(t, 100, stored[0].(map[string]interface{})["points"])

	status, _ = api.do(t, http.MethodPut, "/categories/10/results", adminClaims,
		map[string]interface{}{"results": []map[string]interface{}{{"athlete_id": 1, "place": 1}, {"athlete_id": 2, "place": 1}}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = api.do(t, http.MethodGet, "/categories/99/results", rep1Claims, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(t, http.MethodGet, "/standings?season=2025&bow_type=recurve", rep1Claims, nil)
	require.Equal(t, http.StatusOK, status)
	standings := body["standings"].([]interface{})
	require.Len(t, standings, 2)
	first := standings[0].(map[string]interface{})
	assert.EqualValues(t, 2, first["athlete_id"])
	assert.EqualValues(t, 1, first["rank"])

	status, body = api.do(t, http.MethodGet, "/categories/10/events", rep1Claims, nil)
	require.Equal(t, http.StatusOK, status)
	events := body["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "RESULTS_REPLACED", events[0].(map[string]interface{})["type"])
}

func TestWebSocketReceivesCategoryEvents(t *testing.T) {
	api := newAPI(t)

	wsURL := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/ws/categories/10?token=" + token(t, rep1Claims)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	room := notify.CategoryRoom(10)
	require.Eventually(t, func() bool { return api.hub.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	status, body := api.do(t, http.MethodPost, "/registrations", rep1Claims, registrationBody(1, 5, true))
	require.Equal(t, http.StatusCreated, status, body)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg notify.Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, models.EventRegistrationCreated, msg.Type)
	assert.Equal(t, 1, msg.Payload.RegionID)
	assert.Equal(t, room, msg.RoomID)

	_, _, err = websocket.DefaultDialer.Dial(strings.Split(wsURL, "?")[0], nil)
	assert.Error(t, err, "websocket requires a token")
}

