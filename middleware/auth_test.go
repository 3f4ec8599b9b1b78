package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/federation-registry/models"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func echoActor(t *testing.T, got *models.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		require.NoError(t, err)
		*got = actor
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  models.Actor
	}{
		{
			name:       "representative with region",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 7, "role": "regional_representative", "region_id": 3, "exp": exp}),
			wantStatus: http.StatusNoContent,
			wantActor:  models.Actor{UserID: 7, Role: models.RoleRegionalRepresentative, RegionID: intPtr(3)},
		},
		{
			name:       "editor without region",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": "12", "role": "editor", "exp": exp}),
			wantStatus: http.StatusNoContent,
			wantActor:  models.Actor{UserID: 12, Role: models.RoleEditor},
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, []byte("other"), jwt.MapClaims{"user_id": 1, "role": "admin", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "representative without region",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": "regional_representative", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown role",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": "player", "exp": exp}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.Actor
			h := Authenticate(testSecret, logger)(echoActor(t, &got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, tt.wantActor, got)
			}
		})
	}
}

func TestAuthenticate_QueryToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": 5, "role": "admin"})

	var got models.Actor
	h := Authenticate(testSecret, logger)(echoActor(t, &got))
	req := httptest.NewRequest(http.MethodGet, "/ws/categories/1?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestAuthenticate_QueryTokenIgnoredOutsideUpgrade(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": 5, "role": "admin"})

	var got models.Actor
	h := Authenticate(testSecret, logger)(echoActor(t, &got))
	req := httptest.NewRequest(http.MethodGet, "/registrations?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, got)
}

func TestAuthorize(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Authorize(models.RoleAdmin, models.RoleEditor)(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), models.Actor{UserID: 1, Role: models.RoleEditor})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), models.Actor{UserID: 2, Role: models.RoleRegionalRepresentative, RegionID: intPtr(1)})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func intPtr(v int) *int { return &v }
