package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		extra  string
	}{
		{"not found", services.ErrRegistrationNotFound, http.StatusNotFound, ""},
		{"unknown category", fmt.Errorf("load: %w", services.ErrUnknownCategory), http.StatusNotFound, ""},
		{"invalid state", &services.InvalidStateError{Current: models.RegistrationRejected}, http.StatusConflict, "current_status"},
		{"duplicate active", services.ErrDuplicateActiveRegistration, http.StatusConflict, ""},
		{"unauthorized", services.ErrUnauthorized, http.StatusForbidden, ""},
		{"window closed", services.ErrRegistrationWindowClosed, http.StatusForbidden, ""},
		{"capacity", &services.CapacityError{Limit: 4, Got: 5}, http.StatusUnprocessableEntity, "capacity"},
		{"duplicate athlete", services.ErrDuplicateAthlete, http.StatusUnprocessableEntity, ""},
		{"duplicate place", services.ErrDuplicatePlace, http.StatusUnprocessableEntity, ""},
		{"invalid reference", services.ErrInvalidReference, http.StatusUnprocessableEntity, ""},
		{"reason required", services.ErrReasonRequired, http.StatusUnprocessableEntity, ""},
		{"judge required", services.ErrJudgeRequired, http.StatusUnprocessableEntity, ""},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.extra != "" {
				assert.Contains(t, body, tt.extra)
			}
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "connection refused", "internal details stay in the log")
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		Reason string `json:"reason"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"reason": "late"}`, ""},
		{"empty", ``, "must not be empty"},
		{"unknown key", `{"reasons": "x"}`, "unknown key"},
		{"two values", `{"reason": "a"}{"reason": "b"}`, "single JSON value"},
		{"wrong type", `{"reason": 5}`, "incorrect JSON type"},
		{"broken", `{"reason": `, "badly-formed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(rec, req, &dst)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
