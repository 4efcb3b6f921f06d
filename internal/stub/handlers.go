package stub

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gatelink/gatelink/internal/device"
	"github.com/gatelink/gatelink/internal/session"
)

type handlers struct {
	cfg Config
}

// writeData writes the backend's success envelope.
func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  http.StatusOK,
		"message": "ok",
		"data":    data,
	})
}

// writeError writes the backend's error envelope.
func writeError(w http.ResponseWriter, status int, message, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"message": message,
		"reason":  reason,
	})
}

// login checks the configured credentials and answers with a signed token
// plus the session payload.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "bad_request")
		return
	}
	if !strings.EqualFold(body.Email, h.cfg.Email) || body.Password != h.cfg.Password {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid_credentials")
		return
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(h.cfg.User.ID, 10),
		Issuer:    "gatelink-stub",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(12 * time.Hour)),
	}).SignedString([]byte(h.cfg.SigningKey))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot sign token", "internal")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token":       token,
		"user":        h.cfg.User,
		"modules":     h.cfg.Modules,
		"id_client":   1,
		"uid_client":  "stub-client",
		"id_instance": 1,
		"version":     session.APIVersion{API: "stub", OAuth: "stub"},
	})
}

// requireAuth verifies the bearer token issued by login.
func (h *handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing_token")
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.cfg.SigningKey), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// listDevices serves offset pagination with substring search over the
// seeded device set.
func (h *handlers) listDevices(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = device.DefaultPageSize
	}
	search := strings.ToLower(r.URL.Query().Get("search"))

	matched := make([]device.Device, 0, len(h.cfg.Devices))
	for _, d := range h.cfg.Devices {
		if search == "" ||
			strings.Contains(strings.ToLower(d.Name), search) ||
			strings.Contains(strings.ToLower(d.Settings.Serial), search) {
			matched = append(matched, d)
		}
	}

	start := offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	writeData(w, map[string]any{
		"results": matched[start:end],
		"count":   len(matched),
		"limit":   limit,
		"offset":  offset,
	})
}

// getDevice serves one device by id.
func (h *handlers) getDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed device id", "bad_request")
		return
	}
	for _, d := range h.cfg.Devices {
		if d.ID == id {
			writeData(w, map[string]any{"result": d})
			return
		}
	}
	writeError(w, http.StatusNotFound, "device not found", "not_found")
}

// listModules serves the seeded module list.
func (h *handlers) listModules(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"results": h.cfg.Modules,
	})
}
