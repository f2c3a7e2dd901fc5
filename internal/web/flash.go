package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/CsvCombine/internal/web/templates"
)

// flashCookieName carries one-shot notices across the redirect that
// follows a mutating request.
const flashCookieName = "csv_flash"

// flashMaxAge bounds how long an unread notice survives.
const flashMaxAge = 5 * time.Minute

// flashCodec signs flash payloads with HMAC-SHA256 so clients cannot
// alter the notices they are shown. The wire format is
// base64url(JSON) + "." + base64url(tag).
type flashCodec struct {
	key []byte
}

func newFlashCodec(secret string) *flashCodec {
	return &flashCodec{key: []byte(secret)}
}

func (c *flashCodec) encode(flashes []templates.Flash) (string, error) {
	payload, err := json.Marshal(flashes)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// decode returns nil for anything it cannot verify. A tampered or
// truncated cookie is treated the same as no cookie at all.
func (c *flashCodec) decode(value string) []templates.Flash {
	encoded, tag, ok := strings.Cut(value, ".")
	if !ok {
		return nil
	}
	if !hmac.Equal([]byte(tag), []byte(c.sign(encoded))) {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var flashes []templates.Flash
	if err := json.Unmarshal(payload, &flashes); err != nil {
		return nil
	}
	return flashes
}

func (c *flashCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// setFlashes queues notices for the next dashboard render.
func (s *Server) setFlashes(w http.ResponseWriter, flashes []templates.Flash) {
	if len(flashes) == 0 {
		return
	}
	value, err := s.flash.encode(flashes)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(flashMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes reads pending notices and expires the cookie so each
// notice renders exactly once.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []templates.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.flash.decode(cookie.Value)
}
