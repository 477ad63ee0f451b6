package content

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
)

// Restricted variants carry a bcrypt share password in the catalog. A
// correct unlock sets an HMAC-signed cookie scoped to the variant so the
// password is only asked once per browser.

func checkSharePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func gateCookieName(language, videoFile string) string {
	sum := sha256.Sum256([]byte(language + "/" + videoFile))
	return "cv_" + hex.EncodeToString(sum[:4])
}

func signGateCookie(hmacSecret, language, videoFile, passwordHash string) string {
	hashPrefix := passwordHash
	if len(hashPrefix) > 16 {
		hashPrefix = hashPrefix[:16]
	}
	mac := hmac.New(sha256.New, []byte(hmacSecret))
	mac.Write([]byte(language + "/" + videoFile + "|" + hashPrefix))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyGateCookie(hmacSecret, language, videoFile, passwordHash, cookieValue string) bool {
	expected := signGateCookie(hmacSecret, language, videoFile, passwordHash)
	return hmac.Equal([]byte(expected), []byte(cookieValue))
}

func setGateCookie(w http.ResponseWriter, language, videoFile, cookieValue string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     gateCookieName(language, videoFile),
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(7 * 24 * time.Hour / time.Second),
	})
}

func (h *Handler) hasValidGateCookie(r *http.Request, language, videoFile, passwordHash string) bool {
	cookie, err := r.Cookie(gateCookieName(language, videoFile))
	if err != nil {
		return false
	}
	return verifyGateCookie(h.hmacSecret, language, videoFile, passwordHash, cookie.Value)
}

// unlocked reports whether the request may see the variant.
func (h *Handler) unlocked(r *http.Request, it *item) bool {
	if it.PasswordHash == nil {
		return true
	}
	return h.hasValidGateCookie(r, it.Language, it.VideoFile, *it.PasswordHash)
}

type unlockRequest struct {
	Password string `json:"password"`
}

// Unlock checks the share password for a restricted variant and sets the
// gate cookie on success.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	videoFile := chi.URLParam(r, "video")
	if !languages.IsCorpusLanguage(language) {
		httputil.WriteError(w, http.StatusNotFound, "unknown language")
		return
	}

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.lookupItem(r.Context(), language, videoFile)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load content")
		return
	}
	if it == nil {
		httputil.WriteError(w, http.StatusNotFound, "content not found")
		return
	}
	if it.PasswordHash == nil {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
		return
	}
	if !checkSharePassword(*it.PasswordHash, req.Password) {
		httputil.WriteError(w, http.StatusForbidden, "incorrect password")
		return
	}

	setGateCookie(w, language, videoFile, signGateCookie(h.hmacSecret, language, videoFile, *it.PasswordHash), h.secureCookie)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}
