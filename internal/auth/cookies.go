package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	// TokenCookieName is the session cookie the browser client relies on.
	TokenCookieName = "token"
	// loggedOutCookieValue overwrites the session cookie on logout.
	loggedOutCookieValue = "none"
)

// CookiePolicy controls the attributes of the session cookie.
type CookiePolicy struct {
	Production bool
	Lifetime   time.Duration
	now        func() time.Time
}

func NewCookiePolicy(production bool, lifetime time.Duration) CookiePolicy {
	return CookiePolicy{Production: production, Lifetime: lifetime, now: time.Now}
}

func (p CookiePolicy) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// SetTokenCookie sets the httpOnly session cookie. Cross-site delivery
// (Secure + SameSite=None) is only enabled in production; plain-HTTP dev
// servers would have the cookie dropped otherwise.
func (p CookiePolicy) SetTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, p.cookie(token, p.clock().Add(p.Lifetime), int(p.Lifetime.Seconds())))
}

// ClearTokenCookie overwrites the session cookie with a sentinel value that
// has already expired.
func (p CookiePolicy) ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, p.cookie(loggedOutCookieValue, time.Unix(0, 0), -1))
}

func (p CookiePolicy) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if p.Production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// ExtractToken finds the session token: Authorization: Bearer first, then the
// session cookie. It returns ErrNoCredential when neither carries one.
func ExtractToken(r *http.Request) (string, error) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, nil
	}

	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return "", ErrNoCredential
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" || value == loggedOutCookieValue {
		return "", ErrNoCredential
	}
	return value, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
