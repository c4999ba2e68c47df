// Package cookie renders and parses the session cookie. The attribute set is
// fixed when the Policy is built and never changes per request.
package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Name is the session cookie name.
const Name = "session_id"

const (
	deletedValue = "deleted"
	expiredDate  = "Thu, 01 Jan 1970 00:00:00 GMT"
)

// ErrInvalidSameSite is returned for a SameSite override other than
// Strict, Lax or None.
var ErrInvalidSameSite = errors.New("invalid SameSite value")

// Options are the configuration inputs of a Policy.
type Options struct {
	// SameSite overrides the derived SameSite mode when non-empty.
	SameSite string
	// Secure overrides the derived Secure flag when non-nil.
	Secure *bool
	// CrossOrigin reports whether a cross-origin allow-list is configured.
	CrossOrigin bool
}

// Policy is the immutable snapshot of session cookie attributes.
type Policy struct {
	sameSite http.SameSite
	secure   bool
	attrs    string
}

// NewPolicy derives the cookie attributes. Without overrides, SameSite is
// None when cross-origin callers are configured and Lax otherwise; Secure is
// set whenever SameSite=None would otherwise be rejected by browsers.
func NewPolicy(opts Options) (*Policy, error) {
	sameSite := http.SameSiteLaxMode
	if opts.CrossOrigin {
		sameSite = http.SameSiteNoneMode
	}
	if opts.SameSite != "" {
		mode, err := parseSameSite(opts.SameSite)
		if err != nil {
			return nil, err
		}
		sameSite = mode
	}

	secure := opts.CrossOrigin || sameSite == http.SameSiteNoneMode
	if opts.Secure != nil {
		secure = *opts.Secure
	}

	attrs := []string{"HttpOnly", "Path=/", "SameSite=" + sameSiteName(sameSite)}
	if secure {
		attrs = append(attrs, "Secure")
	}
	return &Policy{
		sameSite: sameSite,
		secure:   secure,
		attrs:    strings.Join(attrs, "; "),
	}, nil
}

// SameSite returns the effective SameSite mode.
func (p *Policy) SameSite() http.SameSite { return p.sameSite }

// Secure reports whether the Secure attribute is emitted.
func (p *Policy) Secure() bool { return p.secure }

// Attributes is the fixed attribute list appended to every cookie.
func (p *Policy) Attributes() string { return p.attrs }

// Render builds a Set-Cookie header value. With expireNow the value is
// replaced by a placeholder and an Expires date in the past.
func (p *Policy) Render(token string, expireNow bool) string {
	if expireNow {
		return Name + "=" + deletedValue + "; Expires=" + expiredDate + "; " + p.attrs
	}
	return Name + "=" + token + "; " + p.attrs
}

// Write sets the session cookie on the response.
func (p *Policy) Write(w http.ResponseWriter, token string) {
	w.Header().Add("Set-Cookie", p.Render(token, false))
}

// Clear instructs the browser to drop the session cookie.
func (p *Policy) Clear(w http.ResponseWriter) {
	w.Header().Add("Set-Cookie", p.Render("", true))
}

// Extract returns the session token carried by the request, if any. When the
// cookie appears more than once the last value wins. Malformed cookie pairs
// are skipped rather than reported.
func Extract(r *http.Request) (string, bool) {
	cookies := r.CookiesNamed(Name)
	if len(cookies) == 0 {
		return "", false
	}
	value := cookies[len(cookies)-1].Value
	return value, value != ""
}

// ExtractHeader is Extract for a raw Cookie header value.
func ExtractHeader(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": {header}}}
	return Extract(r)
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSameSite, v)
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "Lax"
	}
}
