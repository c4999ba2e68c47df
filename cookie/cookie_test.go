package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestNewPolicy_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantMode   http.SameSite
		wantSecure bool
		wantAttrs  string
	}{
		{
			name:      "same-origin only",
			opts:      Options{},
			wantMode:  http.SameSiteLaxMode,
			wantAttrs: "HttpOnly; Path=/; SameSite=Lax",
		},
		{
			name:       "cross-origin configured",
			opts:       Options{CrossOrigin: true},
			wantMode:   http.SameSiteNoneMode,
			wantSecure: true,
			wantAttrs:  "HttpOnly; Path=/; SameSite=None; Secure",
		},
		{
			name:       "explicit None forces Secure",
			opts:       Options{SameSite: "none"},
			wantMode:   http.SameSiteNoneMode,
			wantSecure: true,
			wantAttrs:  "HttpOnly; Path=/; SameSite=None; Secure",
		},
		{
			name:       "SameSite override with cross-origin keeps Secure",
			opts:       Options{SameSite: "Strict", CrossOrigin: true},
			wantMode:   http.SameSiteStrictMode,
			wantSecure: true,
			wantAttrs:  "HttpOnly; Path=/; SameSite=Strict; Secure",
		},
		{
			name:      "explicit Secure=false wins",
			opts:      Options{CrossOrigin: true, Secure: boolPtr(false)},
			wantMode:  http.SameSiteNoneMode,
			wantAttrs: "HttpOnly; Path=/; SameSite=None",
		},
		{
			name:       "explicit Secure=true on Lax",
			opts:       Options{Secure: boolPtr(true)},
			wantMode:   http.SameSiteLaxMode,
			wantSecure: true,
			wantAttrs:  "HttpOnly; Path=/; SameSite=Lax; Secure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, p.SameSite())
			assert.Equal(t, tt.wantSecure, p.Secure())
			assert.Equal(t, "session_id=tok; "+tt.wantAttrs, p.Render("tok", false))
		})
	}
}

func TestNewPolicy_InvalidSameSite(t *testing.T) {
	_, err := NewPolicy(Options{SameSite: "sometimes"})
	assert.ErrorIs(t, err, ErrInvalidSameSite)
}

func TestRender_ExpireNow(t *testing.T) {
	p, err := NewPolicy(Options{})
	require.NoError(t, err)
	assert.Equal(t,
		"session_id=deleted; Expires=Thu, 01 Jan 1970 00:00:00 GMT; HttpOnly; Path=/; SameSite=Lax",
		p.Render("ignored", true))
}

func TestWriteAndClear(t *testing.T) {
	p, err := NewPolicy(Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.Write(rec, "abc")
	resp := rec.Result()
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, Name, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)

	rec = httptest.NewRecorder()
	p.Clear(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "deleted", cookies[0].Value)
	assert.True(t, cookies[0].Expires.Unix() <= 0)
}

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"session_id=abc", "abc", true},
		{"theme=dark; session_id=abc; lang=nb", "abc", true},
		{"theme=dark", "", false},
		{"session_id=", "", false},
		{";;;===;", "", false},
		{"garbage \x00 value; session_id=xyz", "xyz", true},
		{`session_id="quoted"`, "quoted", true},
		{"session_id=stale; session_id=fresh", "fresh", true},
		{"session_id=stale; theme=dark; session_id=fresh", "fresh", true},
	}
	for _, tt := range tests {
		got, ok := ExtractHeader(tt.header)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.want, got, "header %q", tt.header)
	}
}

func TestExtract_Request(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Extract(r)
	assert.False(t, ok)

	r.AddCookie(&http.Cookie{Name: Name, Value: "tok"})
	got, ok := Extract(r)
	assert.True(t, ok)
	assert.Equal(t, "tok", got)
}
