package google

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecretJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(clientSecretJSON))
	require.NoError(t, err)
	assert.Equal(t, "id.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/spreadsheets.readonly"}, cfg.Scopes)

	_, err = OAuthConfig([]byte(`{}`))
	require.Error(t, err)
}

func TestSaveAndReadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, tok))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := ReadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)

	_, err = ReadToken(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNewLoaderOAuthWithoutToken(t *testing.T) {
	dir := t.TempDir()
	client := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(client, []byte(clientSecretJSON), 0o600))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewLoader(context.Background(), Config{
		SpreadsheetID:   "x",
		OAuthClientFile: client,
		OAuthTokenFile:  filepath.Join(dir, "token.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run digimart-cli sheets-auth")
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		code   string
		err    bool
	}{
		{"valid code", "code=abc&state=s1", http.StatusOK, "abc", false},
		{"state mismatch", "code=abc&state=other", http.StatusBadRequest, "", false},
		{"missing code", "state=s1", http.StatusBadRequest, "", false},
		{"denied", "error=access_denied&state=s1", http.StatusBadRequest, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			errs := make(chan error, 1)
			rec := httptest.NewRecorder()
			callbackHandler("s1", codes, errs)(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			select {
			case code := <-codes:
				assert.Equal(t, tt.code, code)
			default:
				assert.Empty(t, tt.code)
			}
			select {
			case <-errs:
				assert.True(t, tt.err)
			default:
				assert.False(t, tt.err)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "abc" {
			http.Error(w, "bad code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","refresh_token":"ref","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://auth.example/auth", TokenURL: tokenSrv.URL},
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	pr, pw := io.Pipe()
	go func() {
		tok, err := Authorize(ctx, cfg, ln, pw)
		pw.Close()
		done <- result{tok, err}
	}()

	var authURL string
	sc := bufio.NewScanner(pr)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "https://") {
			authURL = sc.Text()
			break
		}
	}
	go func() { _, _ = io.Copy(io.Discard, pr) }()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Contains(t, u.Query().Get("redirect_uri"), "/callback")
	assert.Equal(t, "offline", u.Query().Get("access_type"))

	resp, err := http.Get("http://" + ln.Addr().String() + "/callback?code=abc&state=" + url.QueryEscape(u.Query().Get("state")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "tok", res.tok.AccessToken)
	assert.Equal(t, "ref", res.tok.RefreshToken)
}
