package notify

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type recordingNotifier struct {
	name string
	err  error
	got  []Message
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestMulti_SendsToAll(t *testing.T) {
	failing := &recordingNotifier{name: "failing", err: errors.New("quota exceeded")}
	ok := &recordingNotifier{name: "ok"}

	msg := Message{Subject: "s", Body: "b", Recipient: "user@example.com"}
	err := Multi{failing, ok}.Send(context.Background(), msg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: quota exceeded")
	assert.Equal(t, []Message{msg}, failing.got)
	assert.Equal(t, []Message{msg}, ok.got)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Send(context.Background(), Message{}))
}

func writeCredentials(t *testing.T, dir, tokenURL string) string {
	t.Helper()
	path := filepath.Join(dir, "credentials.json")
	creds := fmt.Sprintf(`{"installed":{"client_id":"client-id","client_secret":"client-secret",`+
		`"auth_uri":"https://accounts.example.com/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, os.WriteFile(path, []byte(creds), 0o600))
	return path
}

func TestGmail_Send(t *testing.T) {
	var raw string
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw = body.Raw

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	require.NoError(t, SaveToken(tokenFile, &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}))

	logger, hook := test.NewNullLogger()
	g, err := NewGmail(context.Background(), GmailConfig{
		CredentialsFile: writeCredentials(t, dir, server.URL+"/token"),
		TokenFile:       tokenFile,
	}, logger, option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	assert.Equal(t, "gmail", g.Name())

	err = g.Send(context.Background(), Message{
		Subject:   "Price Alert: Bitcoin Price Below 30k Level",
		Body:      "Bitcoin price has dropped below the set level for 30k.",
		Recipient: "user@example.com",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "/users/me/messages/send"), path)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: user@example.com\r\n")
	assert.Contains(t, string(decoded), "Subject: Price Alert: Bitcoin Price Below 30k Level\r\n")
	assert.True(t, strings.HasSuffix(string(decoded), "\r\n\r\nBitcoin price has dropped below the set level for 30k."))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "msg-1", hook.LastEntry().Data["message_id"])
}

func TestGmail_MissingToken(t *testing.T) {
	dir := t.TempDir()
	_, err := NewGmail(context.Background(), GmailConfig{
		CredentialsFile: writeCredentials(t, dir, "http://127.0.0.1/token"),
		TokenFile:       filepath.Join(dir, "missing.json"),
	}, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the auth command first")
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingTokenSource_PersistsNewToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	ts := &savingTokenSource{
		src:  staticSource{tok: &oauth2.Token{AccessToken: "fresh", RefreshToken: "refresh"}},
		path: path,
		last: "stale",
	}

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken)
}

func TestAuthorize(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"issued","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	dir := t.TempDir()
	cfg := GmailConfig{
		CredentialsFile: writeCredentials(t, dir, tokenServer.URL),
		TokenFile:       filepath.Join(dir, "token.json"),
	}

	pr, pw := io.Pipe()
	go func() {
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			consent, err := url.Parse(scanner.Text())
			if err != nil || consent.Scheme == "" {
				continue
			}
			q := consent.Query()
			resp, err := http.Get(q.Get("redirect_uri") + "?state=" + url.QueryEscape(q.Get("state")) + "&code=the-code")
			if err == nil {
				resp.Body.Close()
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, Authorize(ctx, cfg, pw))
	pw.Close()

	tok, err := LoadToken(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "issued", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
}

func TestTelegram_Send(t *testing.T) {
	var text, chatID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"alert","username":"alert_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			text = r.Form.Get("text")
			chatID = r.Form.Get("chat_id")
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tg, err := NewTelegram(TelegramConfig{
		Token:       "test-token",
		ChatID:      42,
		APIEndpoint: server.URL + "/bot%s/%s",
	})
	require.NoError(t, err)
	assert.Equal(t, "telegram", tg.Name())

	err = tg.Send(context.Background(), Message{Subject: "subject", Body: "body", Recipient: "ignored@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "subject\n\nbody", text)
	assert.Equal(t, "42", chatID)
}
