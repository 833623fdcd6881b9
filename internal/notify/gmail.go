package notify

import (
	"context"
	"encoding/base64"
	"mime"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig points at the OAuth2 client secrets downloaded from the Google Cloud console
// and the token file written by Authorize.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
}

// Gmail sends alerts through the Gmail API as the authorized user
type Gmail struct {
	svc    *gmail.Service
	logger log.FieldLogger
}

// NewGmail creates a Gmail notifier from stored credentials. Refreshed tokens are written back to TokenFile.
func NewGmail(ctx context.Context, c GmailConfig, logger log.FieldLogger, opts ...option.ClientOption) (*Gmail, error) {
	cfg, err := loadOAuthConfig(c.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(c.TokenFile)
	if err != nil {
		return nil, errors.Wrapf(err, "no usable OAuth token in %s, run the auth command first", c.TokenFile)
	}

	ts := &savingTokenSource{
		src:  cfg.TokenSource(ctx, tok),
		path: c.TokenFile,
		last: tok.AccessToken,
	}

	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create gmail service")
	}

	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Gmail{svc: svc, logger: logger}, nil
}

func (g *Gmail) Name() string { return "gmail" }

// Send delivers the message as a plain text email
func (g *Gmail) Send(ctx context.Context, m Message) error {
	msg := &gmail.Message{Raw: encodeMessage(m)}

	sent, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "could not send email to %s", m.Recipient)
	}

	g.logger.WithField("message_id", sent.Id).Infof("Message Id: %s", sent.Id)
	return nil
}

func encodeMessage(m Message) string {
	var b strings.Builder
	b.WriteString("To: " + m.Recipient + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", m.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

func loadOAuthConfig(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read gmail credentials file")
	}

	cfg, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse gmail credentials file")
	}
	return cfg, nil
}
