package dispatch

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"time"

	"github.com/dajohi/goemail"
	"github.com/google/uuid"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/config"
)

// Attachment is a file included with an outbound message.
type Attachment struct {
	Filename string
	Bytes    []byte
}

// Message is one outbound email. Text and HTML are parallel bodies; the
// transport prefers HTML when both are present.
type Message struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Receipt reports a completed delivery handoff.
type Receipt struct {
	MessageID  string
	Recipients []string
	SentAt     time.Time
}

// Mailer is the outbound mail transport collaborator.
type Mailer interface {
	// IsEnabled reports whether a transport is configured. A disabled
	// mailer accepts sends and drops them.
	IsEnabled() bool
	Send(msg *Message) (*Receipt, error)
}

// smtpMailer sends email through an SMTP server from a preset address.
type smtpMailer struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
}

// NewSMTPMailer returns an SMTP-backed Mailer. Mail is considered disabled
// when the host or sender address is missing; a disabled mailer logs and
// drops instead of failing, so environments without SMTP still work.
func NewSMTPMailer(cfg config.SMTP) (Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		log.Infof("Mail: DISABLED")
		return &smtpMailer{disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%v:%v@%v", cfg.User, cfg.Password, cfg.Host)
	u, err := url.Parse(h)
	if err != nil {
		return nil, err
	}
	log.Infof("Mail host: smtps://%v:[password]@%v", cfg.User, cfg.Host)

	a, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.SkipVerify,
	}
	if !cfg.SkipVerify && cfg.CertPath != "" {
		cert, err := os.ReadFile(cfg.CertPath)
		if err != nil {
			return nil, err
		}
		certPool, err := x509.SystemCertPool()
		if err != nil {
			certPool = x509.NewCertPool()
		}
		certPool.AppendCertsFromPEM(cert)
		tlsConfig.RootCAs = certPool
	}

	smtp, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, err
	}

	name := cfg.FromName
	if name == "" {
		name = a.Name
	}
	return &smtpMailer{
		smtp:        smtp,
		mailName:    name,
		mailAddress: a.Address,
	}, nil
}

func (m *smtpMailer) IsEnabled() bool { return !m.disabled }

func (m *smtpMailer) Send(msg *Message) (*Receipt, error) {
	recipients := make([]string, 0, len(msg.To)+len(msg.CC)+len(msg.BCC))
	recipients = append(recipients, msg.To...)
	recipients = append(recipients, msg.CC...)
	recipients = append(recipients, msg.BCC...)

	if m.disabled {
		log.Debugf("Mail disabled, dropping %q to %v", msg.Subject, recipients)
		return &Receipt{
			MessageID:  uuid.New().String(),
			Recipients: recipients,
			SentAt:     time.Now(),
		}, nil
	}
	if len(recipients) == 0 {
		return nil, apperr.New(apperr.KindValidation, "no recipients")
	}

	var out *goemail.Message
	if msg.HTML != "" {
		out = goemail.NewHTMLMessage(m.mailAddress, msg.Subject, msg.HTML)
	} else {
		out = goemail.NewMessage(m.mailAddress, msg.Subject, msg.Text)
	}
	out.SetName(m.mailName)
	for _, v := range msg.To {
		out.AddTo(v)
	}
	for _, v := range msg.CC {
		out.AddCC(v)
	}
	for _, v := range msg.BCC {
		out.AddBCC(v)
	}
	for _, a := range msg.Attachments {
		out.AddAttachment(a.Filename, a.Bytes)
	}

	if err := m.smtp.Send(out); err != nil {
		return nil, apperr.Wrap(err, apperr.KindDispatch, "mail transport failed")
	}
	return &Receipt{
		MessageID:  uuid.New().String(),
		Recipients: recipients,
		SentAt:     time.Now(),
	}, nil
}
