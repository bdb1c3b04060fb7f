package mail

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Mailer delivers the transactional mail the auth flows produce. Sending is
// fire-and-forget from the caller's point of view: there is no retry layer.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, recoveryURL string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Secure    bool
	FromEmail string
	FromName  string
	SiteName  string
}

type smtpMailer struct {
	client *gomail.Client
	cfg    SMTPConfig
	tmpl   *template.Template
}

func NewSMTPMailer(cfg SMTPConfig) (Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "smtp client")
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, customErrors.WrapInternal(err, "mail templates")
	}

	return &smtpMailer{client: client, cfg: cfg, tmpl: tmpl}, nil
}

type resetEmailData struct {
	SiteName    string
	Name        string
	RecoveryURL string
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, toEmail, toName, recoveryURL string) error {
	subject, body, err := renderResetEmail(m.tmpl, resetEmailData{
		SiteName:    m.cfg.SiteName,
		Name:        toName,
		RecoveryURL: recoveryURL,
	})
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromEmail); err != nil {
		return customErrors.WrapInternal(err, "mail from")
	}
	if err := msg.AddToFormat(toName, toEmail); err != nil {
		return customErrors.WrapInternal(err, "mail to")
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return customErrors.WrapInternal(err, "send mail")
	}
	return nil
}

func renderResetEmail(tmpl *template.Template, data resetEmailData) (subject, body string, err error) {
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, "reset_password.html", data); err != nil {
		return "", "", customErrors.WrapInternal(err, "render reset email")
	}
	return fmt.Sprintf("Recupere sua senha %s", data.Name), sb.String(), nil
}
