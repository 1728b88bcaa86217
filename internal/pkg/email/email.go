package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DescriptionPreviewLength caps the internship description quoted in emails
const DescriptionPreviewLength = 200

// Recipient is one addressee of a notification
type Recipient struct {
	Email    string
	FullName string
}

// InternshipPosted is the payload of the new internship email
type InternshipPosted struct {
	Title       string
	CompanyName string
	Location    string
	Duration    string
	Stipend     string
	Description string
}

// VerificationRequest is the payload of the certificate verification email
type VerificationRequest struct {
	StudentName     string
	StudentEmail    string
	InternshipTitle string
	CompanyName     string
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendInternshipPosted(to Recipient, data InternshipPosted) error
	SendVerificationRequest(to Recipient, data VerificationRequest) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	PortalURL string // link rendered in the emails
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	if config.FromEmail == "" {
		config.FromEmail = config.Username
	}
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// InternshipSubject is the subject line of the new internship email
func InternshipSubject(data InternshipPosted) string {
	return fmt.Sprintf("New Internship Opportunity: %s at %s", data.Title, data.CompanyName)
}

// VerificationSubject is the subject line of the verification request email
func VerificationSubject(data VerificationRequest) string {
	return "Certificate Verification: " + orDefault(data.StudentName, "Student") + " - " + orDefault(data.InternshipTitle, "Internship")
}

// RenderInternshipPosted renders the HTML body for one student
func (s *EmailServiceImpl) RenderInternshipPosted(to Recipient, data InternshipPosted) (string, error) {
	return render("internship_posted.html", map[string]string{
		"RecipientName": orDefault(to.FullName, "Student"),
		"Title":         data.Title,
		"CompanyName":   data.CompanyName,
		"Location":      data.Location,
		"Duration":      data.Duration,
		"Stipend":       data.Stipend,
		"Description":   truncate(data.Description, DescriptionPreviewLength),
		"PortalURL":     s.config.PortalURL,
	})
}

// RenderVerificationRequest renders the HTML body for one faculty member
func (s *EmailServiceImpl) RenderVerificationRequest(to Recipient, data VerificationRequest) (string, error) {
	return render("verification_request.html", map[string]string{
		"RecipientName":   orDefault(to.FullName, "Faculty"),
		"StudentName":     orDefault(data.StudentName, "Student"),
		"StudentEmail":    data.StudentEmail,
		"InternshipTitle": orDefault(data.InternshipTitle, "Internship"),
		"CompanyName":     orDefault(data.CompanyName, "Company"),
		"PortalURL":       s.config.PortalURL,
	})
}

// SendInternshipPosted tells a student about a new internship in their department
func (s *EmailServiceImpl) SendInternshipPosted(to Recipient, data InternshipPosted) error {
	body, err := s.RenderInternshipPosted(to, data)
	if err != nil {
		return fmt.Errorf("failed to render internship email: %w", err)
	}
	return s.deliver(to.Email, InternshipSubject(data), body)
}

// SendVerificationRequest asks a faculty member to review a submitted certificate
func (s *EmailServiceImpl) SendVerificationRequest(to Recipient, data VerificationRequest) error {
	body, err := s.RenderVerificationRequest(to, data)
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	return s.deliver(to.Email, VerificationSubject(data), body)
}

func (s *EmailServiceImpl) deliver(toEmail, subject, body string) error {
	// If username or password is empty, log the email (for development only)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - email not sent.")
		return nil
	}
	return s.sendHTMLEmail(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	message := strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", s.config.FromName, s.config.FromEmail),
		"To: " + toEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	serverAddress := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := &net.Dialer{Timeout: 8 * time.Second}

	var conn net.Conn
	var err error
	if s.config.UseTLS {
		// Implicit TLS (port 465)
		conn, err = tls.DialWithDialer(dialer, "tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	} else {
		conn, err = dialer.Dial("tcp", serverAddress)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create SMTP client")
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Quit() }()

	if !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	s.logger.Debug().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
