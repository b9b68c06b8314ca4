package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/matchday-leads/internal/infra/queue"
	"github.com/xavierca1/matchday-leads/internal/pricing"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type EmailSender struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	BackendURL string

	// send delivers a composed message; tests replace it.
	send func(m *gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, backendURL string) *EmailSender {
	s := &EmailSender{
		Host:       host,
		Port:       port,
		User:       user,
		Password:   password,
		From:       from,
		BackendURL: strings.TrimRight(backendURL, "/"),
	}
	s.send = func(m *gomail.Message) error {
		return gomail.NewDialer(s.Host, s.Port, s.User, s.Password).DialAndSend(m)
	}
	return s
}

// SendQuote mails the breakdown with accept and decline links.
func (s *EmailSender) SendQuote(payload queue.QuoteGeneratedPayload) error {
	b := payload.Breakdown
	data := QuoteEmailData{
		Name:           payload.Name,
		PackageName:    payload.PackageName,
		EventName:      payload.EventName,
		EventLocation:  payload.EventLocation,
		EventDate:      payload.EventDate.Format("Mon, 02 Jan 2006"),
		Travelers:      b.Travelers,
		PricePerPerson: rupees(b.PricePerPerson),
		BaseTotal:      rupees(b.BaseTotal),
		Lines:          adjustmentLines(b.Adjustments),
		FinalPrice:     rupees(b.FinalPrice),
		ValidUntil:     payload.ValidUntil.Format("02 Jan 2006"),
		AcceptURL:      s.BackendURL + "/api/quotes/" + payload.QuoteID + "/accept",
		DeclineURL:     s.BackendURL + "/api/quotes/" + payload.QuoteID + "/decline",
	}

	body, err := render("quote.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your quote for %s: %s", payload.EventName, data.FinalPrice)
	return s.deliver(payload.Email, subject, body)
}

func (s *EmailSender) SendVerification(to, link string, expiresAt time.Time) error {
	body, err := render("verification.html", VerificationEmailData{
		Link:      link,
		ExpiresAt: expiresAt.UTC().Format("15:04 MST, 02 Jan 2006"),
	})
	if err != nil {
		return err
	}
	return s.deliver(to, "Please verify your email for your request", body)
}

func (s *EmailSender) deliver(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send SMTP email: %w", err)
	}
	return nil
}

func render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return body.String(), nil
}

func adjustmentLines(a pricing.Adjustments) []AdjustmentLine {
	var lines []AdjustmentLine
	for _, adj := range []pricing.Adjustment{a.Seasonal, a.EarlyBird, a.LastMinute, a.Group, a.Weekend} {
		if adj.Amount.IsZero() {
			continue
		}
		lines = append(lines, AdjustmentLine{
			Reason:     adj.Reason,
			Percentage: signed(adj.Percentage.String()),
			Amount:     rupees(adj.Amount),
		})
	}
	return lines
}

func rupees(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Abs().StringFixed(2)
	}
	return "₹" + d.StringFixed(2)
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
