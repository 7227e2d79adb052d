package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SendgridMailer sends e-mail through the SendGrid v3 REST API.
type SendgridMailer struct {
	client *resty.Client
	from   string
}

// NewSendgridMailer builds a mailer for the given API key and sender address.
func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	c := resty.New().
		SetBaseURL("https://api.sendgrid.com").
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &SendgridMailer{client: c, from: from}
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgMailRequest struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress `json:"from"`
	Subject string    `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send delivers one HTML e-mail.
func (m *SendgridMailer) Send(ctx context.Context, to, subject, html string) error {
	var body sgMailRequest
	body.Personalizations = []struct {
		To []sgAddress `json:"to"`
	}{{To: []sgAddress{{Email: to}}}}
	body.From = sgAddress{Email: m.from}
	body.Subject = subject
	body.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: html}}

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/v3/mail/send")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
