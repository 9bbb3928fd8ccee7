package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// request payload for the ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type toRecipient struct {
	Email emailAddress `json:"email_address"`
}

type zeptoSender struct {
	apiURL   string
	apiKey   string // e.g. "Zoho-enczapikey xxxxx"
	from     string
	fromName string
	client   *http.Client
}

func (z *zeptoSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload := emailRequest{
		From:     emailAddress{Address: z.from, Name: z.fromName},
		To:       []toRecipient{{Email: emailAddress{Address: to}}},
		Subject:  subject,
		HtmlBody: htmlBody,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", z.apiKey)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}
	return nil
}
