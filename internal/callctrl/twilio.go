// Package callctrl updates live Twilio calls out-of-band when the
// telephony channel cannot stream the reply in-band.
package callctrl

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxbridge/relay-gateway/internal/config"
)

const defaultAPIBaseURL = "https://api.twilio.com/2010-04-01"

// ReplyUpdater updates a live call's spoken response
type ReplyUpdater interface {
	UpdateReply(ctx context.Context, callSID, text string) error
}

// TwilioClient implements ReplyUpdater against the Twilio REST API
type TwilioClient struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

// NewTwilioClient creates a new Twilio call-control client
func NewTwilioClient(cfg *config.Config) *TwilioClient {
	return &TwilioClient{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		baseURL:    defaultAPIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// UpdateReply replaces the call's TwiML with a Say verb speaking text
func (c *TwilioClient) UpdateReply(ctx context.Context, callSID, text string) error {
	if callSID == "" {
		return fmt.Errorf("call SID is required")
	}

	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return fmt.Errorf("failed to escape reply text: %w", err)
	}
	twiml := fmt.Sprintf("<Response><Say>%s</Say><Pause length=\"60\"/></Response>", escaped.String())

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSID, callSID)
	form := url.Values{"Twiml": {twiml}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update call %s: %w", callSID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio API returned status %d for call %s", resp.StatusCode, callSID)
	}
	return nil
}
