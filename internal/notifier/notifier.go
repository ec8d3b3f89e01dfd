// Package notifier delivers provisioning results to the callback URL a
// submitter optionally registered with the request.
package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, keyed with
// the callback secret the submitter registered.
const SignatureHeader = "X-Callback-Signature"

const defaultTimeout = 10 * time.Second

// Payload is the callback body. Fields mirror the read-only view collaborators
// get of a finished request.
type Payload struct {
	AccountName string    `json:"AccountName"`
	AccountID   string    `json:"AccountId,omitempty"`
	OUName      string    `json:"OuName"`
	Status      string    `json:"Status"`
	CreatedAt   time.Time `json:"CreatedAt,omitempty"`
}

// Notifier posts signed callbacks.
type Notifier struct {
	client *http.Client
}

// New returns a Notifier. A nil client gets a default with a request timeout.
func New(client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Notifier{client: client}
}

// Deliver posts payload to callbackURL as JSON. When secret is nonempty the
// body is signed and the signature sent in SignatureHeader.
func (n *Notifier) Deliver(ctx context.Context, callbackURL, secret string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
