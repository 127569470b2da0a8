// Package callback posts the load-close notification (§6 Callback) and
// signs it with a JWT so receivers can verify it originated from this
// pipeline, the way the teacher's auth package signs access tokens.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AltimetrikAI/propelus-taxonomy/pkg/models"
)

// Payload is the JSON body POSTed to a load's callback_url on close.
type Payload struct {
	RequestID  string            `json:"request_id"`
	LoadID     int64             `json:"load_id"`
	Status     models.LoadStatus `json:"status"`
	Counts     models.LoadCounts `json:"counts"`
	TaxonomyID int64             `json:"taxonomy_id"`
}

// Claims carries the payload's load id plus standard registered claims
// (the subject is the request id) so the signature is bound to one
// specific notification.
type Claims struct {
	jwt.RegisteredClaims
	LoadID int64 `json:"load_id"`
}

// Notifier signs and delivers load-close callbacks over HTTP.
type Notifier struct {
	client *http.Client
	secret []byte
	ttl    time.Duration
}

// New builds a Notifier. secret must be at least 32 bytes (enforced by
// config.CallbackConfig.Validate).
func New(client *http.Client, secret string, ttl time.Duration) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{client: client, secret: []byte(secret), ttl: ttl}
}

// Sign produces a compact JWS for p, carried as the X-Taxonomy-Signature
// header so receivers can verify delivery without parsing the body twice.
func (n *Notifier) Sign(p Payload) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
			Subject:   p.RequestID,
		},
		LoadID: p.LoadID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(n.secret)
}

// Deliver POSTs the load-close payload to url in a single attempt and
// returns any transport error or status >= 300 as an error. It does not
// retry, and the coordinator does not retry a failed delivery either, so a
// callback that fails is not delivered.
func (n *Notifier) Deliver(ctx context.Context, url string, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	sig, err := n.Sign(p)
	if err != nil {
		return fmt.Errorf("sign callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Taxonomy-Signature", sig)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback receiver returned status %d", resp.StatusCode)
	}
	return nil
}
