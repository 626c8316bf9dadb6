package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
)

// GatewayConfig carries the merchant credentials for the card payment
// provider. KeySecret never leaves the server; KeyID is handed to the
// browser widget together with the gateway order id.
type GatewayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
}

func GatewayConfigFromApp(config *apt.Config) GatewayConfig {
	return GatewayConfig{
		BaseURL:   config.GetStringOrDef("payment.gateway.url", "https://api.razorpay.com/v1"),
		KeyID:     config.GetStringOrDef("payment.gateway.key_id", ""),
		KeySecret: config.GetStringOrDef("payment.gateway.key_secret", ""),
		Currency:  config.GetStringOrDef("payment.gateway.currency", "INR"),
	}
}

// Gateway talks to the payment provider's REST API and checks webhook
// style signatures. Amounts are always minor units (paise, cents).
type Gateway struct {
	config GatewayConfig
	client *http.Client
	logger apt.Logger
}

func NewGateway(config GatewayConfig, logger apt.Logger) *Gateway {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Gateway{
		config: config,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

type gatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateGatewayOrder registers the payable amount with the provider and
// returns the provider-side order id the widget needs.
func (g *Gateway) CreateGatewayOrder(ctx context.Context, amount int64, receipt string) (string, error) {
	payload, err := json.Marshal(gatewayOrderRequest{
		Amount:   amount,
		Currency: g.config.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("cannot marshal gateway order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.config.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("cannot build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.config.KeyID, g.config.KeySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("cannot read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("gateway rejected order creation",
			"status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var out gatewayOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("cannot decode gateway response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("gateway response missing order id")
	}

	return out.ID, nil
}

// VerifySignature checks the HMAC-SHA256 the widget hands back after a
// card charge. The signed message is "<gateway order id>|<payment id>"
// and the mac is hex encoded.
func (g *Gateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.config.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (g *Gateway) KeyID() string    { return g.config.KeyID }
func (g *Gateway) Currency() string { return g.config.Currency }
