package newebpay

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

var (
	ErrSignatureMismatch = errors.New("newebpay: trade sha mismatch")
	ErrDecryptionFailed  = errors.New("newebpay: trade info decryption failed")
	ErrUnparseableResult = errors.New("newebpay: result has no merchant order no")
	ErrEmptyEnvelope     = errors.New("newebpay: trade info or trade sha missing")
)

// Envelope is the raw inbound message. TradeInfo is kept exactly as it
// appeared on the wire so signature candidates can be derived from it.
type Envelope struct {
	Status     string `json:"Status"`
	MerchantID string `json:"MerchantID"`
	Version    string `json:"Version"`
	TradeInfo  string `json:"TradeInfo"`
	TradeSha   string `json:"TradeSha"`
}

// ParseEnvelope reads an envelope from an unparsed request body. Url-encoded
// bodies are split by hand so TradeInfo is never unescaped before the
// signature check.
func ParseEnvelope(contentType string, body []byte) (*Envelope, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	var env Envelope
	if mediaType == "application/json" {
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode json envelope: %w", err)
		}
	} else {
		for _, pair := range strings.Split(string(body), "&") {
			if pair == "" {
				continue
			}
			key, raw, _ := strings.Cut(pair, "=")
			name, err := url.QueryUnescape(key)
			if err != nil {
				name = key
			}
			switch name {
			case "TradeInfo":
				env.TradeInfo = raw
			case "TradeSha":
				env.TradeSha = unescape(raw)
			case "Status":
				env.Status = unescape(raw)
			case "MerchantID":
				env.MerchantID = unescape(raw)
			case "Version":
				env.Version = unescape(raw)
			}
		}
	}
	if strings.TrimSpace(env.TradeInfo) == "" || strings.TrimSpace(env.TradeSha) == "" {
		return nil, ErrEmptyEnvelope
	}
	return &env, nil
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// Open authenticates the envelope and decrypts its TradeInfo.
func (c *Codec) Open(env *Envelope) (*Decrypted, error) {
	if env == nil {
		return nil, ErrEmptyEnvelope
	}
	cipherText, err := c.Verify(env.TradeInfo, env.TradeSha)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(cipherText)
}

// Seal is the inverse of Open, used to build envelopes in tests and tooling.
func (c *Codec) Seal(status, plaintext string) (*Envelope, error) {
	ct, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return &Envelope{Status: status, TradeInfo: ct, TradeSha: c.Sign(ct)}, nil
}

// Form renders the envelope as the url-encoded body the gateway posts.
func (e *Envelope) Form() string {
	v := url.Values{}
	v.Set("Status", e.Status)
	v.Set("MerchantID", e.MerchantID)
	v.Set("Version", e.Version)
	v.Set("TradeInfo", e.TradeInfo)
	v.Set("TradeSha", e.TradeSha)
	return v.Encode()
}
