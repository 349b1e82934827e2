package token

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/errors"
)

// Service issues and redeems the short-lived opaque tokens that carry a
// buyer cookie through browser redirects. The payload is sealed with
// AES-GCM so partners cannot mint or tamper with handoff URLs.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type payload struct {
	Cookie    string `json:"cookie"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

func NewService(cfg config.TokenConfig) (*Service, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("token key is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 1800 * time.Second
	}
	// Any passphrase works as key material; hash it down to AES-256 size.
	sum := sha256.Sum256([]byte(cfg.Key))
	return &Service{key: sum[:], ttl: ttl, now: time.Now}, nil
}

// Issue seals the buyer cookie into an opaque URL-safe token.
func (s *Service) Issue(ctx context.Context, buyerCookie string) (string, error) {
	if buyerCookie == "" {
		return "", errors.New(errors.CodeValidation, "buyer cookie is required")
	}

	entropy := make([]byte, 8)
	if _, err := rand.Read(entropy); err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "reading token entropy")
	}

	body, err := json.Marshal(payload{
		Cookie:    buyerCookie,
		Timestamp: s.now().Unix(),
		Nonce:     base64.RawStdEncoding.EncodeToString(entropy),
	})
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "encoding token payload")
	}

	aead, err := s.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "reading token nonce")
	}

	sealed := aead.Seal(nonce, nonce, body, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Redeem opens a token and returns the buyer cookie it carries. Tokens
// older than the configured TTL are rejected.
func (s *Service) Redeem(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New(errors.CodeValidation, "token is required")
	}

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "decoding token")
	}

	aead, err := s.aead()
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New(errors.CodeUnauthorized, "token too short")
	}

	body, err := aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], nil)
	if err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "opening token")
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", errors.Wrap(errors.CodeUnauthorized, err, "decoding token payload")
	}
	if p.Cookie == "" {
		return "", errors.New(errors.CodeUnauthorized, "token carries no buyer cookie")
	}

	age := s.now().Unix() - p.Timestamp
	if age < 0 || age > int64(s.ttl.Seconds()) {
		return "", errors.New(errors.CodeUnauthorized, "token expired")
	}

	return p.Cookie, nil
}

func (s *Service) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "initializing token cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "initializing token aead")
	}
	return aead, nil
}
