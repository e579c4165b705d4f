package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/pkg/errors"
)

// FlowState is the per-flow selection carried between the submit, detail and
// creation pages. It replaces any process-wide "last selection" state, so
// concurrent users can never observe each other's flow.
type FlowState struct {
	DBName     string
	AdminEmail string
	Edition    models.Edition
}

type flowClaims struct {
	DBName     string `json:"db_name"`
	AdminEmail string `json:"admin_email"`
	Edition    string `json:"edition"`
	jwt.RegisteredClaims
}

// FlowSigner signs and verifies the short-lived flow token embedded in the
// detail-page form.
type FlowSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewFlowSigner creates a signer with the given HMAC secret and token TTL.
func NewFlowSigner(secret string, ttl time.Duration) *FlowSigner {
	return &FlowSigner{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token for one flow state.
func (s *FlowSigner) Sign(state FlowState) (string, error) {
	now := time.Now()
	claims := flowClaims{
		DBName:     state.DBName,
		AdminEmail: state.AdminEmail,
		Edition:    state.Edition.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign flow token: %w", err)
	}
	return token, nil
}

// Verify parses a token and returns its flow state. Expired, tampered or
// missing tokens all map to ErrFlowStateInvalid.
func (s *FlowSigner) Verify(token string) (FlowState, error) {
	if token == "" {
		return FlowState{}, errors.ErrFlowStateInvalid
	}

	var claims flowClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return FlowState{}, errors.ErrFlowStateInvalid.WithError(err)
	}

	return FlowState{
		DBName:     claims.DBName,
		AdminEmail: claims.AdminEmail,
		Edition:    models.ParseEdition(claims.Edition),
	}, nil
}
