package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/onboard/internal/domain/models"
	apperrors "github.com/turtacn/onboard/pkg/errors"
)

func TestFlowTokenRoundTrip(t *testing.T) {
	signer := NewFlowSigner("test-secret", 15*time.Minute)

	state := FlowState{
		DBName:     "acme_1",
		AdminEmail: "admin@acme.example",
		Edition:    models.EditionEnterprise,
	}
	token, err := signer.Sign(state)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestFlowTokenRejectsEmpty(t *testing.T) {
	signer := NewFlowSigner("test-secret", 15*time.Minute)

	_, err := signer.Verify("")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFlowStateInvalid, apperrors.AsAppError(err).Code)
}

func TestFlowTokenRejectsTampering(t *testing.T) {
	signer := NewFlowSigner("test-secret", 15*time.Minute)
	other := NewFlowSigner("other-secret", 15*time.Minute)

	token, err := other.Sign(FlowState{DBName: "acme_1", Edition: models.EditionCommunity})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFlowStateInvalid, apperrors.AsAppError(err).Code)
}

func TestFlowTokenRejectsExpired(t *testing.T) {
	signer := NewFlowSigner("test-secret", -time.Minute)

	token, err := signer.Sign(FlowState{DBName: "acme_1", Edition: models.EditionCommunity})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFlowStateInvalid, apperrors.AsAppError(err).Code)
}
