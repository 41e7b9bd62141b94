package interactive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

func TestConfirmAdapter_NonInteractive(t *testing.T) {
	c := NewConfirmAdapter(&config.RuntimeConfig{NonInteractive: true})

	ok, err := c.Confirm(context.Background(), "Deploy to sonic?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
}

func TestConfirmAdapter_CancelledContext(t *testing.T) {
	c := NewConfirmAdapter(&config.RuntimeConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := c.Confirm(ctx, "Deploy to sonic?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
