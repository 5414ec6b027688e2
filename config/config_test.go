package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAppliesDefaults(t *testing.T) {
	c := (&ApplicationConfiguration{}).Check()
	assert.Equal(t, 4, c.MaxPoolSize)
	assert.Equal(t, 2048, c.Security.MinimumKeySize)
	assert.NotZero(t, c.Client.SessionTimeout)
	assert.NotZero(t, c.Transport.MaxMessageSize)
}

func TestCheckPanicsOnInvalidPoolSize(t *testing.T) {
	assert.Panics(t, func() {
		(&ApplicationConfiguration{MaxPoolSize: -1}).Check()
	})
}

func TestCheckPanicsOnWeakKeySize(t *testing.T) {
	assert.Panics(t, func() {
		(&ApplicationConfiguration{Security: SecurityConfiguration{MinimumKeySize: 512}}).Check()
	})
}
