package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackLink(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/auth/callback?token_hash=abc&type=signup",
		CallbackLink("https://app.example.com/auth/callback", "abc", KindSignup))
	assert.Equal(t,
		"https://app.example.com/auth/callback?next=%2Fdashboard&token_hash=a%2Bb&type=signup",
		CallbackLink("https://app.example.com/auth/callback?next=%2Fdashboard", "a+b", KindSignup))
}
