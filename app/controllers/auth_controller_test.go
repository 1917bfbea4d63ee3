package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordkorb/nordkorb/app/models"
)

func TestActivationMailCarriesTokenLink(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "https://shop.test")

	subject, body := activationMail("Lena", "tok123abc")

	assert.Equal(t, "Bitte bestätige dein NordKorb Konto", subject)
	assert.Contains(t, body, "Hallo Lena")
	assert.Contains(t, body, "https://shop.test/activate?token=tok123abc")
}

func TestNewAccountStartsInactiveWithActivationToken(t *testing.T) {
	user, err := models.CreateUser("lena", "lena@shop.test", "geheimes-passwort")
	require.NoError(t, err)

	assert.Equal(t, models.STATUS_INACTIVE, user.Status)
	assert.NotEmpty(t, user.ActivationToken)
	require.NotNil(t, user.ActivationSentAt)

	subject, body := activationMail(user.Name, user.ActivationToken)
	assert.NotEmpty(t, subject)
	assert.Contains(t, body, user.ActivationToken)
}
