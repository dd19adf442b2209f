package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookmate/internal/platform/logger"
)

func TestSendGridSend(t *testing.T) {
	var got mailSendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg, err := NewSendGrid(logger.Nop(), SendGridConfig{APIKey: "key", BaseURL: srv.URL + "/", FromEmail: "noreply@cookmate.app"})
	require.NoError(t, err)

	err = sg.Send(context.Background(), Message{To: "ana@x.com", Name: "Ana", Subject: "hi", Text: "body"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer key", auth)
	assert.Equal(t, "noreply@cookmate.app", got.From.Email)
	assert.Equal(t, "ana@x.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "text/plain", got.Content[0].Type)
}

func TestSendGridErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	sg, err := NewSendGrid(logger.Nop(), SendGridConfig{APIKey: "key", BaseURL: srv.URL, FromEmail: "a@b.co"})
	require.NoError(t, err)

	err = sg.Send(context.Background(), Message{To: "ana@x.com", Subject: "hi", Text: "body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewSendGridRequiresKey(t *testing.T) {
	_, err := NewSendGrid(logger.Nop(), SendGridConfig{FromEmail: "a@b.co"})
	assert.Error(t, err)
}

func TestNewPicksProvider(t *testing.T) {
	m, err := New(logger.Nop(), Config{Provider: ""})
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(logger.Nop(), Config{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage(PurposeVerify, "ana@x.com", "Ana", "123456", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "CookMate - Email Verification OTP", msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.HTML, "123456")
	assert.Contains(t, msg.HTML, "10 minutes")

	reset, err := OTPMessage(PurposeReset, "ana@x.com", "<b>Ana</b>", "654321", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "CookMate - Password Reset Code", reset.Subject)
	assert.NotContains(t, reset.HTML, "<b>Ana</b>")
}
