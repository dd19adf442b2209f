package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="background-color: #16a34a; color: white; padding: 20px; text-align: center;">CookMate</h1>
    <h2>Hello, {{.Name}}!</h2>
    <p>{{.Intro}}</p>
    <p style="font-size: 32px; font-weight: bold; color: #16a34a; letter-spacing: 5px; text-align: center;">{{.Code}}</p>
    <p><strong>This code will expire in {{.Minutes}} minutes.</strong></p>
    <p>If you didn't request this, please ignore this email.</p>
  </div>
</body>
</html>`))

type Purpose int

const (
	PurposeVerify Purpose = iota
	PurposeReset
)

// OTPMessage renders the one-time code email for the given purpose.
func OTPMessage(purpose Purpose, to, name, code string, ttl time.Duration) (Message, error) {
	subject := "CookMate - Email Verification OTP"
	intro := "Thank you for signing up. Please verify your email address using the code below:"
	if purpose == PurposeReset {
		subject = "CookMate - Password Reset Code"
		intro = "We received a request to reset your password. Use the code below to continue:"
	}
	minutes := int(ttl.Minutes())

	var buf bytes.Buffer
	err := otpHTML.Execute(&buf, struct {
		Name    string
		Intro   string
		Code    string
		Minutes int
	}{Name: name, Intro: intro, Code: code, Minutes: minutes})
	if err != nil {
		return Message{}, fmt.Errorf("render otp email: %w", err)
	}

	return Message{
		To:      to,
		Name:    name,
		Subject: subject,
		Text:    fmt.Sprintf("Hello %s,\n\n%s\n\n%s\n\nThis code will expire in %d minutes.", name, intro, code, minutes),
		HTML:    buf.String(),
	}, nil
}
