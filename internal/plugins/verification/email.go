package verification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

const emailSubject = "BeritaBank - Email Verification Code"

// emailData is what both bodies of the verification email render.
type emailData struct {
	Username string
	Code     string
	TTL      time.Duration
	Year     int
}

func (d emailData) greeting() string {
	if d.Username == "" {
		return "Hello!"
	}
	return "Hello " + d.Username + "!"
}

func (d emailData) expiresIn() string {
	minutes := int(d.TTL.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// textBody renders the plain-text part.
func textBody(d emailData) string {
	var b strings.Builder
	b.WriteString("BeritaBank - Email Verification\n\n")
	b.WriteString(d.greeting() + "\n\n")
	b.WriteString("Thank you for registering with BeritaBank! To complete your registration, please use the verification code below:\n\n")
	b.WriteString("VERIFICATION CODE: " + d.Code + "\n\n")
	b.WriteString("Enter this code in the verification field to activate your account.\n\n")
	b.WriteString("IMPORTANT: This code will expire in " + d.expiresIn() + ". Do not share this code with anyone.\n\n")
	b.WriteString("If you didn't request this verification, please ignore this email.\n")
	fmt.Fprintf(&b, "© %d BeritaBank. All rights reserved.\n", d.Year)
	return b.String()
}

// htmlEmail renders the HTML alternative. Every interpolated value is
// escaped.
func htmlEmail(d emailData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		_, err := io.WriteString(w, `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px;background-color:#f4f4f4;">
<div style="background-color:#ffffff;border-radius:10px;padding:30px;">
<div style="text-align:center;margin-bottom:30px;">
<div style="font-size:28px;font-weight:bold;color:#2c3e50;">BeritaBank</div>
<h2>Email Verification</h2>
</div>
<p>`+esc(d.greeting())+`</p>
<p>Thank you for registering with BeritaBank! To complete your registration, please use the verification code below:</p>
<div style="background-color:#3498db;color:#ffffff;font-size:32px;font-weight:bold;text-align:center;padding:20px;border-radius:8px;letter-spacing:8px;">`+esc(d.Code)+`</div>
<p>Enter this code in the verification field to activate your account.</p>
<p style="background-color:#fff3cd;padding:15px;border-radius:5px;"><strong>Important:</strong> This code will expire in `+esc(d.expiresIn())+`. Do not share this code with anyone.</p>
<p style="font-size:12px;color:#666;">If you didn't request this verification, please ignore this email.</p>
<p style="font-size:12px;color:#666;">&copy; `+fmt.Sprint(d.Year)+` BeritaBank. All rights reserved.</p>
</div>
</body>
</html>
`)
		return err
	})
}

// renderHTML renders the HTML alternative to a string.
func renderHTML(ctx context.Context, d emailData) (string, error) {
	var b strings.Builder
	if err := htmlEmail(d).Render(ctx, &b); err != nil {
		return "", fmt.Errorf("rendering verification email: %w", err)
	}
	return b.String(), nil
}
