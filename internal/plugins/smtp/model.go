// Package smtp sends outbound email for BeritaBank. Settings come from the
// environment (see config.SMTPConfig) and every message carries a plain-text
// body with an optional HTML alternative.
package smtp

// Message is one outbound email.
type Message struct {
	To       []string
	Subject  string
	TextBody string

	// HTMLBody is optional. When set the message is sent as
	// multipart/alternative.
	HTMLBody string
}

// Encryption modes for the SMTP connection.
const (
	EncryptionStartTLS = "starttls"
	EncryptionSSL      = "ssl"
	EncryptionNone     = "none"
)
