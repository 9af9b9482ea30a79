package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"invrep/pkg/logx"
)

// Attachment is a file to include in the outgoing message.
type Attachment struct {
	Filename string
	Data     []byte
}

// sendFn matches smtp.SendMail; swapped out in tests.
type sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers one message per recipient over SMTP with STARTTLS,
// pacing sends so bulk delivery does not trip provider rate limits.
type Sender struct {
	Server   string
	Port     int
	User     string
	Password string

	// Interval between consecutive recipient sends.
	Interval time.Duration

	Log logx.Logger

	send sendFn
}

// SendResult reports what happened per recipient.
type SendResult struct {
	Sent   []string
	Failed []string
}

// LoadAttachment reads a file into an Attachment, refusing empty files.
func LoadAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	if len(data) == 0 {
		return Attachment{}, fmt.Errorf("attachment %s is empty", path)
	}
	return Attachment{Filename: filepath.Base(path), Data: data}, nil
}

// Send delivers the message to every recipient in turn. One failed
// recipient does not stop the rest; Send errors only when nobody got the
// message or the context was cancelled mid-run.
func (s *Sender) Send(ctx context.Context, recipients []string, subject, htmlBody string, attachments []Attachment) (SendResult, error) {
	var res SendResult
	if len(recipients) == 0 {
		return res, fmt.Errorf("no recipients to send to")
	}
	if s.Server == "" || s.User == "" {
		return res, fmt.Errorf("smtp server and user must be configured")
	}

	fn := s.send
	if fn == nil {
		fn = smtp.SendMail
	}
	addr := fmt.Sprintf("%s:%d", s.Server, s.Port)
	auth := smtp.PlainAuth("", s.User, s.Password, s.Server)

	interval := s.Interval
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for i, rcpt := range recipients {
		if err := limiter.Wait(ctx); err != nil {
			return res, err
		}

		msg, err := buildMessage(s.User, rcpt, subject, htmlBody, attachments)
		if err != nil {
			return res, fmt.Errorf("build message: %w", err)
		}

		s.Log.Info("sending report email",
			logx.Int("recipient", i+1), logx.Int("total", len(recipients)))
		if err := fn(addr, auth, s.User, []string{rcpt}, msg); err != nil {
			s.Log.Error("send failed", logx.Int("recipient", i+1), logx.Err(err))
			res.Failed = append(res.Failed, rcpt)
			continue
		}
		res.Sent = append(res.Sent, rcpt)
	}

	if len(res.Sent) == 0 {
		return res, fmt.Errorf("all %d sends failed", len(recipients))
	}
	if len(res.Failed) > 0 {
		s.Log.Warn("delivery partially failed",
			logx.Int("sent", len(res.Sent)), logx.Int("failed", len(res.Failed)))
	}
	return res, nil
}

// buildMessage frames a multipart/mixed message: an alternative part holding
// the HTML body, then base64 attachments at the root.
func buildMessage(from, to, subject, htmlBody string, attachments []Attachment) ([]byte, error) {
	var body bytes.Buffer
	mixed := multipart.NewWriter(&body)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixed.Boundary())

	altBuf := new(bytes.Buffer)
	alt := multipart.NewWriter(altBuf)
	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlPart, err := alt.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}
	if err := alt.Close(); err != nil {
		return nil, err
	}

	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%s", alt.Boundary()))
	altPart, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuf.Bytes()); err != nil {
		return nil, err
	}

	for _, att := range attachments {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := mixed.CreatePart(h)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[i:end] + "\r\n")); err != nil {
				return nil, err
			}
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}

	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
