package mailgun

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shineum/mailgun-ses-bridge/internal/parser"
)

const fieldMessage = "message"

// ErrMissingMessage is returned when a MIME send request carries no
// "message" part.
var ErrMissingMessage = errors.New("mime request has no message part")

// DecodeMIMERequest reads a messages.mime request: a multipart form holding
// the raw RFC 5322 message in "message" and the recipients in "to". When no
// "to" field is sent, the message's own To header is used.
func DecodeMIMERequest(r *http.Request, maxMemory int64) (*Fields, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	raw, err := readMessagePart(r)
	if err != nil {
		return nil, err
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	values := r.MultipartForm.Value
	to := values[fieldTo]
	if len(ParseRecipients(to)) == 0 {
		to = msg.To
	}

	return &Fields{
		From:        msg.From,
		To:          to,
		Subject:     msg.Subject,
		HTML:        msg.HTMLBody,
		Text:        msg.TextBody,
		ReplyTo:     msg.ReplyTo,
		Attachments: msg.Attachments,
		Raw:         values,
	}, nil
}

// readMessagePart returns the raw message, sent either as a file or as a
// plain form value.
func readMessagePart(r *http.Request) ([]byte, error) {
	if files := r.MultipartForm.File[fieldMessage]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open message part: %w", err)
		}
		defer f.Close()

		raw, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}
		return raw, nil
	}

	if v := r.MultipartForm.Value[fieldMessage]; len(v) > 0 && v[0] != "" {
		return []byte(v[0]), nil
	}
	return nil, ErrMissingMessage
}
