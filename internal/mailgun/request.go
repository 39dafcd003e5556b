// Package mailgun speaks the subset of the Mailgun HTTP API that newsletter
// senders rely on: it turns inbound message requests into dispatch requests
// and shapes results into the envelopes Mailgun clients expect.
package mailgun

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/shineum/mailgun-ses-bridge/internal/dispatch"
)

// DefaultSubject is used when a request carries no subject.
const DefaultSubject = "No Subject"

// Form field names used by Mailgun clients.
const (
	fieldFrom               = "from"
	fieldTo                 = "to"
	fieldSubject            = "subject"
	fieldHTML               = "html"
	fieldText               = "text"
	fieldReplyTo            = "h:Reply-To"
	fieldRecipientVariables = "recipient-variables"
)

// Fields is the raw, loosely typed content of an inbound message request.
type Fields struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	// RecipientVariables is accepted for compatibility and otherwise ignored.
	RecipientVariables string
	// Attachments counts uploaded files. They are not forwarded.
	Attachments int
	// Raw keeps every submitted field for verbose logging.
	Raw map[string][]string
}

// ParseRecipients flattens the shapes a "to" field can take (one address,
// a comma-separated list, or repeated fields) into an ordered list of
// trimmed addresses. Empty segments are dropped; duplicates are kept.
func ParseRecipients(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if addr := strings.TrimSpace(part); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}

// Normalize converts raw fields into a dispatch request. It returns false
// when the request names no recipient. No address syntax is validated.
func Normalize(f *Fields, defaultSender string) (*dispatch.Request, bool) {
	to := ParseRecipients(f.To)
	if len(to) == 0 {
		return nil, false
	}

	from := strings.TrimSpace(f.From)
	if from == "" {
		from = defaultSender
	}

	subject := f.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	return &dispatch.Request{
		From:    from,
		To:      to,
		Subject: subject,
		HTML:    f.HTML,
		Text:    f.Text,
		ReplyTo: strings.TrimSpace(f.ReplyTo),
	}, true
}

// DecodeRequest reads the fields of a message request. Multipart, URL-encoded
// and JSON bodies are supported; anything else is parsed as a URL-encoded form.
func DecodeRequest(r *http.Request, maxMemory int64) (*Fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		f := fieldsFromValues(r.MultipartForm.Value)
		for _, files := range r.MultipartForm.File {
			f.Attachments += len(files)
		}
		return f, nil

	case "application/json":
		return decodeJSON(r)

	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		return fieldsFromValues(r.PostForm), nil
	}
}

func fieldsFromValues(values map[string][]string) *Fields {
	first := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	return &Fields{
		From:               first(fieldFrom),
		To:                 values[fieldTo],
		Subject:            first(fieldSubject),
		HTML:               first(fieldHTML),
		Text:               first(fieldText),
		ReplyTo:            first(fieldReplyTo),
		RecipientVariables: first(fieldRecipientVariables),
		Raw:                values,
	}
}

// recipientList accepts either a JSON string or an array of strings.
type recipientList []string

func (l *recipientList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = recipientList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("to must be a string or an array of strings")
	}
	*l = many
	return nil
}

type jsonBody struct {
	From               string          `json:"from"`
	To                 recipientList   `json:"to"`
	Subject            string          `json:"subject"`
	HTML               string          `json:"html"`
	Text               string          `json:"text"`
	ReplyTo            string          `json:"h:Reply-To"`
	RecipientVariables json.RawMessage `json:"recipient-variables"`
}

func decodeJSON(r *http.Request) (*Fields, error) {
	var body jsonBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode JSON body: %w", err)
	}

	raw := map[string][]string{
		fieldFrom:    {body.From},
		fieldTo:      body.To,
		fieldSubject: {body.Subject},
	}

	return &Fields{
		From:               body.From,
		To:                 body.To,
		Subject:            body.Subject,
		HTML:               body.HTML,
		Text:               body.Text,
		ReplyTo:            body.ReplyTo,
		RecipientVariables: string(body.RecipientVariables),
		Raw:                raw,
	}, nil
}
