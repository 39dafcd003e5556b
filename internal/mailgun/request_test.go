package mailgun

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"single", []string{"alice@example.com"}, []string{"alice@example.com"}},
		{"single padded", []string{"  alice@example.com "}, []string{"alice@example.com"}},
		{"comma joined", []string{"a@example.com, b@example.com,c@example.com"}, []string{"a@example.com", "b@example.com", "c@example.com"}},
		{"list", []string{"a@example.com", "b@example.com"}, []string{"a@example.com", "b@example.com"}},
		{"list with joined entry", []string{"a@example.com", "b@example.com, c@example.com"}, []string{"a@example.com", "b@example.com", "c@example.com"}},
		{"empty segments dropped", []string{"a@example.com,, ,b@example.com,"}, []string{"a@example.com", "b@example.com"}},
		{"duplicates kept", []string{"a@example.com", "a@example.com"}, []string{"a@example.com", "a@example.com"}},
		{"only blanks", []string{"", " , "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ParseRecipients(tt.in))
		})
	}
}

func TestNormalize_NoRecipients(t *testing.T) {
	t.Parallel()

	req, ok := Normalize(&Fields{From: "a@example.com"}, "default@example.com")
	require.False(t, ok)
	require.Nil(t, req)
}

func TestNormalize_Defaults(t *testing.T) {
	t.Parallel()

	req, ok := Normalize(&Fields{To: []string{"x@example.com"}, Text: "hello"}, "default@example.com")
	require.True(t, ok)
	require.Equal(t, "default@example.com", req.From)
	require.Equal(t, DefaultSubject, req.Subject)
	require.Equal(t, []string{"x@example.com"}, req.To)
	require.Equal(t, "hello", req.Text)
	require.Empty(t, req.HTML)
}

func TestNormalize_ExplicitFields(t *testing.T) {
	t.Parallel()

	req, ok := Normalize(&Fields{
		From:               "Blog <news@example.com>",
		To:                 []string{"x@example.com,y@example.com"},
		Subject:            "Weekly",
		HTML:               "<p>hi</p>",
		ReplyTo:            " reply@example.com ",
		RecipientVariables: `{"x@example.com":{"id":1}}`,
	}, "default@example.com")

	require.True(t, ok)
	require.Equal(t, "Blog <news@example.com>", req.From)
	require.Equal(t, []string{"x@example.com", "y@example.com"}, req.To)
	require.Equal(t, "Weekly", req.Subject)
	require.Equal(t, "reply@example.com", req.ReplyTo)
}

func TestDecodeRequest_URLEncoded(t *testing.T) {
	t.Parallel()

	form := url.Values{
		"from":                {"news@example.com"},
		"to":                  {"a@example.com", "b@example.com"},
		"subject":             {"Hi"},
		"text":                {"plain"},
		"h:Reply-To":          {"reply@example.com"},
		"recipient-variables": {"{}"},
	}
	r := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f, err := DecodeRequest(r, 1<<20)
	require.NoError(t, err)
	require.Equal(t, "news@example.com", f.From)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, f.To)
	require.Equal(t, "Hi", f.Subject)
	require.Equal(t, "plain", f.Text)
	require.Equal(t, "reply@example.com", f.ReplyTo)
	require.Equal(t, "{}", f.RecipientVariables)
	require.Zero(t, f.Attachments)
}

func TestDecodeRequest_Multipart(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("from", "news@example.com"))
	require.NoError(t, w.WriteField("to", "a@example.com"))
	require.NoError(t, w.WriteField("to", "b@example.com"))
	require.NoError(t, w.WriteField("html", "<p>hi</p>"))
	fw, err := w.CreateFormFile("attachment", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())

	f, err := DecodeRequest(r, 1<<20)
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, f.To)
	require.Equal(t, "<p>hi</p>", f.HTML)
	require.Equal(t, 1, f.Attachments)
}

func TestDecodeRequest_JSONStringRecipient(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages",
		strings.NewReader(`{"from":"news@example.com","to":"a@example.com, b@example.com","subject":"Hi","h:Reply-To":"r@example.com"}`))
	r.Header.Set("Content-Type", "application/json")

	f, err := DecodeRequest(r, 1<<20)
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com, b@example.com"}, f.To)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, ParseRecipients(f.To))
	require.Equal(t, "r@example.com", f.ReplyTo)
}

func TestDecodeRequest_JSONArrayRecipient(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages",
		strings.NewReader(`{"to":["a@example.com","b@example.com"],"recipient-variables":{"a@example.com":{}}}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	f, err := DecodeRequest(r, 1<<20)
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, f.To)
	require.JSONEq(t, `{"a@example.com":{}}`, f.RecipientVariables)
}

func TestDecodeRequest_JSONBadRecipient(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages", strings.NewReader(`{"to":42}`))
	r.Header.Set("Content-Type", "application/json")

	_, err := DecodeRequest(r, 1<<20)
	require.Error(t, err)
}
