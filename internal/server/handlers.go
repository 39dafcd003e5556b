package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/mailgun-ses-bridge/internal/logging"
	"github.com/shineum/mailgun-ses-bridge/internal/mailgun"
)

type decodeFunc func(r *http.Request, maxMemory int64) (*mailgun.Fields, error)

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, mailgun.DecodeRequest)
}

func (s *Server) handleSendMIME(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, mailgun.DecodeMIMERequest)
}

// send accepts a Mailgun message request and fans it out.
//
// The answer is always HTTP 200 with an id and an acceptance message,
// including when there are no recipients, when the body cannot be parsed,
// and when every delivery fails. Failures are visible in the logs only.
func (s *Server) send(w http.ResponseWriter, r *http.Request, decode decodeFunc) {
	log := s.logger.With(
		"request_id", middleware.GetReqID(r.Context()),
		"domain", chi.URLParam(r, "domain"),
	)
	logging.Normal(log, "received newsletter sending request")
	logging.Verbose(log, "request headers", "headers", redactHeaders(r.Header))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("error processing request", "panic", rec)
			s.writeJSON(w, http.StatusOK, mailgun.ProcessingError(s.config.Now()))
		}
	}()

	fields, err := decode(r, s.config.MaxMemory)
	if err != nil {
		log.Error("error processing request", "error", err)
		s.writeJSON(w, http.StatusOK, mailgun.ProcessingError(s.config.Now()))
		return
	}

	logging.Verbose(log, "body fields", "fields", fields.Raw)
	logging.Normal(log, "files attached", "count", fields.Attachments)

	req, ok := mailgun.Normalize(fields, s.config.DefaultSender)
	if !ok {
		logging.Normal(log, "missing recipients")
		s.writeJSON(w, http.StatusOK, mailgun.MissingRecipients(s.config.Now()))
		return
	}

	logging.Normal(log, "sending email",
		"from", req.From,
		"recipients", len(req.To),
	)

	// A caller hanging up must not stop delivery to the remaining recipients.
	result := s.config.Dispatcher.Dispatch(context.WithoutCancel(r.Context()), req)

	s.writeJSON(w, http.StatusOK, mailgun.Accepted(result, s.config.Now()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	logging.Normal(s.logger, "received analytics request", "domain", chi.URLParam(r, "domain"))
	logging.Verbose(s.logger, "query parameters", "query", r.URL.Query())

	s.writeJSON(w, http.StatusOK, mailgun.NewEventsPage(r.URL.Query().Get("limit")))
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	logging.Normal(s.logger, "received validation request", "domain", chi.URLParam(r, "domain"))

	s.writeJSON(w, http.StatusOK, mailgun.EmptyList())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleCatchAll acknowledges any other call so clients probing endpoints
// the bridge does not implement keep working.
func (s *Server) handleCatchAll(w http.ResponseWriter, r *http.Request) {
	logging.Normal(s.logger, "received unhandled request", "method", r.Method, "path", r.URL.Path)
	logging.Verbose(s.logger, "unhandled request details",
		"headers", redactHeaders(r.Header),
		"query", r.URL.Query(),
	)

	s.writeJSON(w, http.StatusOK, mailgun.Status{Message: "Success"})
}

// redactHeaders returns a copy of h with credentials masked. Mailgun clients
// send their API key as basic auth.
func redactHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out.Get("Authorization") != "" {
		out.Set("Authorization", "[redacted]")
	}
	return out
}

// writeJSON writes data as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("JSON encode error", "error", err)
	}
}

// logRequests logs one line per request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.Verbose(s.logger, "request completed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
