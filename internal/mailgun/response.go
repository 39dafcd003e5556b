package mailgun

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shineum/mailgun-ses-bridge/internal/dispatch"
)

// AcceptedMessage is the status text Mailgun returns for a queued message.
const AcceptedMessage = "Queued. Thank you."

// eventsNextURL is the paging link handed back by the events stand-in.
const eventsNextURL = "https://api.eu.mailgun.net/v3/events"

const defaultEventsLimit = 300

// Response is the envelope returned for a message request.
//
// Every message request is answered with this shape and HTTP 200, whatever
// happened downstream. Mailgun queues messages and clients built against it
// treat any other status as a hard failure that triggers retries or alerts,
// so delivery problems are reported through logs only.
type Response struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Accepted builds the response for a dispatched request.
func Accepted(res *dispatch.Result, now time.Time) Response {
	if res.Processed() == 0 {
		return Response{ID: syntheticID("send-error", now), Message: AcceptedMessage}
	}

	id := res.FirstMessageID
	if id == "" {
		id = syntheticID("send-error", now)
	}
	return Response{
		ID:      id,
		Message: fmt.Sprintf("%s Sent %d of %d batches.", AcceptedMessage, res.Processed(), res.TotalBatches),
	}
}

// MissingRecipients builds the response for a request without recipients.
func MissingRecipients(now time.Time) Response {
	return Response{ID: syntheticID("missing-to", now), Message: AcceptedMessage}
}

// ProcessingError builds the response for a request that could not be handled.
func ProcessingError(now time.Time) Response {
	return Response{ID: syntheticID("error", now), Message: AcceptedMessage}
}

func syntheticID(prefix string, now time.Time) string {
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Paging mirrors Mailgun's paging links.
type Paging struct {
	Next string `json:"next"`
}

// EventsPage is an always-empty page of delivery events.
type EventsPage struct {
	Items  []any  `json:"items"`
	Paging Paging `json:"paging"`
}

// NewEventsPage returns an empty events page whose next link carries limit.
// An empty or invalid limit falls back to Mailgun's default of 300.
func NewEventsPage(limit string) EventsPage {
	n, err := strconv.Atoi(limit)
	if err != nil || n <= 0 {
		n = defaultEventsLimit
	}
	q := url.Values{"limit": {strconv.Itoa(n)}, "page": {"next_page"}}
	return EventsPage{
		Items:  []any{},
		Paging: Paging{Next: eventsNextURL + "?" + q.Encode()},
	}
}

// ItemList is an always-empty item listing.
type ItemList struct {
	Items []any `json:"items"`
}

// EmptyList returns an empty item listing.
func EmptyList() ItemList {
	return ItemList{Items: []any{}}
}

// Status is the generic acknowledgement returned for any other endpoint.
type Status struct {
	Message string `json:"message"`
}
