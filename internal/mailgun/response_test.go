package mailgun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shineum/mailgun-ses-bridge/internal/dispatch"
)

var fixedNow = time.UnixMilli(1700000000123)

func TestAccepted_WithMessageID(t *testing.T) {
	t.Parallel()

	res := &dispatch.Result{
		TotalBatches:   3,
		Batches:        []dispatch.BatchResult{{Index: 0}, {Index: 2}},
		FailedBatches:  1,
		FirstMessageID: "0100018b-abc",
	}

	got := Accepted(res, fixedNow)
	require.Equal(t, "0100018b-abc", got.ID)
	require.Equal(t, "Queued. Thank you. Sent 2 of 3 batches.", got.Message)
}

func TestAccepted_BatchesRanButEveryRecipientFailed(t *testing.T) {
	t.Parallel()

	res := &dispatch.Result{TotalBatches: 1, Batches: []dispatch.BatchResult{{Failed: 3}}}

	got := Accepted(res, fixedNow)
	require.Equal(t, "send-error-1700000000123", got.ID)
	require.Equal(t, "Queued. Thank you. Sent 1 of 1 batches.", got.Message)
}

func TestAccepted_AllBatchesFailed(t *testing.T) {
	t.Parallel()

	res := &dispatch.Result{TotalBatches: 2, FailedBatches: 2}

	got := Accepted(res, fixedNow)
	require.Equal(t, "send-error-1700000000123", got.ID)
	require.Equal(t, AcceptedMessage, got.Message)
}

func TestMissingRecipientsAndProcessingError(t *testing.T) {
	t.Parallel()

	require.Equal(t, Response{ID: "missing-to-1700000000123", Message: AcceptedMessage}, MissingRecipients(fixedNow))
	require.Equal(t, Response{ID: "error-1700000000123", Message: AcceptedMessage}, ProcessingError(fixedNow))
}

func TestNewEventsPage(t *testing.T) {
	t.Parallel()

	page := NewEventsPage("")
	require.Empty(t, page.Items)
	require.NotNil(t, page.Items)
	require.Equal(t, "https://api.eu.mailgun.net/v3/events?limit=300&page=next_page", page.Paging.Next)

	require.Equal(t, "https://api.eu.mailgun.net/v3/events?limit=50&page=next_page", NewEventsPage("50").Paging.Next)
	require.Equal(t, "https://api.eu.mailgun.net/v3/events?limit=300&page=next_page", NewEventsPage("abc").Paging.Next)
}

func TestEmptyList(t *testing.T) {
	t.Parallel()

	list := EmptyList()
	require.NotNil(t, list.Items)
	require.Empty(t, list.Items)
}
