// Package dispatch fans a send request out to one delivery call per recipient,
// in fixed-size batches, and folds the outcomes into a single result.
//
// Dispatch never fails. Recipient failures and whole-batch failures are
// recorded and logged, and processing always continues with the next
// recipient or batch. Callers decide how to present the result; the HTTP
// layer always reports acceptance.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shineum/mailgun-ses-bridge/internal/email"
	"github.com/shineum/mailgun-ses-bridge/internal/logging"
	"github.com/shineum/mailgun-ses-bridge/internal/provider"
)

// BatchSize is the maximum number of recipients handled per batch.
const BatchSize = 50

// Request is a normalized send request shared by every recipient.
type Request struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Outcome is the result of one delivery attempt to one recipient.
type Outcome struct {
	Recipient string
	MessageID string
	Err       error
}

// OK reports whether the delivery attempt succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// BatchResult holds the ordered outcomes of a batch that ran to completion.
type BatchResult struct {
	Index    int
	Outcomes []Outcome
	Sent     int
	Failed   int
}

// Result summarizes a whole request.
type Result struct {
	// TotalBatches is the number of batches the recipients were split into.
	TotalBatches int
	// Batches holds every batch that ran to completion, in order. A batch
	// completes even if some or all of its recipients failed.
	Batches []BatchResult
	// FailedBatches counts batches aborted before completion.
	FailedBatches int
	// FirstMessageID is the first message id returned by the provider, if any.
	FirstMessageID string
}

// Processed returns the number of batches that ran to completion.
func (r *Result) Processed() int {
	return len(r.Batches)
}

// Dispatcher sends requests through a provider one recipient at a time.
type Dispatcher struct {
	provider provider.Provider
	logger   *slog.Logger
}

// New creates a Dispatcher. A nil logger discards output.
func New(p provider.Provider, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{provider: p, logger: logger}
}

// Partition splits recipients into consecutive batches of at most size,
// preserving order. It returns nil for an empty list.
func Partition(recipients []string, size int) [][]string {
	if len(recipients) == 0 {
		return nil
	}
	if size < 1 {
		size = BatchSize
	}
	return slices.Collect(slices.Chunk(recipients, size))
}

// Dispatch delivers req to every recipient and returns the aggregate result.
// Batches and recipients are processed strictly in order.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Result {
	batches := Partition(req.To, BatchSize)
	result := &Result{TotalBatches: len(batches)}

	logging.Normal(d.logger, "splitting recipients into batches",
		"recipients", len(req.To),
		"batches", len(batches),
		"batch_size", BatchSize,
	)

	for i, batch := range batches {
		br, err := d.sendBatch(ctx, i, batch, req)
		if err != nil {
			result.FailedBatches++
			logging.Normal(d.logger, "batch failed",
				"batch", i+1,
				"batches", len(batches),
				"provider", d.provider.Name(),
				"error", err,
			)
			continue
		}

		logging.Normal(d.logger, "batch sent",
			"batch", i+1,
			"batches", len(batches),
			"sent", br.Sent,
			"failed", br.Failed,
			"provider", d.provider.Name(),
		)
		result.Batches = append(result.Batches, *br)
		if result.FirstMessageID == "" {
			result.FirstMessageID = br.firstMessageID()
		}
	}

	if result.Processed() > 0 {
		logging.Normal(d.logger, "request dispatched",
			"processed_batches", result.Processed(),
			"batches", result.TotalBatches,
		)
	} else {
		logging.Normal(d.logger, "all batches failed", "batches", result.TotalBatches)
	}

	return result
}

// sendBatch delivers one batch. A panic anywhere on the batch path aborts
// only this batch and is reported as an error.
func (d *Dispatcher) sendBatch(ctx context.Context, index int, batch []string, req *Request) (br *BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			br = nil
			err = fmt.Errorf("batch aborted: %v", r)
		}
	}()

	br = &BatchResult{
		Index:    index,
		Outcomes: make([]Outcome, 0, len(batch)),
	}

	for _, rcpt := range batch {
		msg := &email.Message{
			From:     req.From,
			To:       rcpt,
			Subject:  req.Subject,
			HTMLBody: req.HTML,
			TextBody: req.Text,
			ReplyTo:  req.ReplyTo,
		}

		id, sendErr := d.provider.Send(ctx, msg)
		if sendErr != nil {
			br.Failed++
			br.Outcomes = append(br.Outcomes, Outcome{Recipient: rcpt, Err: sendErr})
			logging.Normal(d.logger, "individual email failed",
				"recipient", rcpt,
				"error", sendErr,
			)
			continue
		}

		br.Sent++
		br.Outcomes = append(br.Outcomes, Outcome{Recipient: rcpt, MessageID: id})
	}

	return br, nil
}

func (br *BatchResult) firstMessageID() string {
	for _, o := range br.Outcomes {
		if o.OK() && o.MessageID != "" {
			return o.MessageID
		}
	}
	return ""
}
