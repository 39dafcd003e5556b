// Package email defines the outbound message model handed to delivery backends.
package email

// Message is a single outbound email addressed to exactly one recipient.
// Fan-out to many recipients happens above this type, one Message per address,
// so no delivery call ever exposes one recipient's address to another.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}
