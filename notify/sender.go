package notify

import "context"

// Message is one outgoing email. HTML is optional; when set the message is
// sent as multipart/alternative with Text as the plain part.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}
