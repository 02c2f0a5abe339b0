package port

import "context"

type EmailMessage struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
