package mailclient

import (
	"context"
	"io"
)

// Client sends transactional mails (vendor invitations and similar).
type Client interface {
	io.Closer
	Send(ctx context.Context, mail Mail) error
}

// Mail is a parsed and ready to send email.
type Mail struct {
	SenderAddr string `json:"sender_addr" validate:"required,email"`
	To         string `json:"to" validate:"required,email"`
	Subject    string `json:"subject" validate:"required"`
	Body       string `json:"body" validate:"required"`
}

type EmailCredential struct {
	Protocol     string `json:"protocol" validate:"required,oneof=smtp"` // smtp, ...
	ServerHost   string `json:"server_host" validate:"required"`
	ServerPort   int    `json:"server_port" validate:"required"`
	AuthIdentity string `json:"auth_identity" validate:"-"` // may be left blank to indicate that it is the same as the username
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required"`
}
