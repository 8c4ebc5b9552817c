package invoicing

import "errors"

var (
	ErrNotOwner         = errors.New("only the project owner can do this")
	ErrNotMember        = errors.New("user does not work on this project")
	ErrInvoiceFinalized = errors.New("invoice is already visible")
	ErrUnknownTrack     = errors.New("track does not belong to the project")
	ErrUnknownEntry     = errors.New("entry does not belong to the invoice")
	ErrUnknownClient    = errors.New("client not found")
	ErrInvalidEntry     = errors.New("invalid invoice entry")
	ErrInvalidPeriod    = errors.New("invoice period ends before it starts")
	ErrNoRecipient      = errors.New("invoice has no recipient email")
)
