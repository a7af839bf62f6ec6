package pop3

import (
	"strings"

	"github.com/emersion/go-message"
	"github.com/pkg/errors"
)

// Interfaces

// Assembler converts raw fetched message text, with its
// original line breaks preserved, into a structured
// message. Two entry points exist because a headers-only
// fetch produces text without any body lines.
type Assembler interface {

	// Assemble parses the complete raw text of a message.
	Assemble(raw string) (*message.Entity, error)

	// AssembleHeaders parses raw text containing only the
	// header section of a message.
	AssembleHeaders(raw string) (*message.Entity, error)
}

// Structs

type messageAssembler struct{}

// Functions

// NewAssembler returns the default assembler, which
// parses messages with the go-message entity reader.
func NewAssembler() Assembler {
	return &messageAssembler{}
}

// Assemble parses the complete raw text of a message.
func (a *messageAssembler) Assemble(raw string) (*message.Entity, error) {
	return assemble(raw)
}

// AssembleHeaders parses raw text containing only the
// header section of a message. A missing header/body
// separator line is tolerated and added before parsing.
func (a *messageAssembler) AssembleHeaders(raw string) (*message.Entity, error) {

	if !strings.HasSuffix(raw, "\n\n") {
		raw = strings.TrimRight(raw, "\n") + "\n\n"
	}

	return assemble(raw)
}

func assemble(raw string) (*message.Entity, error) {

	entity, err := message.Read(strings.NewReader(raw))

	// An unknown charset still yields a usable entity,
	// everything else is a format error.
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, errors.Wrap(err, "failed to assemble fetched message")
	}

	return entity, nil
}
