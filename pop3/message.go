package pop3

// Constants

// Available fetch variants.
const (
	// FetchNormal retrieves the complete message.
	FetchNormal FetchOptions = iota

	// FetchHeadersOnly retrieves only the header section
	// of a message and none of its body lines.
	FetchHeadersOnly
)

// Structs

// FetchOptions selects which retrieval command is issued
// for a message and which assembler entry point parses
// the returned text.
type FetchOptions int

// MessageInfo describes one entry of the mailbox listing.
// Message numbers are only valid within the session that
// produced them, servers may renumber between sessions.
type MessageInfo struct {
	Number uint
	Size   uint64
}
