package ir

// Version constants for the journal schema and engine.
const (
	// JournalVersion is the on-disk journal format version.
	JournalVersion = "1"

	// EngineVersion is the pagecloud engine version.
	EngineVersion = "0.1.0"
)
