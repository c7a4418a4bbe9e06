package ir

// Version constants for the dictionary format and engine.
const (
	// DictionaryVersion is the dictionary schema version.
	DictionaryVersion = "1"

	// EngineVersion is the calc engine version.
	EngineVersion = "0.1.0"
)
