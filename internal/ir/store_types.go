package ir

// NOTE: These are store records, not part of the dictionary IR.
// They are written after a run completes and never read back by the engine.

// RunRecord is the audit record of one calculation run.
type RunRecord struct {
	ID             string            `json:"id"` // UUIDv7
	DictionaryHash string            `json:"dictionary_hash"`
	EngineID       string            `json:"engine_id"`
	OK             bool              `json:"ok"`
	Inputs         map[string]string `json:"inputs"`
	Outputs        map[string]string `json:"outputs,omitempty"` // rendered with Value.String
	Errors         []RunError        `json:"errors,omitempty"`
	CreatedAt      string            `json:"created_at,omitempty"` // set by the store
}

// RunError is one diagnostic of a failed run. Entity is the variable name,
// "validation" for inter-field validators, or empty.
type RunError struct {
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// DictionaryRecord is a stored compiled dictionary, keyed by content hash.
type DictionaryRecord struct {
	Hash      string `json:"hash"`
	EngineID  string `json:"engine_id"`
	Canonical string `json:"canonical"`
	CreatedAt string `json:"created_at,omitempty"`
}
