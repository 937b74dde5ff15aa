package model

// Verdict is one detector's output for one inspected text. Category,
// Description and Confidence are static per detector; Detected and
// ConfidenceValue are computed per inspection.
type Verdict struct {
	Category        string
	Confidence      string // qualitative label, e.g. "Confident", "Unlikely"
	Description     string
	Detected        bool
	ConfidenceValue int // 0-100
}

// ChatMessage is a single role-tagged message in an ingestion or proxy chat
// request. Role is "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}
