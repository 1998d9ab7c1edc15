package analysis

// Structured analysis payload. Kept as tagged structs end to end so
// shape drift between the engine, the store and the export surface is
// a compile error, not a runtime surprise.

type TimelinePoint struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

type TimelineItem struct {
	Timestamp    string          `json:"timestamp"`
	EndTimestamp string          `json:"endTimestamp,omitempty"`
	Title        string          `json:"title,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Points       []TimelinePoint `json:"points,omitempty"`
}

// VisualAuditItem is produced by DEEP mode only.
type VisualAuditItem struct {
	Timestamp string `json:"timestamp"`
	Detail    string `json:"detail"`
	Type      string `json:"type"`
}

type ResultPayload struct {
	Title        string            `json:"title"`
	Summary      string            `json:"summary"`
	KeyTakeaways []string          `json:"keyTakeaways"`
	Timeline     []TimelineItem    `json:"timeline"`
	Keywords     []string          `json:"keywords"`
	VisualAudit  []VisualAuditItem `json:"visualAudit,omitempty"`
}
