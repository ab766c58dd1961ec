package model

import "time"

// LectureExport is the JSON export of the lecture store.
type LectureExport struct {
	ExportedAt     time.Time       `json:"exported_at"`
	ParagraphCount int             `json:"paragraph_count"`
	Sources        []LectureSource `json:"sources"`
}

// LectureSource holds the paragraphs imported from one source.
type LectureSource struct {
	Source     string   `json:"source"`
	SHA256     string   `json:"sha256,omitempty"`
	Paragraphs []string `json:"paragraphs"`
}
