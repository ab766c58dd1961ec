package model

// Status is the correctness verdict for a student's answer.
type Status string

const (
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
)

// Reasoning is the deterministic verdict produced before any LLM call.
type Reasoning struct {
	Status          Status `json:"status"`
	ExplanationHint string `json:"explanation_hint"`
	ReviewTopic     string `json:"review_topic"`
}

// Request holds the inputs of a single explanation run.
type Request struct {
	Question      string   `json:"question"`
	StudentAnswer string   `json:"student_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Documents     []string `json:"documents"`
}

// Result is the externally visible output of a pipeline run.
type Result struct {
	Status      Status `json:"status"`
	Explanation string `json:"explanation"`
	Evidence    string `json:"evidence"`
	ReviewTopic string `json:"review_topic"`
}

// Paragraph is a stored lecture paragraph.
type Paragraph struct {
	ID       int64  `json:"id"`
	Source   string `json:"source"`
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// Texts returns the paragraph texts in order.
func Texts(paras []Paragraph) []string {
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		out = append(out, p.Text)
	}
	return out
}
