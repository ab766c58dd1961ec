package reasoner

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pavelanni/mcqxai/internal/model"
)

const question = "What is the capital of France?"

func TestClassifyCorrect(t *testing.T) {
	tests := []struct {
		name    string
		student string
		correct string
	}{
		{"exact", "Paris", "Paris"},
		{"case and whitespace", "  paris ", "Paris"},
		{"upper", "PARIS", "paris"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(question, tt.student, tt.correct, "evidence")
			if got.Status != model.StatusCorrect {
				t.Errorf("status = %q, want correct", got.Status)
			}
			if got.ExplanationHint != DefaultTexts().CorrectHint {
				t.Errorf("hint = %q", got.ExplanationHint)
			}
			if got.ReviewTopic != DefaultTexts().CorrectReviewTopic {
				t.Errorf("review topic = %q", got.ReviewTopic)
			}
		})
	}
}

func TestClassifyIncorrectWithEvidence(t *testing.T) {
	evidence := strings.Repeat("abcdefghij", 15)
	got := Classify(question, "Berlin", "Paris", evidence)

	if got.Status != model.StatusIncorrect {
		t.Fatalf("status = %q, want incorrect", got.Status)
	}
	if got.ExplanationHint != DefaultTexts().IncorrectHint {
		t.Errorf("hint = %q", got.ExplanationHint)
	}
	if !strings.Contains(got.ReviewTopic, evidence[:100]+"...") {
		t.Errorf("review topic should quote first 100 characters of evidence: %q", got.ReviewTopic)
	}
	if strings.Contains(got.ReviewTopic, evidence[:101]) {
		t.Errorf("review topic quotes more than 100 characters: %q", got.ReviewTopic)
	}
}

func TestClassifyIncorrectShortEvidence(t *testing.T) {
	got := Classify(question, "Berlin", "Paris", "Paris is the capital.")
	if !strings.Contains(got.ReviewTopic, "Paris is the capital....") {
		t.Errorf("review topic = %q", got.ReviewTopic)
	}
}

func TestClassifyIncorrectNoEvidence(t *testing.T) {
	got := Classify(question, "Berlin", "Paris", "")
	if got.ReviewTopic != DefaultTexts().GenericReviewTopic {
		t.Errorf("review topic = %q, want generic topic", got.ReviewTopic)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	a := Classify(question, "Berlin", "Paris", "Some lecture text")
	b := Classify(question, "Berlin", "Paris", "Some lecture text")
	if a != b {
		t.Errorf("Classify not deterministic: %+v vs %+v", a, b)
	}
}

func TestPreviewMultibyte(t *testing.T) {
	evidence := strings.Repeat("ж", 150)
	p := Preview(evidence)
	if !utf8.ValidString(p) {
		t.Fatalf("preview is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(p, "...")); n != EvidencePreviewLen {
		t.Errorf("preview has %d runes, want %d", n, EvidencePreviewLen)
	}
}

func TestCustomTexts(t *testing.T) {
	texts := DefaultTexts()
	texts.IncorrectHint = "Nope."
	texts.EvidenceReviewTopic = func(s string) string { return "See: " + s }

	got := texts.Classify(question, "Berlin", "Paris", "Lecture 1")
	if got.ExplanationHint != "Nope." {
		t.Errorf("hint = %q", got.ExplanationHint)
	}
	if got.ReviewTopic != "See: Lecture 1..." {
		t.Errorf("review topic = %q", got.ReviewTopic)
	}
}
