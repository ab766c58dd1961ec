// Package reasoner classifies a student's answer and produces the
// rule-based hint that backs every explanation.
package reasoner

import (
	"strings"

	"github.com/pavelanni/mcqxai/internal/model"
)

// EvidencePreviewLen is the number of characters of evidence quoted in the
// review topic.
const EvidencePreviewLen = 100

// Texts holds the fixed feedback texts. EvidenceReviewTopic receives the
// truncated evidence, already suffixed with "...".
type Texts struct {
	CorrectHint         string
	CorrectReviewTopic  string
	IncorrectHint       string
	GenericReviewTopic  string
	EvidenceReviewTopic func(snippet string) string
}

// DefaultTexts returns the English feedback texts.
func DefaultTexts() Texts {
	return Texts{
		CorrectHint:        "Your answer is correct! You have a good understanding of this concept.",
		CorrectReviewTopic: "You have mastered this topic. Consider reviewing related advanced concepts.",
		IncorrectHint: "Your answer is incorrect. The selected option appears to be related to a different " +
			"concept than what the question is focusing on. Please review the lecture material " +
			"related to this topic.",
		GenericReviewTopic: "You should review the lecture section mentioned in the evidence. " +
			"Pay special attention to the key concepts and definitions related to this question.",
		EvidenceReviewTopic: func(snippet string) string {
			return "You should review the lecture section mentioned in the evidence: " +
				snippet + " (if applicable). " +
				"Focus on understanding the key concepts and their relationships."
		},
	}
}

// Classify compares the answers with DefaultTexts.
func Classify(question, studentAnswer, correctAnswer, evidence string) model.Reasoning {
	return DefaultTexts().Classify(question, studentAnswer, correctAnswer, evidence)
}

// Classify compares the normalized answers and builds the reasoning record.
// The question is accepted for symmetry with the pipeline but does not
// influence the verdict.
func (t Texts) Classify(_, studentAnswer, correctAnswer, evidence string) model.Reasoning {
	if normalize(studentAnswer) == normalize(correctAnswer) {
		return model.Reasoning{
			Status:          model.StatusCorrect,
			ExplanationHint: t.CorrectHint,
			ReviewTopic:     t.CorrectReviewTopic,
		}
	}

	topic := t.GenericReviewTopic
	if evidence != "" && t.EvidenceReviewTopic != nil {
		topic = t.EvidenceReviewTopic(Preview(evidence))
	}
	return model.Reasoning{
		Status:          model.StatusIncorrect,
		ExplanationHint: t.IncorrectHint,
		ReviewTopic:     topic,
	}
}

// Preview returns the first EvidencePreviewLen characters of evidence
// followed by "...". Characters are counted as runes.
func Preview(evidence string) string {
	runes := []rune(evidence)
	if len(runes) > EvidencePreviewLen {
		runes = runes[:EvidencePreviewLen]
	}
	return string(runes) + "..."
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
