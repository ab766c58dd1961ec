// Package lectures loads lecture notes as paragraph-sized documents.
package lectures

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// Split breaks text into paragraphs on blank lines, trimming each and
// dropping empty ones.
func Split(text string) []string {
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFile reads path and splits it into paragraphs.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	paras := Split(string(data))
	if len(paras) == 0 {
		return nil, fmt.Errorf("%s contains no paragraphs", path)
	}
	return paras, nil
}

// Samples returns the built-in demo lecture paragraphs.
func Samples() []string {
	return []string{
		"Week 3: TF-IDF (Term Frequency-Inverse Document Frequency) is used to measure " +
			"how important a word is in a document relative to the entire corpus. It helps " +
			"identify keywords that are distinctive to a particular document.",
		"Week 5: Explainable AI (XAI) aims to provide transparency and human-understandable " +
			"reasons for model outputs. It helps users understand why an AI system made a " +
			"particular decision or prediction.",
		"Week 7: Text mining involves extracting useful information from unstructured text data. " +
			"Common techniques include tokenization, stemming, and vectorization methods like TF-IDF.",
	}
}

// Sample question used by the demo.
const (
	SampleQuestion      = "What is the main purpose of TF-IDF in text mining?"
	SampleCorrectAnswer = "To measure term importance in a document"
	SampleStudentAnswer = "To train a neural network"
)
