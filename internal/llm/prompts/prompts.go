package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/mcqxai/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxAnswerRunes = 10000

var (
	loadOnce     sync.Once
	loadErr      error
	systemPrompt string
	userTemplate *template.Template
)

// UserData holds template data for the user prompt.
type UserData struct {
	Question      string
	StudentAnswer string
	CorrectAnswer string
	Evidence      string
	Reasoning     model.Reasoning
}

func load() error {
	loadOnce.Do(func() {
		sys, err := templateFS.ReadFile("templates/system.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file system.txt: " + err.Error())
			return
		}
		systemPrompt = strings.TrimSpace(string(sys))

		usr, err := templateFS.ReadFile("templates/user.txt")
		if err != nil {
			loadErr = errors.New("failed to read prompt file user.txt: " + err.Error())
			return
		}
		userTemplate, err = template.New("user").Parse(string(usr))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template user.txt: " + err.Error())
		}
	})
	return loadErr
}

// System returns the fixed system instruction.
func System() (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	return systemPrompt, nil
}

// User renders the user prompt for one explanation request. The student
// answer is sanitized before embedding.
func User(data UserData) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}

	data.StudentAnswer = sanitizeAnswer(data.StudentAnswer)

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		runes = runes[:maxAnswerRunes]
		answer = string(runes) + "\n\n[Answer truncated due to length]"
	}

	return answer
}
