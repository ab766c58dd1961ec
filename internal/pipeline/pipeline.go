// Package pipeline composes retrieval, rule-based reasoning and LLM
// verbalization into a single explanation for a student's answer.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/pavelanni/mcqxai/internal/llm"
	"github.com/pavelanni/mcqxai/internal/llm/prompts"
	"github.com/pavelanni/mcqxai/internal/model"
	"github.com/pavelanni/mcqxai/internal/reasoner"
	"github.com/pavelanni/mcqxai/internal/retrieval"
)

// evidenceTopK is the number of lecture paragraphs used as evidence.
const evidenceTopK = 1

// ProviderFactory builds the default provider when the caller supplies none.
type ProviderFactory func(ctx context.Context) (llm.Provider, error)

// Explainer runs the explanation pipeline. It holds no per-call state and
// is safe for concurrent use.
type Explainer struct {
	retriever   *retrieval.Retriever
	texts       reasoner.Texts
	newProvider ProviderFactory
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithRetriever replaces the default retriever.
func WithRetriever(r *retrieval.Retriever) Option {
	return func(e *Explainer) { e.retriever = r }
}

// WithTexts sets the rule-based feedback texts.
func WithTexts(t reasoner.Texts) Option {
	return func(e *Explainer) { e.texts = t }
}

// WithProviderConfig makes the default provider come from cfg.
func WithProviderConfig(cfg llm.Config) Option {
	return func(e *Explainer) {
		e.newProvider = func(ctx context.Context) (llm.Provider, error) {
			return llm.NewProvider(ctx, cfg)
		}
	}
}

// WithProviderFactory sets how the default provider is built.
func WithProviderFactory(f ProviderFactory) Option {
	return func(e *Explainer) { e.newProvider = f }
}

// New creates an Explainer. Without a provider option the default
// DeepSeek configuration is used, which has no credential and therefore
// yields rule-based explanations only.
func New(opts ...Option) *Explainer {
	e := &Explainer{
		retriever: retrieval.New(),
		texts:     reasoner.DefaultTexts(),
	}
	WithProviderConfig(llm.DefaultConfig())(e)
	for _, o := range opts {
		o(e)
	}
	return e
}

// Localized returns a copy of e that uses t for rule-based feedback.
func (e *Explainer) Localized(t reasoner.Texts) *Explainer {
	c := *e
	c.texts = t
	return &c
}

// Run explains one answer. provider may be nil, in which case the default
// provider is constructed; if that fails the rule-based hint is returned.
// Provider errors never reach the caller.
func (e *Explainer) Run(ctx context.Context, req model.Request, provider llm.Provider) model.Result {
	var evidence string
	if found := e.retriever.Retrieve(req.Question, req.Documents, evidenceTopK); len(found) > 0 {
		evidence = found[0]
	}

	reasoning := e.texts.Classify(req.Question, req.StudentAnswer, req.CorrectAnswer, evidence)
	result := model.Result{
		Status:      reasoning.Status,
		Explanation: reasoning.ExplanationHint,
		Evidence:    evidence,
		ReviewTopic: reasoning.ReviewTopic,
	}

	if provider == nil {
		p, err := e.newProvider(ctx)
		if err != nil {
			slog.Warn("LLM provider unavailable, using rule-based explanation", "error", err)
			return result
		}
		provider = p
	}

	text, err := e.verbalize(ctx, provider, req, evidence, reasoning)
	if err != nil {
		slog.Warn("LLM generation failed, using rule-based explanation",
			"provider", provider.Name(),
			"error", err,
		)
		return result
	}

	result.Explanation = text
	return result
}

func (e *Explainer) verbalize(ctx context.Context, provider llm.Provider, req model.Request, evidence string, reasoning model.Reasoning) (string, error) {
	system, err := prompts.System()
	if err != nil {
		return "", err
	}
	user, err := prompts.User(prompts.UserData{
		Question:      req.Question,
		StudentAnswer: req.StudentAnswer,
		CorrectAnswer: req.CorrectAnswer,
		Evidence:      evidence,
		Reasoning:     reasoning,
	})
	if err != nil {
		return "", err
	}
	return provider.Generate(ctx, system, user)
}

// Run explains one answer with a default Explainer.
func Run(ctx context.Context, req model.Request, provider llm.Provider) model.Result {
	return New().Run(ctx, req, provider)
}
