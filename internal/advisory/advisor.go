// Package advisory asks a generative text service for study material about projects.
//
// Every failure degrades to fixed fallback text. Nothing here returns an error to the caller.
package advisory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/catalog"
	"github.com/jon4hz/codevault/internal/config"
)

const (
	GuideErrorText        = "Error connecting to the AI tutor. Please try again later."
	GuideEmptyText        = "Unable to generate study guide at this time."
	ExplainErrorText      = "Downloads the source code to your local machine."
	ExplainEmptyText      = "Downloads the file."
	defaultModel          = "gemini-2.5-flash"
	defaultRequestTimeout = 20 * time.Second
)

// Advisor builds prompts and turns generator output into displayable text.
type Advisor struct {
	gen     Generator
	model   string
	timeout time.Duration
}

// New creates an advisor. A nil generator makes every call return its fallback text.
func New(cfg *config.AIConfig, gen Generator) *Advisor {
	a := &Advisor{
		gen:     gen,
		model:   defaultModel,
		timeout: defaultRequestTimeout,
	}
	if cfg != nil {
		if cfg.Model != "" {
			a.model = cfg.Model
		}
		if cfg.Timeout > 0 {
			a.timeout = cfg.Timeout
		}
	}
	return a
}

// NewFromConfig creates an advisor with a Gemini generator if an API key is configured.
func NewFromConfig(ctx context.Context, cfg *config.AIConfig) *Advisor {
	if !cfg.Enabled() {
		log.Info("No AI API key configured, study guides will show fallback text")
		return New(cfg, nil)
	}

	gen, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		log.Error("Failed to set up AI generator, study guides will show fallback text", "error", err)
		return New(cfg, nil)
	}
	return New(cfg, gen)
}

// Enabled reports whether the advisor talks to a generator at all.
func (a *Advisor) Enabled() bool {
	return a.gen != nil
}

// StudyGuide returns a markdown study guide for p.
func (a *Advisor) StudyGuide(ctx context.Context, p catalog.Project) string {
	return a.complete(ctx, "study guide", StudyGuidePrompt(p), GuideEmptyText, GuideErrorText)
}

// ExplainCommand returns a one-sentence explanation of a shell command.
func (a *Advisor) ExplainCommand(ctx context.Context, command string) string {
	return a.complete(ctx, "command explanation", ExplainPrompt(command), ExplainEmptyText, ExplainErrorText)
}

func (a *Advisor) complete(ctx context.Context, kind, prompt, emptyText, errorText string) string {
	if a.gen == nil {
		return errorText
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.gen.Generate(ctx, a.model, prompt)
	if err != nil {
		log.Error("AI request failed", "kind", kind, "model", a.model, "error", err)
		return errorText
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("AI returned no text", "kind", kind, "model", a.model)
		return emptyText
	}
	return text
}

// StudyGuidePrompt builds the study guide prompt for p.
func StudyGuidePrompt(p catalog.Project) string {
	var b strings.Builder
	b.WriteString("You are a senior coding instructor. Create a concise, markdown-formatted study guide for a student about to download this project.\n\n")
	fmt.Fprintf(&b, "Project Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Language: %s\n", p.Language)
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "File Structure:\n%s\n\n", p.FileStructure)
	b.WriteString("Please provide:\n")
	b.WriteString("1. Key Concepts they will learn.\n")
	b.WriteString("2. A specific \"Code to look for\" section based on the file structure.\n")
	b.WriteString("3. One challenge/modification they should try to implement after downloading.\n\n")
	b.WriteString("Keep it encouraging and technical.")
	return b.String()
}

// ExplainPrompt builds the prompt that asks for a one-sentence command explanation.
func ExplainPrompt(command string) string {
	return fmt.Sprintf("Explain this CLI command to a beginner student in one short sentence: `%s`", command)
}
