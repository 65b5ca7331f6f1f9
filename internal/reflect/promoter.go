package reflect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json5 "github.com/titanous/json5"

	"github.com/nextlevelbuilder/cogcore/internal/durablewrite"
	"github.com/nextlevelbuilder/cogcore/internal/providers"
)

// bootstrapSections maps each instruction file to the section header the
// promoter appends under by default (spec §4.6 / §9's four-file closed
// set, trimmed from the source's six).
var bootstrapSections = map[string]string{
	"AGENTS.md":   "## Self-Improvements from Reflection",
	"SOUL.md":     "## Learned Values",
	"IDENTITY.md": "## Adapted Identity",
	"TOOLS.md":    "## Learned Tool Behaviors",
}

// EditProposal is an LLM-generated edit to a bootstrap instruction file.
type EditProposal struct {
	TargetFile     string  `json:"target_file"`
	Section        string  `json:"section"`
	Content        string  `json:"content"`
	Reason         string  `json:"reason"`
	ReflectionType string  `json:"reflection_type"`
	Confidence     float64 `json:"confidence"`
}

func (p EditProposal) validate(targetFiles []string) []string {
	var errs []string
	if _, ok := bootstrapSections[p.TargetFile]; !ok {
		errs = append(errs, fmt.Sprintf("invalid target file: %s", p.TargetFile))
	}
	if strings.TrimSpace(p.Content) == "" {
		errs = append(errs, "content is required")
	}
	if strings.TrimSpace(p.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	allowed := false
	for _, f := range targetFiles {
		if f == p.TargetFile {
			allowed = true
			break
		}
	}
	if !allowed {
		errs = append(errs, fmt.Sprintf("%s is not in the configured target files", p.TargetFile))
	}
	return errs
}

type editExtraction struct {
	Edits []EditProposal `json:"edits"`
}

// Promoter applies reflection-driven edits to the agent's own instruction
// files, closing the self-improvement loop. A per-filename mutex
// serializes concurrent background tasks writing the same file (spec §9
// open question 3).
type Promoter struct {
	workspace    string
	provider     providers.Provider
	model        string
	targetFiles  []string
	maxFileLines int
	logger       *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewPromoter(workspace string, provider providers.Provider, model string, targetFiles []string, maxFileLines int, logger *slog.Logger) *Promoter {
	if logger == nil {
		logger = slog.Default()
	}
	if len(targetFiles) == 0 {
		for f := range bootstrapSections {
			targetFiles = append(targetFiles, f)
		}
	}
	if maxFileLines <= 0 {
		maxFileLines = 500
	}
	return &Promoter{
		workspace:    workspace,
		provider:     provider,
		model:        model,
		targetFiles:  targetFiles,
		maxFileLines: maxFileLines,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (p *Promoter) fileLock(filename string) *sync.Mutex {
	p.locksMu.Lock()
	defer p.locksMu.Unlock()
	l, ok := p.locks[filename]
	if !ok {
		l = &sync.Mutex{}
		p.locks[filename] = l
	}
	return l
}

func (p *Promoter) path(filename string) string {
	return filepath.Join(p.workspace, filename)
}

func (p *Promoter) readFile(filename string) (string, error) {
	data, err := os.ReadFile(p.path(filename))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Promoter) writeFile(filename, content string) error {
	dir := p.workspace
	if err := durablewrite.WriteFile(dir, p.path(filename), []byte(content), 0o644); err != nil {
		return err
	}
	p.logger.Info("reflect: bootstrap file updated", "file", filename)
	return nil
}

// ProposeEdits asks the model to turn findings into bootstrap edit
// proposals. If model is empty the promoter has nothing to propose with
// and returns an empty slice without error.
func (p *Promoter) ProposeEdits(ctx context.Context, findings []Finding) ([]EditProposal, error) {
	if len(findings) == 0 || p.model == "" {
		return nil, nil
	}

	var reflectionContext strings.Builder
	for i, f := range findings {
		tool := f.ToolInvolved
		if tool == "" {
			tool = "N/A"
		}
		suggestion := f.Suggestion
		if suggestion == "" {
			suggestion = "N/A"
		}
		fmt.Fprintf(&reflectionContext, "%d. [%s] %s\n   Content: %s\n   Tool: %s\n   Suggestion: %s\n",
			i+1, f.Kind, f.Title, f.Content, tool, suggestion)
	}

	prompt := "Analyze these reflections and propose bootstrap file updates.\n\n" +
		"Reflections:\n" + reflectionContext.String() + "\n\n" +
		"For each reflection, decide:\n" +
		"- Which bootstrap file should be updated (AGENTS.md, SOUL.md, IDENTITY.md, TOOLS.md)\n" +
		"- What instruction/value/behavior should be added\n" +
		"- Be specific and actionable\n\n" +
		"Target files and their purposes:\n" +
		"- AGENTS.md: Agent instructions and behavior guidelines\n" +
		"- SOUL.md: Core values and principles\n" +
		"- IDENTITY.md: Agent identity and interaction style\n" +
		"- TOOLS.md: Tool usage notes and caveats\n\n" +
		"Return proposals as JSON with 'edits' array.\n" +
		"Each edit must have: target_file, content, reason, reflection_type.\n" +
		"Optional: section, confidence."

	resp, err := p.provider.Chat(ctx, providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       p.model,
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		p.logger.Warn("reflect: bootstrap edit proposal generation failed", "error", err)
		return nil, nil
	}
	if resp.Content == "" {
		return nil, nil
	}

	start := strings.Index(resp.Content, "{")
	end := strings.LastIndex(resp.Content, "}")
	if start < 0 || end <= start {
		p.logger.Warn("reflect: bootstrap edit proposal response not valid JSON")
		return nil, nil
	}

	var extraction editExtraction
	if err := json5.Unmarshal([]byte(resp.Content[start:end+1]), &extraction); err != nil {
		p.logger.Warn("reflect: bootstrap edit proposal response not valid JSON", "error", err)
		return nil, nil
	}

	var proposals []EditProposal
	for _, e := range extraction.Edits {
		if e.Section == "" {
			e.Section = bootstrapSections[e.TargetFile]
		}
		if errs := e.validate(p.targetFiles); len(errs) > 0 {
			p.logger.Warn("reflect: bootstrap edit proposal validation failed", "reason", e.Reason, "errors", errs)
			continue
		}
		proposals = append(proposals, e)
	}
	return proposals, nil
}

// appendToSection inserts content at the end of section's existing block,
// or creates the section at file end if absent — the safe, append-only
// strategy (ported line-for-line from reflection.py's _append_to_section).
func (p *Promoter) appendToSection(filename, section, content string) (string, error) {
	existing, err := p.readFile(filename)
	if err != nil {
		return "", err
	}

	if !strings.Contains(existing, section) {
		separator := ""
		if existing != "" {
			separator = "\n\n"
		}
		return fmt.Sprintf("%s%s%s\n\n%s\n", existing, separator, section, content), nil
	}

	lines := strings.Split(existing, "\n")
	var out []string
	inSection := false
	for _, line := range lines {
		if strings.TrimSpace(line) == section {
			inSection = true
			out = append(out, line)
			continue
		}
		if inSection && strings.HasPrefix(line, "## ") && strings.TrimSpace(line) != section {
			out = append(out, "", content, "")
			inSection = false
		}
		out = append(out, line)
	}
	if inSection {
		out = append(out, "", content, "")
	}
	return strings.Join(out, "\n"), nil
}

// smartInsert lets the model decide placement within the file, falling
// back to appendToSection if the call fails or returns nothing usable
// (spec §7: ModelFailure downgrades bootstrap smart-insert to append).
func (p *Promoter) smartInsert(ctx context.Context, filename, section, content, reflectionType string) (string, error) {
	existing, err := p.readFile(filename)
	if err != nil {
		return "", err
	}
	if existing == "" {
		return fmt.Sprintf("%s\n\n%s\n", section, content), nil
	}

	truncated := existing
	if len(truncated) > 2000 {
		truncated = truncated[:2000]
	}
	prompt := fmt.Sprintf(
		"You are updating a bootstrap file '%s'.\n\nCurrent content:\n%s\n\nNew content to insert:\n%s\n\nReflection type: %s\n\nDecide: Should this content:\n1. Be appended to existing section '%s'\n2. Create a new section '%s' at the end\n3. Be inserted elsewhere (specify location)\n\nReturn ONLY the updated file content. No explanations.",
		filename, truncated, content, reflectionType, section, section,
	)

	resp, err := p.provider.Chat(ctx, providers.ChatRequest{
		Messages:    []providers.Message{{Role: "user", Content: prompt}},
		Model:       p.model,
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err == nil && resp != nil && strings.TrimSpace(resp.Content) != "" {
		return resp.Content, nil
	}
	if err != nil {
		p.logger.Warn("reflect: smart insert LLM failed, falling back to append", "error", err)
	}
	return p.appendToSection(filename, section, content)
}

// checkFileSizeAndArchive copies the file aside and trims it to 80% of
// maxFileLines once it exceeds the configured cap (spec §4.6).
func (p *Promoter) checkFileSizeAndArchive(filename string) error {
	path := p.path(filename)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) <= p.maxFileLines {
		return nil
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	archivePath := p.path(fmt.Sprintf("%s.archived.%s", filename, timestamp))
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		return err
	}
	p.logger.Info("reflect: archived oversized bootstrap file", "file", filename, "archive", filepath.Base(archivePath))

	keepLines := int(float64(p.maxFileLines) * 0.8)
	if keepLines > len(lines) {
		keepLines = len(lines)
	}
	trimmed := strings.Join(lines[len(lines)-keepLines:], "\n")
	if err := p.writeFile(filename, trimmed); err != nil {
		return err
	}
	p.logger.Info("reflect: trimmed bootstrap file", "file", filename, "lines", keepLines)
	return nil
}

// CheckFileSizes runs the size-triggered archival check across every
// configured target file outside of an edit, so a periodic maintenance
// sweep (spec §9 open question 3's "serialize per file" concern applies
// here too) can catch a file that grew past max_file_lines through
// means other than the promoter itself, e.g. direct edits.
func (p *Promoter) CheckFileSizes() error {
	for _, filename := range p.targetFiles {
		lock := p.fileLock(filename)
		lock.Lock()
		err := p.checkFileSizeAndArchive(filename)
		lock.Unlock()
		if err != nil {
			return fmt.Errorf("check size of %s: %w", filename, err)
		}
	}
	return nil
}

// ApplyEdits writes each proposal to its target file, serialized per
// filename, then checks for size-triggered archival.
func (p *Promoter) ApplyEdits(ctx context.Context, proposals []EditProposal, useSmartInsert bool) (map[string][]string, error) {
	applied := make(map[string][]string)
	for _, proposal := range proposals {
		lock := p.fileLock(proposal.TargetFile)
		lock.Lock()

		var updated string
		var err error
		if useSmartInsert {
			updated, err = p.smartInsert(ctx, proposal.TargetFile, proposal.Section, proposal.Content, proposal.ReflectionType)
		} else {
			updated, err = p.appendToSection(proposal.TargetFile, proposal.Section, proposal.Content)
		}
		if err != nil {
			lock.Unlock()
			p.logger.Error("reflect: failed to apply bootstrap edit", "reason", proposal.Reason, "error", err)
			continue
		}
		if err := p.writeFile(proposal.TargetFile, updated); err != nil {
			lock.Unlock()
			p.logger.Error("reflect: failed to write bootstrap file", "file", proposal.TargetFile, "error", err)
			continue
		}
		applied[proposal.TargetFile] = append(applied[proposal.TargetFile], proposal.Reason)

		if err := p.checkFileSizeAndArchive(proposal.TargetFile); err != nil {
			p.logger.Warn("reflect: archive check failed", "file", proposal.TargetFile, "error", err)
		}
		lock.Unlock()
	}
	return applied, nil
}

// PromoteReflections runs the full pipeline: propose, apply, notify.
func (p *Promoter) PromoteReflections(ctx context.Context, findings []Finding, notify func(string) error) (map[string][]string, error) {
	if len(findings) == 0 {
		return nil, nil
	}

	proposals, err := p.ProposeEdits(ctx, findings)
	if err != nil {
		return nil, err
	}
	if len(proposals) == 0 {
		p.logger.Debug("reflect: no bootstrap edit proposals generated", "findings", len(findings))
		return nil, nil
	}

	applied, err := p.ApplyEdits(ctx, proposals, true)
	if err != nil {
		return nil, err
	}

	if notify != nil && len(applied) > 0 {
		for filename, edits := range applied {
			var b strings.Builder
			fmt.Fprintf(&b, "Self-Improvement: Updated %s\n\nBased on recent reflections:\n", filename)
			for _, e := range edits {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			if err := notify(strings.TrimRight(b.String(), "\n")); err != nil {
				p.logger.Warn("reflect: failed to send bootstrap update notification", "error", err)
			}
		}
	}
	return applied, nil
}
