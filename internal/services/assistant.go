package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"clarityhub/internal/attachments"
	"clarityhub/internal/config"
	"clarityhub/internal/helpers"
	"clarityhub/internal/models"
	"clarityhub/internal/repositories"
)

// ParseError indicates a model response that was not valid JSON after
// normalization. Raw and normalized text are retained for diagnostics.
type ParseError struct {
	Raw        string
	Normalized string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v\nResponse: %s", e.Err, e.Normalized)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DeltaFunc receives incremental text while a streamed operation is in
// flight. A nil DeltaFunc selects single-shot mode.
type DeltaFunc func(delta string)

// AssistantService composes prompt assembly, transport, normalization, and
// typed decoding into the five assistant operations. Each call is stateless
// given its inputs; no retries happen here.
type AssistantService struct {
	repo *repositories.ChatRepository
}

// NewAssistantService creates an assistant over the configured chat endpoint
func NewAssistantService(cfg *config.Config) *AssistantService {
	return &AssistantService{
		repo: repositories.NewChatRepository(&cfg.API),
	}
}

// complete runs one exchange, streaming through onDelta when provided and
// accumulating the full text either way.
func (s *AssistantService) complete(ctx context.Context, messages []repositories.Message, jsonMode bool, onDelta DeltaFunc) (string, error) {
	if onDelta == nil {
		return s.repo.Complete(ctx, messages, jsonMode)
	}

	events, err := s.repo.CompleteStream(ctx, messages, jsonMode)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for event := range events {
		if event.Err != nil {
			return "", event.Err
		}
		full.WriteString(event.Delta)
		onDelta(event.Delta)
	}

	if full.Len() == 0 {
		return "", repositories.ErrEmptyResponse
	}
	return full.String(), nil
}

// SummarizeIdeas sends the session's ideas and attachments to the model and
// returns an executive summary in Markdown. Word and spreadsheet attachments
// are extracted to text and inlined; an extraction failure is downgraded to
// an inline note rather than aborting the operation. Images are passed as
// inline multimodal content.
func (s *AssistantService) SummarizeIdeas(ctx context.Context, ideas []models.Idea, files []models.Attachment, onDelta DeltaFunc) (string, error) {
	var docs []DocumentContext
	var images []models.Attachment

	for _, att := range files {
		switch attachments.Classify(att.MimeType, att.Name) {
		case attachments.KindWord, attachments.KindSpreadsheet:
			text, err := attachments.ExtractText(att)
			if err != nil {
				helpers.PrintWarning("Skipping text extraction for %s: %v", att.Name, err)
				text = "could not extract text"
			}
			docs = append(docs, DocumentContext{Name: att.Name, Text: text})
		case attachments.KindImage:
			images = append(images, att)
		}
	}

	prompt := SummaryPrompt(ideas, docs, files)

	var messages []repositories.Message
	if len(images) > 0 {
		parts := []repositories.ContentPart{repositories.TextPart(prompt)}
		for _, img := range images {
			parts = append(parts, repositories.ImagePart(attachments.DataURL(img)))
		}
		messages = []repositories.Message{repositories.MultimodalMessage("user", parts)}
	} else {
		messages = []repositories.Message{repositories.TextMessage("user", prompt)}
	}

	return s.complete(ctx, messages, false, onDelta)
}

// AnalyzeRisks returns a Markdown report of conflicts and technical risks
// across the given requirements.
func (s *AssistantService) AnalyzeRisks(ctx context.Context, nfrs []models.NFR, onDelta DeltaFunc) (string, error) {
	messages := []repositories.Message{repositories.TextMessage("user", RiskPrompt(nfrs))}
	return s.complete(ctx, messages, false, onDelta)
}

// generatedCard mirrors the JSON shape the card prompt requests
type generatedCard struct {
	Description        string `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Subtasks           []struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		StoryPoints int    `json:"storyPoints"`
	} `json:"subtasks"`
	TotalStoryPoints int      `json:"totalStoryPoints"`
	Justification    string   `json:"justification"`
	Labels           []string `json:"labels"`
	Risks            []string `json:"risks"`
}

// GenerateCard produces a fully specified card for the given title. The
// decoded result is merged into a fresh card whose status is forced to Ready.
func (s *AssistantService) GenerateCard(ctx context.Context, title string, ideas []models.Idea, nfrs []models.NFR, options models.GenerationOptions, onDelta DeltaFunc) (*models.ProjectCard, error) {
	prompt := CardPrompt(title, ideas, nfrs, options)
	messages := []repositories.Message{repositories.TextMessage("user", prompt)}

	raw, err := s.complete(ctx, messages, true, onDelta)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeJSON(raw)

	var generated generatedCard
	if err := json.Unmarshal([]byte(normalized), &generated); err != nil {
		return nil, &ParseError{Raw: raw, Normalized: normalized, Err: err}
	}

	card := models.NewCard(title)
	card.Description = generated.Description
	if len(generated.AcceptanceCriteria) > 0 {
		card.AcceptanceCriteria = generated.AcceptanceCriteria
	}
	for _, sub := range generated.Subtasks {
		card.Subtasks = append(card.Subtasks, models.Subtask{
			Title:       sub.Title,
			Type:        models.SubtaskType(sub.Type),
			StoryPoints: sub.StoryPoints,
		})
	}
	card.TotalStoryPoints = generated.TotalStoryPoints
	if card.TotalStoryPoints == 0 {
		card.TotalStoryPoints = card.SubtaskPoints()
	}
	card.Justification = generated.Justification
	if len(generated.Labels) > 0 {
		card.Labels = generated.Labels
	}
	if len(generated.Risks) > 0 {
		card.Risks = generated.Risks
	}
	card.Status = models.StatusReady

	return &card, nil
}

// nfrTitlePrefix matches titles that already carry sequential numbering
var nfrTitlePrefix = regexp.MustCompile(`^NFR-\d+:`)

// NumberNFRTitles enforces the sequential "NFR-N:" prefix across a generated
// batch, prepending it when absent. Titles that already match the pattern
// are kept verbatim.
func NumberNFRTitles(nfrs []models.NFR) {
	for i := range nfrs {
		if !nfrTitlePrefix.MatchString(nfrs[i].Title) {
			nfrs[i].Title = fmt.Sprintf("NFR-%d: %s", i+1, nfrs[i].Title)
		}
	}
}

// GenerateNFRs derives non-functional requirements from a summary. Every
// item receives a fresh id; missing categories default to Security, missing
// impact levels to Medium, and the "NFR-N:" numbering is re-applied locally
// instead of being trusted from the model.
func (s *AssistantService) GenerateNFRs(ctx context.Context, summary string, ideas []models.Idea) ([]models.NFR, error) {
	messages := []repositories.Message{repositories.TextMessage("user", NFRsPrompt(summary, ideas))}

	raw, err := s.complete(ctx, messages, true, nil)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeJSON(raw)

	var payload struct {
		NFRs []struct {
			Category    string `json:"category"`
			Title       string `json:"title"`
			Description string `json:"description"`
			ImpactLevel string `json:"impactLevel"`
		} `json:"nfrs"`
	}
	if err := json.Unmarshal([]byte(normalized), &payload); err != nil {
		return nil, &ParseError{Raw: raw, Normalized: normalized, Err: err}
	}

	nfrs := make([]models.NFR, 0, len(payload.NFRs))
	for _, item := range payload.NFRs {
		category := models.NFRCategory(item.Category)
		if category == "" {
			category = models.CategorySecurity
		}
		impact := models.ImpactLevel(item.ImpactLevel)
		if impact == "" {
			impact = models.ImpactMedium
		}
		nfrs = append(nfrs, models.NewNFR(category, item.Title, item.Description, impact))
	}

	NumberNFRTitles(nfrs)
	return nfrs, nil
}

// GenerateCards derives draft backlog cards from a summary. Each card gets a
// fresh id, empty list fields, and Draft status; detailing them is left to
// GenerateCard.
func (s *AssistantService) GenerateCards(ctx context.Context, summary string, ideas []models.Idea, nfrs []models.NFR) ([]models.ProjectCard, error) {
	messages := []repositories.Message{repositories.TextMessage("user", CardsPrompt(summary, ideas, nfrs))}

	raw, err := s.complete(ctx, messages, true, nil)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeJSON(raw)

	var payload struct {
		Cards []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"cards"`
	}
	if err := json.Unmarshal([]byte(normalized), &payload); err != nil {
		return nil, &ParseError{Raw: raw, Normalized: normalized, Err: err}
	}

	cards := make([]models.ProjectCard, 0, len(payload.Cards))
	for i, item := range payload.Cards {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = fmt.Sprintf("Work Item %d", i+1)
		}
		card := models.NewCard(title)
		card.Description = item.Description
		cards = append(cards, card)
	}

	return cards, nil
}
