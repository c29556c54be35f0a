package models

import "github.com/google/uuid"

// ImpactLevel represents the severity of a non-functional requirement
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "Low"
	ImpactMedium ImpactLevel = "Medium"
	ImpactHigh   ImpactLevel = "High"
)

// NFRCategory is one of the fixed requirement categories
type NFRCategory string

const (
	CategorySecurity       NFRCategory = "Security"
	CategoryPerformance    NFRCategory = "Performance"
	CategoryScalability    NFRCategory = "Scalability"
	CategoryAccessibility  NFRCategory = "Accessibility"
	CategoryPrivacy        NFRCategory = "Privacy"
	CategoryReliability    NFRCategory = "Reliability"
	CategoryStorage        NFRCategory = "Storage"
	CategoryInfrastructure NFRCategory = "Infrastructure"
)

// NFRCategories lists every valid category in display order
var NFRCategories = []NFRCategory{
	CategorySecurity,
	CategoryPerformance,
	CategoryScalability,
	CategoryAccessibility,
	CategoryPrivacy,
	CategoryReliability,
	CategoryStorage,
	CategoryInfrastructure,
}

// SubtaskType classifies a subtask by the kind of work it represents
type SubtaskType string

const (
	SubtaskBackend  SubtaskType = "Backend"
	SubtaskFrontend SubtaskType = "Frontend"
	SubtaskTesting  SubtaskType = "Testing"
	SubtaskDevOps   SubtaskType = "DevOps"
	SubtaskDocs     SubtaskType = "Docs"
)

// CardStatus is the lifecycle state of a project card
type CardStatus string

const (
	StatusDraft    CardStatus = "Draft"
	StatusReady    CardStatus = "Ready"
	StatusExported CardStatus = "Exported"
)

// FibonacciPoints is the allowed story point scale
var FibonacciPoints = []int{1, 2, 3, 5, 8, 13}

// IsFibonacciPoints reports whether n is on the estimation scale
func IsFibonacciPoints(n int) bool {
	for _, p := range FibonacciPoints {
		if n == p {
			return true
		}
	}
	return false
}

// Idea represents a free-form brainstormed note
type Idea struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// NewIdea creates an idea with a fresh identifier
func NewIdea(content, category string) Idea {
	return Idea{ID: uuid.NewString(), Content: content, Category: category}
}

// Attachment represents a user-provided file. Payload carries the file bytes
// in base64; it is decoded only at the point of use.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Payload  string `json:"payload"`
}

// NewAttachment creates an attachment with a fresh identifier
func NewAttachment(name, mimeType, payload string) Attachment {
	return Attachment{ID: uuid.NewString(), Name: name, MimeType: mimeType, Payload: payload}
}

// NFR represents a non-functional requirement
type NFR struct {
	ID          string      `json:"id"`
	Category    NFRCategory `json:"category"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImpactLevel ImpactLevel `json:"impactLevel"`
}

// NewNFR creates a requirement with a fresh identifier
func NewNFR(category NFRCategory, title, description string, impact ImpactLevel) NFR {
	return NFR{
		ID:          uuid.NewString(),
		Category:    category,
		Title:       title,
		Description: description,
		ImpactLevel: impact,
	}
}

// Subtask is a unit of work owned by a project card
type Subtask struct {
	Title       string      `json:"title"`
	Type        SubtaskType `json:"type"`
	StoryPoints int         `json:"storyPoints"`
	Completed   bool        `json:"completed"`
}

// ProjectCard represents a backlog item
type ProjectCard struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	AcceptanceCriteria []string   `json:"acceptanceCriteria"`
	Subtasks           []Subtask  `json:"subtasks"`
	TotalStoryPoints   int        `json:"totalStoryPoints"`
	Justification      string     `json:"justification"`
	Labels             []string   `json:"labels"`
	Risks              []string   `json:"risks"`
	Status             CardStatus `json:"status"`
}

// NewCard creates a draft card carrying only a title. Every list field is
// initialized empty rather than nil so the card serializes as [] on the wire.
func NewCard(title string) ProjectCard {
	return ProjectCard{
		ID:                 uuid.NewString(),
		Title:              title,
		AcceptanceCriteria: []string{},
		Subtasks:           []Subtask{},
		Labels:             []string{},
		Risks:              []string{},
		Status:             StatusDraft,
	}
}

// SubtaskPoints sums story points over the card's subtasks. The stored
// TotalStoryPoints may diverge after a manual override; no consistency is
// enforced between the two.
func (c *ProjectCard) SubtaskPoints() int {
	total := 0
	for _, s := range c.Subtasks {
		total += s.StoryPoints
	}
	return total
}

// GenerationOptions controls which task categories the card prompt requires
// and which estimation framing it uses
type GenerationOptions struct {
	IncludeBackend     bool `json:"includeBackend"`
	IncludeFrontend    bool `json:"includeFrontend"`
	IncludeTesting     bool `json:"includeTesting"`
	IncludeDocs        bool `json:"includeDocs"`
	DetailedEstimation bool `json:"detailedEstimation"`
}

// CsvColumn is an export-time view of one card field. Field is a ProjectCard
// field name or one of the computed pseudo-fields "subtasks_count" and
// "issue_type".
type CsvColumn struct {
	ID      string `json:"id"`
	Header  string `json:"header"`
	Field   string `json:"field"`
	Enabled bool   `json:"enabled"`
}
