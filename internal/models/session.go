package models

import "time"

// Session is the working state of one requirements-engineering workspace:
// ideas, attachments, requirements, cards and the generated reports. It lives
// in a JSON file between CLI invocations and is discarded when that file is
// removed.
type Session struct {
	Ideas       []Idea        `json:"ideas"`
	Attachments []Attachment  `json:"attachments"`
	NFRs        []NFR         `json:"nfrs"`
	Cards       []ProjectCard `json:"cards"`
	Summary     string        `json:"summary,omitempty"`
	RiskReport  string        `json:"riskReport,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewSession returns an empty workspace
func NewSession() *Session {
	return &Session{
		Ideas:       []Idea{},
		Attachments: []Attachment{},
		NFRs:        []NFR{},
		Cards:       []ProjectCard{},
	}
}

// Touch updates the modification timestamp
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// AddIdea appends a new idea and returns it
func (s *Session) AddIdea(content, category string) Idea {
	idea := NewIdea(content, category)
	s.Ideas = append(s.Ideas, idea)
	s.Touch()
	return idea
}

// RemoveIdea deletes the idea with the given id, reporting whether it existed
func (s *Session) RemoveIdea(id string) bool {
	for i, idea := range s.Ideas {
		if idea.ID == id {
			s.Ideas = append(s.Ideas[:i], s.Ideas[i+1:]...)
			s.Touch()
			return true
		}
	}
	return false
}

// AddAttachment appends a new attachment and returns it
func (s *Session) AddAttachment(name, mimeType, payload string) Attachment {
	att := NewAttachment(name, mimeType, payload)
	s.Attachments = append(s.Attachments, att)
	s.Touch()
	return att
}

// RemoveAttachment deletes the attachment with the given id
func (s *Session) RemoveAttachment(id string) bool {
	for i, att := range s.Attachments {
		if att.ID == id {
			s.Attachments = append(s.Attachments[:i], s.Attachments[i+1:]...)
			s.Touch()
			return true
		}
	}
	return false
}

// AddNFR appends a requirement
func (s *Session) AddNFR(nfr NFR) {
	s.NFRs = append(s.NFRs, nfr)
	s.Touch()
}

// AddCard appends a card
func (s *Session) AddCard(card ProjectCard) {
	s.Cards = append(s.Cards, card)
	s.Touch()
}

// UpsertCard replaces the card with a matching id, or appends it
func (s *Session) UpsertCard(card ProjectCard) {
	for i, existing := range s.Cards {
		if existing.ID == card.ID {
			s.Cards[i] = card
			s.Touch()
			return
		}
	}
	s.AddCard(card)
}

// CardByTitle finds a card by exact title
func (s *Session) CardByTitle(title string) *ProjectCard {
	for i := range s.Cards {
		if s.Cards[i].Title == title {
			return &s.Cards[i]
		}
	}
	return nil
}

// ReadyCards returns the cards eligible for export
func (s *Session) ReadyCards() []ProjectCard {
	var ready []ProjectCard
	for _, card := range s.Cards {
		if card.Status == StatusReady {
			ready = append(ready, card)
		}
	}
	return ready
}

// MarkExported transitions every Ready card to Exported and returns how many
// cards changed. Export itself never mutates status; this is a separate,
// explicit step.
func (s *Session) MarkExported() int {
	count := 0
	for i := range s.Cards {
		if s.Cards[i].Status == StatusReady {
			s.Cards[i].Status = StatusExported
			count++
		}
	}
	if count > 0 {
		s.Touch()
	}
	return count
}
