package services

import (
	"fmt"
	"strconv"
	"strings"

	"clarityhub/internal/helpers"
	"clarityhub/internal/models"
)

// DefaultColumns returns the standard export column set
func DefaultColumns() []models.CsvColumn {
	return []models.CsvColumn{
		{ID: "1", Header: "Summary", Field: "title", Enabled: true},
		{ID: "2", Header: "Description", Field: "description", Enabled: true},
		{ID: "3", Header: "Story Points", Field: "totalStoryPoints", Enabled: true},
		{ID: "4", Header: "Issue Type", Field: "issue_type", Enabled: true},
		{ID: "5", Header: "Subtasks Count", Field: "subtasks_count", Enabled: true},
	}
}

// ExportFilename generates the timestamped output filename
func ExportFilename() string {
	return fmt.Sprintf("clarity_export_%s.csv", helpers.GenerateTimestamp())
}

// RenderCSV renders the Ready cards into CSV text. Only enabled columns are
// emitted; every value is quote-wrapped with internal quotes doubled, and
// rows are joined by bare newlines with no trailing newline.
func RenderCSV(cards []models.ProjectCard, columns []models.CsvColumn, delimiter string) string {
	var enabled []models.CsvColumn
	for _, col := range columns {
		if col.Enabled {
			enabled = append(enabled, col)
		}
	}

	lines := make([]string, 0, len(cards)+1)

	header := make([]string, len(enabled))
	for i, col := range enabled {
		header[i] = quote(col.Header)
	}
	lines = append(lines, strings.Join(header, delimiter))

	for _, card := range cards {
		if card.Status != models.StatusReady {
			continue
		}
		row := make([]string, len(enabled))
		for i, col := range enabled {
			row[i] = quote(fieldValue(card, col.Field))
		}
		lines = append(lines, strings.Join(row, delimiter))
	}

	return strings.Join(lines, "\n")
}

func quote(val string) string {
	return `"` + strings.ReplaceAll(val, `"`, `""`) + `"`
}

// fieldValue maps a column field name onto a card value. List fields are
// flattened with ", "; the two pseudo-fields are computed here.
func fieldValue(card models.ProjectCard, field string) string {
	switch field {
	case "issue_type":
		return "Story"
	case "subtasks_count":
		return strconv.Itoa(len(card.Subtasks))
	case "id":
		return card.ID
	case "title":
		return card.Title
	case "description":
		return card.Description
	case "acceptanceCriteria":
		return strings.Join(card.AcceptanceCriteria, ", ")
	case "totalStoryPoints":
		return strconv.Itoa(card.TotalStoryPoints)
	case "justification":
		return card.Justification
	case "labels":
		return strings.Join(card.Labels, ", ")
	case "risks":
		return strings.Join(card.Risks, ", ")
	case "status":
		return string(card.Status)
	default:
		return ""
	}
}
