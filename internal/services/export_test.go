package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarityhub/internal/models"
)

func TestRenderCSVExactOutput(t *testing.T) {
	cards := []models.ProjectCard{
		{Title: `Say "Hi"`, TotalStoryPoints: 3, Status: models.StatusReady},
	}
	columns := []models.CsvColumn{
		{ID: "1", Header: "title", Field: "title", Enabled: true},
		{ID: "2", Header: "totalStoryPoints", Field: "totalStoryPoints", Enabled: true},
	}

	got := RenderCSV(cards, columns, ";")
	assert.Equal(t, "\"title\";\"totalStoryPoints\"\n\"Say \"\"Hi\"\"\";\"3\"", got)
}

func TestRenderCSVExcludesNonReadyCards(t *testing.T) {
	cards := []models.ProjectCard{
		{Title: "draft card", Status: models.StatusDraft},
		{Title: "ready card", Status: models.StatusReady},
		{Title: "exported card", Status: models.StatusExported},
	}

	got := RenderCSV(cards, DefaultColumns(), ",")
	assert.NotContains(t, got, "draft card")
	assert.NotContains(t, got, "exported card")
	assert.Contains(t, got, "ready card")
	require.Len(t, strings.Split(got, "\n"), 2)
}

func TestRenderCSVDraftNeverExported(t *testing.T) {
	card := models.NewCard("secret draft")
	card.Description = "should not appear"

	allFields := []string{
		"id", "title", "description", "acceptanceCriteria", "totalStoryPoints",
		"justification", "labels", "risks", "status", "issue_type", "subtasks_count",
	}
	var columns []models.CsvColumn
	for i, field := range allFields {
		columns = append(columns, models.CsvColumn{ID: string(rune('a' + i)), Header: field, Field: field, Enabled: true})
	}

	got := RenderCSV([]models.ProjectCard{card}, columns, ",")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 1, "only the header row should be present")
	assert.NotContains(t, got, "secret draft")
}

func TestRenderCSVPseudoFieldsAndLists(t *testing.T) {
	card := models.NewCard("Login")
	card.Status = models.StatusReady
	card.Subtasks = []models.Subtask{
		{Title: "API", Type: models.SubtaskBackend, StoryPoints: 3},
		{Title: "Form", Type: models.SubtaskFrontend, StoryPoints: 2},
	}
	card.Labels = []string{"auth", "mvp"}

	columns := []models.CsvColumn{
		{ID: "1", Header: "Issue Type", Field: "issue_type", Enabled: true},
		{ID: "2", Header: "Subtasks Count", Field: "subtasks_count", Enabled: true},
		{ID: "3", Header: "Labels", Field: "labels", Enabled: true},
		{ID: "4", Header: "Skipped", Field: "title", Enabled: false},
	}

	got := RenderCSV([]models.ProjectCard{card}, columns, ",")
	assert.Equal(t, "\"Issue Type\",\"Subtasks Count\",\"Labels\"\n\"Story\",\"2\",\"auth, mvp\"", got)
}

func TestDefaultColumnsAllEnabled(t *testing.T) {
	for _, col := range DefaultColumns() {
		assert.True(t, col.Enabled, col.Field)
	}
}

func TestExportFilenamePattern(t *testing.T) {
	name := ExportFilename()
	assert.True(t, strings.HasPrefix(name, "clarity_export_"), name)
	assert.True(t, strings.HasSuffix(name, ".csv"), name)
}
