package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clarityhub/internal/attachments"
	"clarityhub/internal/config"
	"clarityhub/internal/helpers"
	"clarityhub/internal/models"
	"clarityhub/internal/services"
)

var (
	configFile  string
	sessionFile string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "clarityhub",
		Short: "ClarityHub - AI-assisted requirements engineering workspace",
		Long: `ClarityHub is a staged requirements-engineering assistant: capture ideas
and file attachments, generate summaries, NFR risk analyses, and estimated
backlog cards with an AI model, then export the cards as CSV.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&sessionFile, "session", "s", "clarity-session.json", "Session workspace file")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newIdeaCmd())
	rootCmd.AddCommand(newAttachCmd())
	rootCmd.AddCommand(newNfrCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newRisksCmd())
	rootCmd.AddCommand(newCardCmd())
	rootCmd.AddCommand(newNfrsCmd())
	rootCmd.AddCommand(newCardsCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		helpers.PrintError("Error: %v", err)
		os.Exit(1)
	}
}

// loadSession reads the session workspace, starting fresh when the file does
// not exist yet.
func loadSession() (*models.Session, error) {
	if !helpers.FileExists(sessionFile) {
		return models.NewSession(), nil
	}
	session := models.NewSession()
	if err := helpers.LoadJSON(sessionFile, session); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

func saveSession(session *models.Session) error {
	if err := helpers.SaveJSON(session, sessionFile); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// loadConfig loads the configuration and warns (without failing) when no API
// key is present; the request is allowed to fail at the transport layer.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasCredentials() {
		helpers.PrintWarning("No API key configured (set CLARITYHUB_API_KEY or api.key in %s); requests will likely be rejected", configFile)
	}
	return cfg, nil
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if helpers.FileExists(configFile) {
				return fmt.Errorf("configuration file already exists at %s", configFile)
			}
			if err := config.Default().Save(configFile); err != nil {
				return err
			}
			helpers.PrintSuccess("Configuration file created at %s", configFile)
			helpers.PrintInfo("Set your API key via CLARITYHUB_API_KEY or api.key before running AI commands")
			return nil
		},
	}
}

func newIdeaCmd() *cobra.Command {
	ideaCmd := &cobra.Command{
		Use:   "idea",
		Short: "Manage brainstormed ideas",
	}

	var category string
	addCmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Record a new idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			idea := session.AddIdea(args[0], category)
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Recorded idea %s", idea.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&category, "category", "", "Optional idea category")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			if len(session.Ideas) == 0 {
				helpers.PrintInfo("No ideas recorded")
				return nil
			}
			for i, idea := range session.Ideas {
				label := idea.Content
				if idea.Category != "" {
					label = fmt.Sprintf("[%s] %s", idea.Category, idea.Content)
				}
				helpers.PrintInfo("%d. %s (%s)", i+1, label, idea.ID)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			if !session.RemoveIdea(args[0]) {
				return fmt.Errorf("no idea with id %s", args[0])
			}
			return saveSession(session)
		},
	}

	ideaCmd.AddCommand(addCmd, listCmd, removeCmd)
	return ideaCmd
}

func newAttachCmd() *cobra.Command {
	attachCmd := &cobra.Command{
		Use:   "attach",
		Short: "Manage file attachments",
	}

	addCmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Attach a file to the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			name := filepath.Base(args[0])
			mimeType := mime.TypeByExtension(filepath.Ext(name))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			session, err := loadSession()
			if err != nil {
				return err
			}
			att := session.AddAttachment(name, mimeType, attachments.Encode(data))
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Attached %s (%s, %d bytes) as %s", name, mimeType, len(data), att.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			if len(session.Attachments) == 0 {
				helpers.PrintInfo("No attachments")
				return nil
			}
			for i, att := range session.Attachments {
				kind := attachments.Classify(att.MimeType, att.Name)
				helpers.PrintInfo("%d. %s (%s, %s) (%s)", i+1, att.Name, att.MimeType, kind, att.ID)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			if !session.RemoveAttachment(args[0]) {
				return fmt.Errorf("no attachment with id %s", args[0])
			}
			return saveSession(session)
		},
	}

	attachCmd.AddCommand(addCmd, listCmd, removeCmd)
	return attachCmd
}

func newNfrCmd() *cobra.Command {
	nfrCmd := &cobra.Command{
		Use:   "nfr",
		Short: "Manage non-functional requirements",
	}

	var category, description, impact string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Record a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			session.AddNFR(models.NewNFR(
				models.NFRCategory(category),
				args[0],
				description,
				models.ImpactLevel(impact),
			))
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Recorded requirement: %s", args[0])
			return nil
		},
	}
	addCmd.Flags().StringVar(&category, "category", string(models.CategorySecurity), "Requirement category")
	addCmd.Flags().StringVar(&description, "desc", "", "Requirement description")
	addCmd.Flags().StringVar(&impact, "impact", string(models.ImpactMedium), "Impact level (Low, Medium, High)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}
			if len(session.NFRs) == 0 {
				helpers.PrintInfo("No requirements recorded")
				return nil
			}
			for i, nfr := range session.NFRs {
				helpers.PrintInfo("%d. [%s - %s] %s: %s", i+1, nfr.Category, nfr.ImpactLevel, nfr.Title, nfr.Description)
			}
			return nil
		},
	}

	nfrCmd.AddCommand(addCmd, listCmd)
	return nfrCmd
}

func newSummarizeCmd() *cobra.Command {
	var stream bool
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate an executive summary of ideas and attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, err := loadSession()
			if err != nil {
				return err
			}
			if len(session.Ideas) == 0 && len(session.Attachments) == 0 {
				return fmt.Errorf("nothing to summarize: record ideas or attachments first")
			}

			assistant := services.NewAssistantService(cfg)
			helpers.PrintTitle("Analyzing Context & Files")

			var onDelta services.DeltaFunc
			if stream {
				onDelta = helpers.PrintDelta
			}

			summary, err := assistant.SummarizeIdeas(cmd.Context(), session.Ideas, session.Attachments, onDelta)
			if err != nil {
				return fmt.Errorf("failed to generate summary: %w", err)
			}
			if stream {
				fmt.Println()
			} else {
				fmt.Println(summary)
			}

			session.Summary = summary
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Summary saved to session")
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the response as it is generated")
	return cmd
}

func newRisksCmd() *cobra.Command {
	var stream bool
	cmd := &cobra.Command{
		Use:   "risks",
		Short: "Analyze conflicts and risks across the recorded requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, err := loadSession()
			if err != nil {
				return err
			}
			if len(session.NFRs) == 0 {
				return fmt.Errorf("no requirements recorded: add NFRs first")
			}

			assistant := services.NewAssistantService(cfg)
			helpers.PrintTitle("Analyzing Non-Functional Requirements")

			var onDelta services.DeltaFunc
			if stream {
				onDelta = helpers.PrintDelta
			}

			report, err := assistant.AnalyzeRisks(cmd.Context(), session.NFRs, onDelta)
			if err != nil {
				return fmt.Errorf("failed to analyze risks: %w", err)
			}
			if stream {
				fmt.Println()
			} else {
				fmt.Println(report)
			}

			session.RiskReport = report
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Risk report saved to session")
			return nil
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the response as it is generated")
	return cmd
}

func newCardCmd() *cobra.Command {
	var backend, frontend, testing, docs, detailed bool
	cmd := &cobra.Command{
		Use:   "card <title>",
		Short: "Generate a fully specified backlog card for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, err := loadSession()
			if err != nil {
				return err
			}

			options := models.GenerationOptions{
				IncludeBackend:     cfg.Generation.IncludeBackend,
				IncludeFrontend:    cfg.Generation.IncludeFrontend,
				IncludeTesting:     cfg.Generation.IncludeTesting,
				IncludeDocs:        cfg.Generation.IncludeDocs,
				DetailedEstimation: cfg.Generation.DetailedEstimation,
			}
			if cmd.Flags().Changed("backend") {
				options.IncludeBackend = backend
			}
			if cmd.Flags().Changed("frontend") {
				options.IncludeFrontend = frontend
			}
			if cmd.Flags().Changed("testing") {
				options.IncludeTesting = testing
			}
			if cmd.Flags().Changed("docs") {
				options.IncludeDocs = docs
			}
			if cmd.Flags().Changed("detailed") {
				options.DetailedEstimation = detailed
			}

			assistant := services.NewAssistantService(cfg)
			helpers.PrintTitle("Generating card: %s", title)

			card, err := assistant.GenerateCard(cmd.Context(), title, session.Ideas, session.NFRs, options, nil)
			if err != nil {
				return fmt.Errorf("failed to generate card: %w", err)
			}

			// A regenerated title replaces the existing card.
			if existing := session.CardByTitle(title); existing != nil {
				card.ID = existing.ID
			}
			session.UpsertCard(*card)
			if err := saveSession(session); err != nil {
				return err
			}

			displayCard(card)
			helpers.PrintSuccess("Card is Ready (%d story points)", card.TotalStoryPoints)
			return nil
		},
	}
	cmd.Flags().BoolVar(&backend, "backend", true, "Require backend subtasks")
	cmd.Flags().BoolVar(&frontend, "frontend", true, "Require frontend subtasks")
	cmd.Flags().BoolVar(&testing, "testing", true, "Require testing subtasks")
	cmd.Flags().BoolVar(&docs, "docs", false, "Require documentation subtasks")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Estimate for production-ready scope instead of MVP")
	return cmd
}

func newNfrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nfrs",
		Short: "Generate non-functional requirements from the saved summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, err := loadSession()
			if err != nil {
				return err
			}
			if session.Summary == "" {
				return fmt.Errorf("no summary in session: run 'clarityhub summarize' first")
			}

			assistant := services.NewAssistantService(cfg)
			helpers.PrintTitle("Deriving Non-Functional Requirements")

			nfrs, err := assistant.GenerateNFRs(cmd.Context(), session.Summary, session.Ideas)
			if err != nil {
				return fmt.Errorf("failed to generate NFRs: %w", err)
			}

			for _, nfr := range nfrs {
				session.AddNFR(nfr)
				helpers.PrintInfo("[%s - %s] %s", nfr.Category, nfr.ImpactLevel, nfr.Title)
			}
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Added %d requirements to session", len(nfrs))
			return nil
		},
	}
}

func newCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "Generate draft backlog cards from the saved summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, err := loadSession()
			if err != nil {
				return err
			}
			if session.Summary == "" {
				return fmt.Errorf("no summary in session: run 'clarityhub summarize' first")
			}

			assistant := services.NewAssistantService(cfg)
			helpers.PrintTitle("Deriving Backlog Cards")

			cards, err := assistant.GenerateCards(cmd.Context(), session.Summary, session.Ideas, session.NFRs)
			if err != nil {
				return fmt.Errorf("failed to generate cards: %w", err)
			}

			for _, card := range cards {
				session.AddCard(card)
				helpers.PrintInfo("%s [%s]", card.Title, card.Status)
			}
			if err := saveSession(session); err != nil {
				return err
			}
			helpers.PrintSuccess("Added %d draft cards; detail them with 'clarityhub card <title>'", len(cards))
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the session workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession()
			if err != nil {
				return err
			}

			helpers.PrintTitle("Session Workspace")
			helpers.PrintInfo("%d ideas, %d attachments, %d requirements, %d cards",
				len(session.Ideas), len(session.Attachments), len(session.NFRs), len(session.Cards))
			helpers.PrintSeparator()

			for _, card := range session.Cards {
				displayCard(&card)
			}
			if session.Summary != "" {
				helpers.PrintInfo("Summary: %d characters", len(session.Summary))
			}
			if session.RiskReport != "" {
				helpers.PrintInfo("Risk report: %d characters", len(session.RiskReport))
			}
			return nil
		},
	}
}

func displayCard(card *models.ProjectCard) {
	helpers.PrintInfo("Card: %s [%s]", card.Title, card.Status)
	if card.Description != "" {
		fmt.Printf("  %s\n", card.Description)
	}
	if len(card.AcceptanceCriteria) > 0 {
		fmt.Println("  Acceptance Criteria:")
		for _, criteria := range card.AcceptanceCriteria {
			fmt.Printf("    • %s\n", criteria)
		}
	}
	for _, sub := range card.Subtasks {
		fmt.Printf("    - [%s] %s (%d SP)\n", sub.Type, sub.Title, sub.StoryPoints)
	}
	if card.TotalStoryPoints > 0 {
		fmt.Printf("  Total: %d SP\n", card.TotalStoryPoints)
	}
	helpers.PrintSeparator()
}

func newExportCmd() *cobra.Command {
	var delimiter, outputDir, columnsFlag string
	var markExported bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export Ready cards as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			session, err := loadSession()
			if err != nil {
				return err
			}

			ready := session.ReadyCards()
			if len(ready) == 0 {
				return fmt.Errorf("no Ready cards to export")
			}

			if delimiter == "" {
				delimiter = cfg.Export.Delimiter
			}
			if delimiter != "," && delimiter != ";" {
				return fmt.Errorf("delimiter must be ',' or ';', got %q", delimiter)
			}
			if outputDir == "" {
				outputDir = cfg.Export.OutputDir
			}

			columns := services.DefaultColumns()
			if columnsFlag != "" {
				columns = parseColumns(columnsFlag)
			}

			csvContent := services.RenderCSV(session.Cards, columns, delimiter)

			if err := helpers.EnsureDir(outputDir); err != nil {
				return err
			}
			outputPath := helpers.GetOutputPath(outputDir, services.ExportFilename())
			if err := os.WriteFile(outputPath, []byte(csvContent), 0644); err != nil {
				return fmt.Errorf("failed to write CSV file: %w", err)
			}

			helpers.PrintSuccess("Exported %d cards to %s", len(ready), outputPath)

			if markExported {
				count := session.MarkExported()
				if err := saveSession(session); err != nil {
					return err
				}
				helpers.PrintInfo("Marked %d cards as Exported", count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "", "CSV delimiter: ',' or ';' (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&columnsFlag, "columns", "", "Comma-separated card fields to export (default standard set)")
	cmd.Flags().BoolVar(&markExported, "mark-exported", false, "Mark exported cards as Exported after a successful write")
	return cmd
}

// parseColumns builds an export column set from a comma-separated field
// list, using the field name itself as the header.
func parseColumns(spec string) []models.CsvColumn {
	var columns []models.CsvColumn
	i := 0
	for _, field := range splitAndTrim(spec, ",") {
		i++
		columns = append(columns, models.CsvColumn{
			ID:      fmt.Sprintf("%d", i),
			Header:  field,
			Field:   field,
			Enabled: true,
		})
	}
	return columns
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
