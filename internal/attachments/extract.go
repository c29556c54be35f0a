package attachments

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"clarityhub/internal/models"
)

// ExtractionError indicates a supported document whose text could not be
// recovered
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("attachment %q: text extraction failed: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractText returns best-effort plain text from a Word or spreadsheet
// attachment. Attachments of any other kind fail with an ExtractionError.
func ExtractText(att models.Attachment) (string, error) {
	data, err := Decode(att)
	if err != nil {
		return "", err
	}

	switch Classify(att.MimeType, att.Name) {
	case KindWord:
		text, err := extractWordText(data)
		if err != nil {
			return "", &ExtractionError{Name: att.Name, Err: err}
		}
		return text, nil
	case KindSpreadsheet:
		text, err := extractWorkbookText(data)
		if err != nil {
			return "", &ExtractionError{Name: att.Name, Err: err}
		}
		return text, nil
	default:
		return "", &ExtractionError{Name: att.Name, Err: fmt.Errorf("unsupported document type %q", att.MimeType)}
	}
}

// extractWordText pulls the run text out of a .docx archive. A .docx file is
// a zip whose word/document.xml carries paragraphs of <w:t> runs; paragraph
// boundaries become newlines.
func extractWordText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a valid document archive: %w", err)
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("document archive has no word/document.xml")
	}

	rc, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %w", err)
	}
	defer rc.Close()

	var text strings.Builder
	decoder := xml.NewDecoder(rc)
	inRun := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				text.WriteString("\n")
			}
		case xml.CharData:
			if inRun {
				text.Write(t)
			}
		}
	}

	return strings.TrimSpace(text.String()), nil
}

// extractWorkbookText flattens every sheet of an Excel workbook into
// pipe-delimited rows under a sheet heading.
func extractWorkbookText(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not a valid workbook: %w", err)
	}
	defer workbook.Close()

	var text strings.Builder
	for i, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString("Sheet: " + sheet + "\n")
		text.WriteString("---\n")

		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				text.WriteString(line + "\n")
			}
		}
	}

	result := strings.TrimRight(text.String(), "\n")
	if result == "" {
		return "No content found in workbook", nil
	}
	return result, nil
}
