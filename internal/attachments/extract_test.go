package attachments

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clarityhub/internal/models"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// buildDocx assembles a minimal .docx archive in memory with the given
// document body XML.
func buildDocx(t *testing.T, documentXML string) []byte {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	entry, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func buildXlsx(t *testing.T, sheet string, rows [][]string) []byte {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if sheet != "Sheet1" {
		require.NoError(t, workbook.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, workbook.SetSheetRow(sheet, cell, &row))
	}

	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExtractTextFromWordDocument(t *testing.T) {
	documentXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	att := models.NewAttachment("spec.docx", docxMime, Encode(buildDocx(t, documentXML)))

	text, err := ExtractText(att)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractTextWordIgnoresMarkupOutsideRuns(t *testing.T) {
	documentXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p>
  </w:body>
</w:document>`

	att := models.NewAttachment("styled.docx", docxMime, Encode(buildDocx(t, documentXML)))

	text, err := ExtractText(att)
	require.NoError(t, err)
	assert.Equal(t, "Title", text)
}

func TestExtractTextFromWorkbook(t *testing.T) {
	data := buildXlsx(t, "Budget", [][]string{
		{"Item", "Cost"},
		{"Server", "1200"},
	})
	att := models.NewAttachment("budget.xlsx", xlsxMime, Encode(data))

	text, err := ExtractText(att)
	require.NoError(t, err)
	assert.Contains(t, text, "Sheet: Budget")
	assert.Contains(t, text, "Item | Cost")
	assert.Contains(t, text, "Server | 1200")
}

func TestExtractTextEmptyWorkbook(t *testing.T) {
	data := buildXlsx(t, "Sheet1", nil)
	att := models.NewAttachment("empty.xlsx", xlsxMime, Encode(data))

	text, err := ExtractText(att)
	require.NoError(t, err)
	assert.Equal(t, "No content found in workbook", text)
}

func TestExtractTextCorruptDocument(t *testing.T) {
	att := models.NewAttachment("corrupt.docx", docxMime, Encode([]byte("not a zip archive")))

	_, err := ExtractText(att)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "corrupt.docx", extractErr.Name)
}

func TestExtractTextMissingDocumentBody(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	entry, err := writer.Create("unrelated.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	att := models.NewAttachment("odd.docx", docxMime, Encode(buf.Bytes()))

	_, err = ExtractText(att)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestExtractTextUnsupportedKind(t *testing.T) {
	att := models.NewAttachment("notes.txt", "text/plain", Encode([]byte("plain text")))

	_, err := ExtractText(att)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestExtractTextBadBase64(t *testing.T) {
	att := models.NewAttachment("bad.docx", docxMime, "%%%not-base64%%%")

	_, err := ExtractText(att)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
