package attachments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarityhub/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		want     FileKind
	}{
		{"png image", "image/png", "mockup.png", KindImage},
		{"jpeg image", "image/jpeg", "photo", KindImage},
		{"docx mime", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "spec.bin", KindWord},
		{"legacy doc mime", "application/msword", "spec.bin", KindWord},
		{"xlsx mime", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "data.bin", KindSpreadsheet},
		{"legacy xls mime", "application/vnd.ms-excel", "data.bin", KindSpreadsheet},
		{"docx by extension", "application/octet-stream", "requirements.docx", KindWord},
		{"uppercase extension", "application/octet-stream", "REQUIREMENTS.DOCX", KindWord},
		{"xlsx by extension", "application/octet-stream", "budget.XLSX", KindSpreadsheet},
		{"mime wins over extension", "image/png", "screenshot.docx", KindImage},
		{"plain text", "text/plain", "notes.txt", KindOther},
		{"no hints at all", "", "", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.mimeType, tt.fileName))
		})
	}
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	raw := []byte("some file bytes \x00\x01\x02")
	att := models.NewAttachment("blob.bin", "application/octet-stream", Encode(raw))

	got, err := Decode(att)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeInvalidPayload(t *testing.T) {
	att := models.NewAttachment("broken.bin", "application/octet-stream", "not base64!!!")

	_, err := Decode(att)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "broken.bin", decodeErr.Name)
	assert.Contains(t, err.Error(), "broken.bin")
}

func TestDataURL(t *testing.T) {
	att := models.NewAttachment("mockup.png", "image/png", "aW1hZ2U=")
	assert.Equal(t, "data:image/png;base64,aW1hZ2U=", DataURL(att))
}
