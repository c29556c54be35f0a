package attachments

import (
	"encoding/base64"
	"fmt"
	"strings"

	"clarityhub/internal/models"
)

// FileKind classifies an attachment for downstream handling
type FileKind string

const (
	KindImage       FileKind = "Image"
	KindWord        FileKind = "WordDocument"
	KindSpreadsheet FileKind = "SpreadsheetDocument"
	KindOther       FileKind = "Other"
)

var wordMimes = []string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
}

var spreadsheetMimes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
}

var wordExtensions = []string{".doc", ".docx"}

var spreadsheetExtensions = []string{".xls", ".xlsx"}

// Classify determines the attachment kind. Known MIME strings win; the
// filename extension is a case-insensitive fallback for misreported MIME
// types.
func Classify(mimeType, fileName string) FileKind {
	if strings.HasPrefix(mimeType, "image/") {
		return KindImage
	}
	for _, m := range wordMimes {
		if mimeType == m {
			return KindWord
		}
	}
	for _, m := range spreadsheetMimes {
		if mimeType == m {
			return KindSpreadsheet
		}
	}

	lower := strings.ToLower(fileName)
	for _, ext := range wordExtensions {
		if strings.HasSuffix(lower, ext) {
			return KindWord
		}
	}
	for _, ext := range spreadsheetExtensions {
		if strings.HasSuffix(lower, ext) {
			return KindSpreadsheet
		}
	}

	return KindOther
}

// DecodeError indicates an attachment payload that is not valid base64
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("attachment %q: payload is not valid base64: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reverses the transport encoding of an attachment payload
func Decode(att models.Attachment) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(att.Payload)
	if err != nil {
		return nil, &DecodeError{Name: att.Name, Err: err}
	}
	return data, nil
}

// Encode produces the transport encoding from raw file bytes
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL renders an attachment as an inline data URL for multimodal
// message content
func DataURL(att models.Attachment) string {
	return fmt.Sprintf("data:%s;base64,%s", att.MimeType, att.Payload)
}
