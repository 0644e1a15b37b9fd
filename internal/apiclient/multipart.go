package apiclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// form is a multipart body with one binary part and plain text fields.
type form struct {
	fileField   string
	filename    string
	contentType string
	data        []byte
	fields      [][2]string
}

func (f *form) encode() (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if f.fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.fileField, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, "", fmt.Errorf("failed to write audio data: %w", err)
		}
	}

	for _, kv := range f.fields {
		if err := writer.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", kv[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

// recordingFilename mirrors the browser recorder: webm when the MIME type says
// so, mp3 otherwise.
func recordingFilename(mimeType string) string {
	if strings.Contains(mimeType, "webm") {
		return "recording.webm"
	}
	return "recording.mp3"
}
