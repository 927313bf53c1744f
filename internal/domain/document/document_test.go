package document

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

type recordingAPI struct {
	files []*File
	texts []string
	reply string
}

func (r *recordingAPI) UploadDocument(ctx context.Context, text, title string) (string, error) {
	r.texts = append(r.texts, title+":"+text)
	return r.reply, nil
}

func (r *recordingAPI) UploadFile(ctx context.Context, file *File) (string, error) {
	r.files = append(r.files, file)
	return r.reply, nil
}

var (
	pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	pngContent = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	htmlContent = []byte("<!DOCTYPE html>\n<html><head><title>x</title></head><body><p>hi</p></body></html>\n")
	jsonContent = []byte(`{"name": "Ada", "languages": ["go", "python"], "active": true}`)
	csvContent  = []byte("name,email,age\nada,ada@example.com,36\ngrace,grace@example.com,45\n")
	svgContent  = []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		max      int64
		wantMIME string
		wantErr  string
	}{
		{name: "pdf", content: pdfContent, wantMIME: MIMEPDF},
		{name: "plain text", content: []byte("meeting notes\nline two\n"), wantMIME: MIMEText},
		{name: "png rejected", content: pngContent, wantErr: "Only PDF, DOCX, and TXT files are allowed"},
		{name: "html rejected", content: htmlContent, wantErr: "Only PDF, DOCX, and TXT files are allowed"},
		{name: "json rejected", content: jsonContent, wantErr: "Only PDF, DOCX, and TXT files are allowed"},
		{name: "csv rejected", content: csvContent, wantErr: "Only PDF, DOCX, and TXT files are allowed"},
		{name: "svg rejected", content: svgContent, wantErr: "Only PDF, DOCX, and TXT files are allowed"},
		{name: "empty", content: nil, wantErr: "Please select a file"},
		{name: "over limit", content: bytes.Repeat([]byte("a"), 2*1024*1024+1), max: 2 * 1024 * 1024, wantErr: "File size must be less than 2MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ValidateFile(context.Background(), "upload", tt.content, tt.max)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
				assert.Equal(t, tt.wantErr, platformerrors.UserMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, f.MIME)
		})
	}
}

func TestService_UploadFileRejectsBeforeNetwork(t *testing.T) {
	api := &recordingAPI{}
	svc := NewService(api, 0, zerolog.Nop())

	rejected := map[string][]byte{
		"image.png": pngContent,
		"page.html": htmlContent,
		"data.json": jsonContent,
		"table.csv": csvContent,
		"logo.svg":  svgContent,
	}
	for name, content := range rejected {
		_, err := svc.UploadFile(context.Background(), name, content)
		require.Error(t, err, name)
		assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation), name)
	}

	assert.Empty(t, api.files)
	assert.Equal(t, DefaultMaxBytes, svc.MaxBytes())
}

func TestService_Confirmations(t *testing.T) {
	api := &recordingAPI{}
	svc := NewService(api, 0, zerolog.Nop())

	msg, err := svc.UploadFile(context.Background(), "doc.pdf", pdfContent)
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully!", msg)

	msg, err = svc.UploadText(context.Background(), "some knowledge", "")
	require.NoError(t, err)
	assert.Equal(t, "Document uploaded successfully!", msg)
	assert.Equal(t, []string{"Text Document:some knowledge"}, api.texts)

	api.reply = "Indexed 3 chunks"
	msg, err = svc.UploadText(context.Background(), "more", "Notes")
	require.NoError(t, err)
	assert.Equal(t, "Indexed 3 chunks", msg)

	_, err = svc.UploadText(context.Background(), "   ", "")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}
