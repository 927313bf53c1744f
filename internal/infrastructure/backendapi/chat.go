package backendapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/document"
)

type sendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	UseRAG         bool   `json:"useRAG"`
}

type uploadDocumentRequest struct {
	Document string `json:"document"`
	Title    string `json:"title"`
}

type executeCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// SendMessage posts a user message. The assistant reply in the response is not
// used; callers refetch the thread.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string, useRAG bool) error {
	_, err := c.call(ctx, http.MethodPost, "/chat/message", func(r *resty.Request) {
		r.SetBody(sendMessageRequest{ConversationID: conversationID, Message: text, UseRAG: useRAG})
	})
	return err
}

// UploadDocument sends pasted text for ingestion.
func (c *Client) UploadDocument(ctx context.Context, text, title string) (string, error) {
	var out messageResponse
	_, err := c.call(ctx, http.MethodPost, "/chat/upload-document", func(r *resty.Request) {
		r.SetBody(uploadDocumentRequest{Document: text, Title: title}).SetResult(&out)
	})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// UploadFile sends a validated file as the multipart field "file".
func (c *Client) UploadFile(ctx context.Context, file *document.File) (string, error) {
	var out messageResponse
	_, err := c.call(ctx, http.MethodPost, "/chat/upload-file", func(r *resty.Request) {
		r.SetMultipartField("file", file.Name, file.MIME, bytes.NewReader(file.Content)).SetResult(&out)
	})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// ExecuteCode runs code remotely.
func (c *Client) ExecuteCode(ctx context.Context, code string, language codeexec.Language) (*codeexec.Result, error) {
	var out codeexec.Result
	_, err := c.call(ctx, http.MethodPost, "/chat/execute-code", func(r *resty.Request) {
		r.SetBody(executeCodeRequest{Code: code, Language: string(language)}).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type errEmptyField string

func (e errEmptyField) Error() string {
	return fmt.Sprintf("response field %q is empty", string(e))
}
