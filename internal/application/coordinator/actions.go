package coordinator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/share"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
)

// Execution is the outcome of ExecuteCode.
type Execution struct {
	Result *codeexec.Result
	// Compose is the result rendered as markdown, ready to be sent as a message.
	Compose string
}

// UploadDocument ingests pasted text. The confirmation is also sent as a notice.
func (c *Coordinator) UploadDocument(ctx context.Context, text, title string) (confirmation string, err error) {
	ctx, span := observability.StartActionSpan(ctx, "upload_document")
	defer func() { observability.EndSpan(span, err) }()

	if err := c.authorize(ctx); err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "", err)
	}
	release, err := c.acquire(ctx, notice.ActionUpload)
	if err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "", err)
	}
	defer release()

	confirmation, err = c.documents.UploadText(ctx, text, title)
	if err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "Failed to upload document: ", err)
	}
	c.notifier.Notify(notice.Succeeded(notice.ActionUpload, confirmation))
	return confirmation, nil
}

// UploadFile validates and ingests a file. Validation happens before any network call.
func (c *Coordinator) UploadFile(ctx context.Context, name string, content []byte) (confirmation string, err error) {
	ctx, span := observability.StartActionSpan(ctx, "upload_file",
		attribute.String("file.name", name),
		attribute.Int("file.size", len(content)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := c.authorize(ctx); err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "", err)
	}
	release, err := c.acquire(ctx, notice.ActionUpload)
	if err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "", err)
	}
	defer release()

	confirmation, err = c.documents.UploadFile(ctx, name, content)
	if err != nil {
		return "", c.fail(ctx, notice.ActionUpload, "Failed to upload file: ", err)
	}
	c.notifier.Notify(notice.Succeeded(notice.ActionUpload, confirmation))
	return confirmation, nil
}

// ExecuteCode runs code in language. A run that fails inside the sandbox is a normal
// result reported with a failure notice; err is set only when the run could not be
// submitted.
func (c *Coordinator) ExecuteCode(ctx context.Context, code, language string) (exec *Execution, err error) {
	ctx, span := observability.StartActionSpan(ctx, "execute", attribute.String("language", language))
	defer func() { observability.EndSpan(span, err) }()

	lang, err := codeexec.ParseLanguage(ctx, language)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionExecute, "", err)
	}
	if err := c.authorize(ctx); err != nil {
		return nil, c.fail(ctx, notice.ActionExecute, "", err)
	}
	release, err := c.acquire(ctx, notice.ActionExecute)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionExecute, "", err)
	}
	defer release()

	res, err := c.code.Execute(ctx, code, lang)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionExecute, "Failed to execute code: ", err)
	}
	if res.Success {
		c.notifier.Notify(notice.Succeeded(notice.ActionExecute, "Code executed successfully!"))
	} else {
		c.notifier.Notify(notice.Failed(notice.ActionExecute, "Code execution failed: "+res.Error))
	}
	return &Execution{Result: res, Compose: codeexec.FormatResult(code, res)}, nil
}

// OpenShared fetches a shared conversation by token or link. No session is needed.
func (c *Coordinator) OpenShared(ctx context.Context, tokenOrURL string) (shared *share.SharedConversation, err error) {
	ctx, span := observability.StartActionSpan(ctx, "open_shared")
	defer func() { observability.EndSpan(span, err) }()

	shared, err = c.viewer.Open(ctx, tokenOrURL)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionShared, "", err)
	}
	return shared, nil
}
