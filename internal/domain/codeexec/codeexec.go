package codeexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

// Language is a runtime the backend can execute.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
)

// Languages lists the supported runtimes in display order.
var Languages = []Language{JavaScript, Python}

// ParseLanguage accepts a language name or a common alias.
func ParseLanguage(ctx context.Context, raw string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "javascript", "js", "node":
		return JavaScript, nil
	case "python", "py", "python3":
		return Python, nil
	default:
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported language %q (use javascript or python)", raw), nil,
			map[string]any{"language": raw})
	}
}

// Result is the outcome of a remote execution.
type Result struct {
	Success  bool   `json:"success"`
	Output   string `json:"output"`
	Error    string `json:"error"`
	Language string `json:"language"`
}

// API is the code execution surface of the backend.
type API interface {
	ExecuteCode(ctx context.Context, code string, language Language) (*Result, error)
}

// Service submits snippets for execution.
type Service struct {
	api API
	log zerolog.Logger
}

// NewService creates a Service.
func NewService(api API, log zerolog.Logger) *Service {
	return &Service{api: api, log: log.With().Str("component", "codeexec-service").Logger()}
}

// Execute runs code remotely. An unsuccessful run is a normal result, not an error.
func (s *Service) Execute(ctx context.Context, code string, language Language) (*Result, error) {
	if strings.TrimSpace(code) == "" {
		return nil, platformerrors.Validation(ctx, platformerrors.LayerDomain, "Please enter code to execute")
	}
	if language != JavaScript && language != Python {
		return nil, platformerrors.Validation(ctx, platformerrors.LayerDomain, fmt.Sprintf("unsupported language %q", language))
	}

	res, err := s.api.ExecuteCode(ctx, code, language)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "execute code")
	}
	if res.Language == "" {
		res.Language = string(language)
	}
	s.log.Debug().Str("language", res.Language).Bool("success", res.Success).Msg("code executed")
	return res, nil
}

// FormatResult renders the snippet and its outcome as markdown suitable for the
// compose buffer.
func FormatResult(code string, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Code Execution (%s):**\n\n", res.Language)
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", res.Language, code)
	b.WriteString("**Result:**\n")
	if res.Success {
		fmt.Fprintf(&b, "✅ Success\n\n```\n%s\n```", res.Output)
	} else {
		fmt.Fprintf(&b, "❌ Error\n\n```\n%s\n```", res.Error)
	}
	return b.String()
}
