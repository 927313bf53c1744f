package codeexec

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

type stubAPI struct {
	calls int
	res   *Result
}

func (s *stubAPI) ExecuteCode(ctx context.Context, code string, language Language) (*Result, error) {
	s.calls++
	return s.res, nil
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "javascript", want: JavaScript},
		{in: "JS", want: JavaScript},
		{in: "", want: JavaScript},
		{in: "py", want: Python},
		{in: "ruby", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(context.Background(), tt.in)
			if tt.wantErr {
				assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_EmptyCodeSkipsBackend(t *testing.T) {
	api := &stubAPI{}
	svc := NewService(api, zerolog.Nop())

	_, err := svc.Execute(context.Background(), "  \n", Python)

	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
	assert.Zero(t, api.calls)
}

func TestExecute_FillsLanguage(t *testing.T) {
	api := &stubAPI{res: &Result{Success: true, Output: "2"}}
	svc := NewService(api, zerolog.Nop())

	res, err := svc.Execute(context.Background(), "print(1+1)", Python)

	require.NoError(t, err)
	assert.Equal(t, "python", res.Language)
}

func TestFormatResult(t *testing.T) {
	ok := FormatResult("print(1+1)", &Result{Success: true, Output: "2", Language: "python"})
	assert.Equal(t, "**Code Execution (python):**\n\n```python\nprint(1+1)\n```\n\n**Result:**\n✅ Success\n\n```\n2\n```", ok)

	failed := FormatResult("throw 1", &Result{Success: false, Error: "Uncaught 1", Language: "javascript"})
	assert.Contains(t, failed, "❌ Error\n\n```\nUncaught 1\n```")
	assert.Contains(t, failed, "```javascript\nthrow 1\n```")
}
