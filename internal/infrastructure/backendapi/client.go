package backendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/infrastructure/logger"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const (
	headerRequestID = "X-Request-ID"
	userAgent       = "Jan-Chat-Client/1.0"
)

// TokenSource supplies the stored session token.
type TokenSource interface {
	Get() (token string, ok bool, err error)
}

type anonymousKey struct{}

// Anonymous marks ctx so requests made with it carry no bearer token.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// Client talks to the chat backend over JSON/HTTP.
type Client struct {
	httpClient *resty.Client
	tokens     TokenSource
	sanitizer  *logger.Sanitizer
	log        zerolog.Logger
}

// NewClient constructs the backend client. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	c := &Client{
		tokens:    tokens,
		sanitizer: logger.NewSanitizer("jan-chat"),
		log:       log.With().Str("component", "backend-client").Logger(),
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	httpClient.OnBeforeRequest(c.decorate)
	c.httpClient = httpClient
	return c
}

// decorate attaches the bearer token and a request id.
func (c *Client) decorate(_ *resty.Client, r *resty.Request) error {
	requestID := platformerrors.RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}
	r.SetHeader(headerRequestID, requestID)

	if isAnonymous(r.Context()) || c.tokens == nil {
		return nil
	}
	token, ok, err := c.tokens.Get()
	if err != nil {
		c.log.Warn().Err(err).Msg("could not read stored token")
		return nil
	}
	if ok && token != "" {
		r.SetAuthToken(token)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call executes one request and maps transport and status failures to platform errors.
func (c *Client) call(ctx context.Context, method, path string, build func(*resty.Request)) (*resty.Response, error) {
	ctx, span := observability.StartBackendSpan(ctx, method, path)

	req := c.httpClient.R().SetContext(ctx)
	if build != nil {
		build(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		perr := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			fmt.Sprintf("%s %s failed", method, path), err, map[string]any{"path": path})
		observability.EndSpan(span, perr)
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, perr
	}

	if resp.IsError() {
		perr := c.statusError(ctx, method, path, resp)
		observability.EndSpan(span, perr)
		return nil, perr
	}

	observability.EndSpan(span, nil)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("backend request completed")
	return resp, nil
}

func (c *Client) statusError(ctx context.Context, method, path string, resp *resty.Response) *platformerrors.PlatformError {
	status := resp.StatusCode()
	serverMsg := decodeServerMessage(resp.Body())

	msg := serverMsg
	if msg == "" {
		msg = fmt.Sprintf("%s %s failed with status %d", method, path, status)
	}

	fields := map[string]any{
		"status": status,
		"path":   path,
	}
	if serverMsg != "" {
		fields[platformerrors.ContextServerMessage] = serverMsg
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Str("server_message", c.sanitizer.Text(serverMsg)).
		Msg("backend rejected request")

	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.HTTPStatusToErrorType(status),
		msg, fmt.Errorf("status %d", status), fields)
}

func decodeServerMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}

func decodeError(ctx context.Context, path string, err error) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
		"unexpected response from backend", err, map[string]any{"path": path})
}
