package lora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
	"github.com/OS2mo/os2mo-sub000/pkg/composables"
	"github.com/OS2mo/os2mo-sub000/pkg/configuration"
)

var tracer = otel.Tracer("os2mo-lora-client")

// apiError is the body LoRa sends with non-2xx responses.
type apiError struct {
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	return e.Message
}

type searchResponse struct {
	Results [][]json.RawMessage `json:"results"`
}

type writeResponse struct {
	UUID uuid.UUID `json:"uuid"`
}

// Client talks JSON to one LoRa instance.
type Client struct {
	baseURL         *url.URL
	authToken       string
	httpClient      *http.Client
	requestIDHeader string
}

func NewClient(baseURL, authToken string, timeout time.Duration, requestIDHeader string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid LoRa url: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         u,
		authToken:       strings.TrimSpace(authToken),
		httpClient:      &http.Client{Timeout: timeout},
		requestIDHeader: requestIDHeader,
	}, nil
}

func NewClientFromConfig(conf *configuration.Configuration) (*Client, error) {
	return NewClient(conf.Lora.URL, conf.Lora.AuthToken, conf.Lora.Timeout, conf.RequestIDHeader)
}

// doJSON sends one request to <base>/<scope>[/<id>]. A non-2xx response is
// reported through the status and apiError, not as an error; err is only
// set for transport and encoding failures.
func (c *Client) doJSON(
	ctx context.Context,
	method, scope, id string,
	query url.Values,
	reqBody any,
	out any,
) (int, *apiError, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(scope, "/")
	if id != "" {
		u.Path += "/" + id
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	ctx, span := tracer.Start(ctx, "lora."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("lora.scope", scope),
			attribute.String("http.method", method),
			attribute.String("http.url", u.String()),
		),
	)
	defer span.End()

	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"scope":  scope,
		"method": method,
	})

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return 0, nil, errors.Wrap(err, "lora: marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, errors.Wrap(err, "lora: build request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		requestID, ok := composables.UseRequestID(ctx)
		if !ok {
			requestID = uuid.NewString()
		}
		req.Header.Set(c.requestIDHeader, requestID)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordRequest(scope, method, 0, time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		logger.WithError(err).Warn("lora request failed")
		return 0, nil, errors.Wrapf(err, "lora: %s %s", method, scope)
	}
	defer func() { _ = resp.Body.Close() }()
	recordRequest(scope, method, resp.StatusCode, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return resp.StatusCode, nil, errors.Wrap(err, "lora: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{}
		if err := json.Unmarshal(respBody, apiErr); err != nil || strings.TrimSpace(apiErr.Message) == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		logger.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"message": apiErr.Message,
		}).Debug("lora returned an error status")
		return resp.StatusCode, apiErr, nil
	}

	logger.WithField("status", resp.StatusCode).Debug("lora request completed")
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return resp.StatusCode, nil, errors.Wrap(err, "lora: decode response")
	}
	return resp.StatusCode, nil, nil
}

// search runs a GET on scope and returns the raw result rows. An empty
// result set is nil.
func (c *Client) search(ctx context.Context, scope string, query url.Values) ([]json.RawMessage, error) {
	var resp searchResponse
	status, apiErr, err := c.doJSON(ctx, http.MethodGet, scope, "", query, nil, &resp)
	if err != nil {
		return nil, err
	}
	if apiErr != nil {
		return nil, services.ErrorFromStatus(status, apiErr.text(), nil)
	}
	if len(resp.Results) == 0 || len(resp.Results[0]) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}
