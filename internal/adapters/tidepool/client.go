package tidepool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.tidepool.org"

	HeaderSessionToken  = "X-Tidepool-Session-Token"
	HeaderClientName    = "X-Tidepool-Client-Name"
	HeaderClientVersion = "X-Tidepool-Client-Version"
	HeaderRequestID     = "X-Request-Id"

	maxResponseBytes   = 1 << 20
	maxErrorBodyBytes  = 512
	defaultTimeout     = 30 * time.Second
	loginPath          = "auth/login"
	userPath           = "auth/user"
	clientNameQueryKey = "client.name"
)

type API struct {
	BaseURL string
}

// Client talks to the Tidepool platform API.
type Client struct {
	API            API
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Identity       domain.ClientIdentity
	// Limiter bounds outbound requests; nil means unlimited.
	Limiter *rate.Limiter
	// NewRequestID defaults to a random UUID.
	NewRequestID func() string
}

var _ ports.RemoteService = Client{}

type loginResponse struct {
	UserID string `json:"userid"`
}

type dataSetResponse struct {
	UploadID    string `json:"uploadId"`
	DataSetType string `json:"dataSetType"`
	Client      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"client"`
	Deduplicator struct {
		Name string `json:"name"`
	} `json:"deduplicator"`
}

type createDataSetResponse struct {
	Data dataSetResponse `json:"data"`
}

type createDataSetRequest struct {
	Client struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"client"`
	DataSetType  string `json:"dataSetType"`
	Deduplicator struct {
		Name string `json:"name"`
	} `json:"deduplicator"`
}

func (c Client) Login(ctx context.Context, credentials domain.Credentials) (ports.LoginResult, error) {
	if err := credentials.Validate(); err != nil {
		return ports.LoginResult{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, loginPath, nil, nil)
	if err != nil {
		return ports.LoginResult{}, err
	}
	defer req.cancel()
	req.SetBasicAuth(credentials.Username, credentials.Password)

	resp, err := c.do(req.Request)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !success(resp.StatusCode) {
		return ports.LoginResult{}, statusError(req.Request, resp)
	}

	token := resp.Header.Get(HeaderSessionToken)
	if token == "" {
		return ports.LoginResult{}, errors.New("login response missing session token")
	}

	var payload loginResponse
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("read login response: %w", err)
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return ports.LoginResult{}, fmt.Errorf("decode login response: %w", err)
		}
	}

	userID := payload.UserID
	if userID == "" {
		userID, err = c.currentUser(ctx, token)
		if err != nil {
			return ports.LoginResult{}, err
		}
	}

	return ports.LoginResult{Token: token, UserID: userID}, nil
}

func (c Client) currentUser(ctx context.Context, token string) (string, error) {
	var payload loginResponse
	if err := c.call(ctx, http.MethodGet, userPath, token, nil, nil, &payload); err != nil {
		return "", fmt.Errorf("get current user: %w", err)
	}
	if payload.UserID == "" {
		return "", errors.New("current user response missing userid")
	}
	return payload.UserID, nil
}

func (c Client) ListUploadTargets(ctx context.Context, token, userID, clientName string) ([]domain.UploadTarget, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	query := url.Values{}
	if clientName != "" {
		query.Set(clientNameQueryKey, clientName)
	}

	var payload []dataSetResponse
	if err := c.call(ctx, http.MethodGet, dataSetsPath(userID), token, query, nil, &payload); err != nil {
		return nil, fmt.Errorf("list data sets: %w", err)
	}

	targets := make([]domain.UploadTarget, 0, len(payload))
	for _, item := range payload {
		targets = append(targets, item.toDomain())
	}
	return targets, nil
}

func (c Client) CreateUploadTarget(ctx context.Context, token, userID string, req ports.CreateUploadTargetRequest) (domain.UploadTarget, error) {
	if userID == "" {
		return domain.UploadTarget{}, errors.New("user id is required")
	}

	var body createDataSetRequest
	body.Client.Name = req.Client.Name
	body.Client.Version = req.Client.Version
	body.DataSetType = string(req.DataSetType)
	body.Deduplicator.Name = req.Deduplicator

	var payload createDataSetResponse
	if err := c.call(ctx, http.MethodPost, dataSetsPath(userID), token, nil, body, &payload); err != nil {
		return domain.UploadTarget{}, fmt.Errorf("create data set: %w", err)
	}
	if payload.Data.UploadID == "" {
		return domain.UploadTarget{}, errors.New("create data set response missing uploadId")
	}
	return payload.Data.toDomain(), nil
}

func (c Client) Upload(ctx context.Context, token, uploadTargetID string, records []domain.TargetRecord) error {
	if uploadTargetID == "" {
		return errors.New("upload target id is required")
	}
	if len(records) == 0 {
		return nil
	}

	payload, err := EncodeRecords(records)
	if err != nil {
		return err
	}

	path := "dataservices/v1/datasets/" + url.PathEscape(uploadTargetID) + "/data"
	if err := c.call(ctx, http.MethodPost, path, token, nil, payload, nil); err != nil {
		return fmt.Errorf("upload %d records: %w", len(records), err)
	}
	return nil
}

// call sends an authenticated JSON request and decodes the response into out
// when out is non-nil.
func (c Client) call(ctx context.Context, method, path, token string, query url.Values, in any, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w: %w", domain.ErrInvalidPayload, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer req.cancel()
	if token != "" {
		req.Header.Set(HeaderSessionToken, token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req.Request)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if !success(resp.StatusCode) {
		statusErr := statusError(req.Request, resp)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %w", domain.ErrTransientAuth, statusErr)
		}
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type request struct {
	*http.Request
	cancel context.CancelFunc
}

func (c Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (request, error) {
	endpoint, err := buildAPIURL(c.baseURL(), path)
	if err != nil {
		return request{}, err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	requestCtx, cancel := c.requestContext(ctx)
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		cancel()
		return request{}, fmt.Errorf("create %s request: %w", path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set(HeaderClientName, c.Identity.Name)
	req.Header.Set(HeaderClientVersion, c.Identity.Version)
	req.Header.Set(HeaderRequestID, c.requestID())

	return request{Request: req, cancel: cancel}, nil
}

func (c Client) do(req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func (c Client) baseURL() string {
	if c.API.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.API.BaseURL
}

func (c Client) userAgent() string {
	if c.Identity.Version == "" {
		return c.Identity.Name
	}
	return c.Identity.Name + "/" + c.Identity.Version
}

func (c Client) requestID() string {
	if c.NewRequestID != nil {
		return c.NewRequestID()
	}
	return uuid.NewString()
}

func (d dataSetResponse) toDomain() domain.UploadTarget {
	return domain.UploadTarget{
		ID:           d.UploadID,
		Client:       domain.ClientIdentity{Name: d.Client.Name, Version: d.Client.Version},
		DataSetType:  domain.DataSetType(d.DataSetType),
		Deduplicator: d.Deduplicator.Name,
	}
}

func dataSetsPath(userID string) string {
	return "v1/users/" + url.PathEscape(userID) + "/data_sets"
}

func success(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

func statusError(req *http.Request, resp *http.Response) *domain.HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &domain.HTTPStatusError{
		Method:   req.Method,
		Endpoint: req.URL.Path,
		Status:   resp.StatusCode,
		Body:     strings.TrimSpace(string(body)),
	}
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
