package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/constants"
	ihttp "github.com/mariellemanlulu/irida-uploader/internal/http"
	"github.com/mariellemanlulu/irida-uploader/internal/logging"
	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/progress"
)

// retryLogger bridges retryablehttp's leveled logger onto our zerolog
// logger. Info and debug chatter from the retry loop is suppressed.
type retryLogger struct {
	log *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorf("%s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnf("%s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{})  {}
func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

// Client talks to an IRIDA instance. JSON endpoints go through a retrying
// client; sequence file uploads use a separate transfer client with no
// request timeout so large fastq files are never cut off mid-stream.
type Client struct {
	httpClient     *nethttp.Client
	transferClient *nethttp.Client
	config         *config.Config
	baseURL        string
	accessToken    string
	log            *logging.Logger

	// Progress reports per-file transfer progress when no multi-bar UI is
	// attached to an upload. Defaults to a single console bar.
	Progress progress.Reporter
}

// NewClient creates an API client from the given configuration. No network
// traffic happens until Connect is called.
func NewClient(cfg *config.Config, log *logging.Logger) (*Client, error) {
	httpClient, err := ihttp.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.APIRetryMax
	retryClient.RetryWaitMin = constants.APIRetryWaitMin
	retryClient.RetryWaitMax = constants.APIRetryWaitMax
	retryClient.Logger = &retryLogger{log: log}

	return &Client{
		httpClient:     retryClient.StandardClient(),
		transferClient: ihttp.CreateTransferClient(httpClient),
		config:         cfg,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		log:            log,
		Progress:       progress.NewCLIProgress(),
	}, nil
}

// BaseURL returns the API base URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Connect obtains an OAuth2 access token using the password grant.
// A transport failure is reported as a ConnectionError; a rejected grant
// wraps ErrInvalidCredentials.
func (c *Client) Connect(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("username", c.config.Username)
	form.Set("password", c.config.Password)

	tokenURL := c.baseURL + "/oauth/token"
	req, err := nethttp.NewRequestWithContext(ctx, "POST", tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == nethttp.StatusBadRequest || resp.StatusCode == nethttp.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrInvalidCredentials, resp.StatusCode, string(body))
	}
	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("token request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.accessToken = token.AccessToken
	c.log.Debugf("connected to %s", c.baseURL)
	return nil
}

// doRequest performs an authenticated JSON request against the API.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: c.baseURL, Err: err}
	}
	return resp, nil
}

// ProjectExists reports whether the given project identifier exists on the
// remote service.
func (c *Client) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/projects/%s", projectID), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusOK:
		return true, nil
	case nethttp.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("project lookup failed: status %d: %s", resp.StatusCode, string(body))
	}
}

// SampleExists reports whether a sample with the given name exists in the
// project.
func (c *Client) SampleExists(ctx context.Context, projectID, sampleName string) (bool, error) {
	path := fmt.Sprintf("/projects/%s/samples/bySequencerId/%s", projectID, url.PathEscape(sampleName))
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusOK:
		return true, nil
	case nethttp.StatusNotFound:
		return false, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("sample lookup failed: status %d: %s", resp.StatusCode, string(body))
	}
}

// CreateSample creates a sample in the project. A conflict response means
// another client created the sample first and is not treated as a failure.
func (c *Client) CreateSample(ctx context.Context, projectID string, sample model.Sample) error {
	body := map[string]string{
		"sampleName":  sample.Name,
		"description": sample.Description,
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/projects/%s/samples", projectID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case nethttp.StatusCreated, nethttp.StatusOK, nethttp.StatusConflict:
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create sample %q failed: status %d: %s",
			sample.Name, resp.StatusCode, string(respBody))
	}
}

// ValidateRunUploadable checks a parsed run against the remote service
// before any data moves: every referenced project must exist. Structural
// rejections accumulate in the returned ValidationResult; a transport
// failure surfaces as a ConnectionError and says nothing about the run.
func (c *Client) ValidateRunUploadable(ctx context.Context, run *model.SequencingRun) (model.ValidationResult, error) {
	var result model.ValidationResult

	for _, project := range run.Projects {
		exists, err := c.ProjectExists(ctx, project.ID)
		if err != nil {
			return model.ValidationResult{}, err
		}
		if !exists {
			result.AddError(model.ValidationError{
				Kind:    model.KindRemote,
				Entity:  project.ID,
				Message: fmt.Sprintf("project %s does not exist on %s", project.ID, c.baseURL),
			})
		}
	}

	return result, nil
}
