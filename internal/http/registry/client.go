package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/mitchellh/mapstructure"
)

var log = logger.Get("Registry")

const (
	listCarsTemplate = "%s/api/list_cars/%s"
	registerEndpoint = "%s/api/videos/register/"

	defaultTimeout = 30 * time.Second
)

type (
	// Config describes where the registry API can be reached.
	Config struct {
		Host           string      `json:"api_host" env:"API_HOST" validate:"required"`
		Port           json.Number `json:"api_port" env:"API_PORT" validate:"omitempty,numeric"`
		Scheme         string      `json:"api_scheme" env:"API_SCHEME" env-default:"http" validate:"oneof=http https"`
		TimeoutSeconds int         `json:"timeout_seconds" env:"API_TIMEOUT_SECONDS" env-default:"30" validate:"min=1"`
	}

	// Car is a single entry of the registry's car list.
	Car struct {
		ID   json.Number `mapstructure:"id"`
		Name string      `mapstructure:"nome"`
	}

	// registryClient performs single-shot calls against the registry API.
	// Nothing is retried; the caller decides what a failure means.
	registryClient struct {
		baseURL string
		token   string
		http    *http.Client
		log     logger.Logger
	}
)

// BaseURL builds the scheme://host:port prefix shared by every endpoint.
func (config Config) BaseURL() string {
	scheme := config.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host := config.Host
	if port := config.Port.String(); port != "" {
		host = net.JoinHostPort(config.Host, port)
	}

	return (&url.URL{Scheme: scheme, Host: host}).String()
}

func (config Config) timeout() time.Duration {
	if config.TimeoutSeconds <= 0 {
		return defaultTimeout
	}

	return time.Duration(config.TimeoutSeconds) * time.Second
}

// NewClient constructs a registry client. The token is optional; when
// present it is sent as a bearer token on every request.
func NewClient(config Config, token string) *registryClient {
	return newClient(config.BaseURL(), token, &http.Client{Timeout: config.timeout()})
}

func newClient(baseURL string, token string, httpClient *http.Client) *registryClient {
	return &registryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// WithLogger replaces the diagnostics sink used by this client.
func (client *registryClient) WithLogger(log logger.Logger) *registryClient {
	client.log = log
	return client
}

// ListCars fetches the cars registered against the company provided. Both
// numeric and quoted numeric car IDs are accepted. Entries without a name,
// or without an ID that can be sent back as a number, are dropped.
func (client *registryClient) ListCars(ctx context.Context, companyID json.Number) ([]Car, error) {
	path := fmt.Sprintf(listCarsTemplate, client.baseURL, url.PathEscape(companyID.String()))

	var raw []interface{}
	if err := client.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var decoded []Car
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &decoded})
	if err != nil {
		return nil, &UnknownRequestError{fmt.Sprintf("failed to construct car list decoder: %s", err.Error())}
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &UnknownRequestError{fmt.Sprintf("car list could not be decoded: %s", err.Error())}
	}

	cars := make([]Car, 0, len(decoded))
	for _, car := range decoded {
		if car.ID == "" || car.Name == "" {
			client.log.Emit(logger.WARNING, "Ignoring registry car with missing id or name: %+v\n", car)
			continue
		}
		if !isNumberLiteral(car.ID) {
			client.log.Emit(logger.WARNING, "Ignoring registry car %q with non-numeric id %q\n", car.Name, car.ID)
			continue
		}
		cars = append(cars, car)
	}

	return cars, nil
}

// RegisterVideos submits the payload provided to the registry. Delivery is
// best-effort: the call is not retried and is not idempotent.
func (client *registryClient) RegisterVideos(ctx context.Context, payload UploadPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("payload could not be marshalled: %s", err.Error())}
	}

	path := fmt.Sprintf(registerEndpoint, client.baseURL)
	var response json.RawMessage
	if err := client.doJSON(ctx, http.MethodPost, path, body, &response); err != nil {
		return err
	}

	client.log.Emit(logger.SUCCESS, "Registered %d videos for car %s: %s\n", len(payload.Videos), payload.CarID, string(response))
	return nil
}

// doJSON performs a request with the registry headers, failing on any
// non-2xx response, and unmarshals a JSON response body (if any) in to target.
func (client *registryClient) doJSON(ctx context.Context, method string, urlPath string, body []byte, target interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlPath, reader)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to construct %s(%s): %s", method, urlPath, err.Error())}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if client.token != "" {
		req.Header.Set("Authorization", "Bearer "+client.token)
	}

	client.log.Emit(logger.DEBUG, "%s %s\n", method, urlPath)
	resp, err := client.http.Do(req)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to perform %s(%s) to registry: %s", method, urlPath, err.Error())}
	}

	defer resp.Body.Close()
	respBody, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FailedRequestError{httpCode: resp.StatusCode, method: method, path: urlPath, message: responseMessage(respBody)}
	}

	if readErr != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to read response body: %s", readErr.Error())}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(respBody))
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return &UnknownRequestError{fmt.Sprintf("response JSON could not be unmarshalled: %s", err.Error())}
	}

	return nil
}

// isNumberLiteral reports whether the ID can be encoded as a JSON number.
func isNumberLiteral(id json.Number) bool {
	if _, err := strconv.ParseFloat(id.String(), 64); err != nil {
		return false
	}

	return json.Valid([]byte(id))
}

// responseMessage extracts a human readable reason from an error response,
// preferring a JSON 'detail' or 'message' field over the raw body.
func responseMessage(body []byte) string {
	var structured struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		for _, m := range []string{structured.Detail, structured.Message, structured.Error} {
			if m != "" {
				return m
			}
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256] + "..."
	}
	if msg == "" {
		return "empty response body"
	}

	return msg
}
