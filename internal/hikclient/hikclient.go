package hikclient

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/icholy/digest"

	"github.com/shpavel7/hik-log-dump-raw/internal/config"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func (c *Client) Post(path string, headers map[string]string, data []byte) ([]byte, error) {
	url := c.baseURL + path
	request, err := http.NewRequest("POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	return c.doRequest(request)
}

func (c *Client) doRequest(request *http.Request) ([]byte, error) {
	slog.Debug("Making HTTP request", "method", request.Method, "url", request.URL.String())

	resp, err := c.httpClient.Do(request)
	if err != nil {
		slog.Debug("HTTP request failed", "error", err, "url", request.URL.String())
		return nil, err
	}
	defer resp.Body.Close()

	slog.Debug("HTTP response received", "status_code", resp.StatusCode, "url", request.URL.String())

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("Failed to read response body", "error", err)
		return nil, err
	}

	slog.Debug("HTTP request completed successfully", "response_size", len(body), "url", request.URL.String())
	return body, nil
}

func NewClient(config config.ClientConfig) *Client {
	var baseURL string
	if config.UseTLS {
		baseURL = fmt.Sprintf("https://%s", config.Host)
	} else {
		baseURL = fmt.Sprintf("http://%s", config.Host)
	}

	var tlsConfig *tls.Config
	if config.UseTLS {
		tlsConfig = &tls.Config{InsecureSkipVerify: !config.VerifyTLS}
	}

	// The recorder answers with a digest challenge; the transport replays
	// each request with the credentials.
	transport := &digest.Transport{
		Username: config.Username,
		Password: config.Password,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

func NewClientWithHTTPClient(config config.ClientConfig, httpClient *http.Client) *Client {
	var baseURL string
	if config.UseTLS {
		baseURL = fmt.Sprintf("https://%s", config.Host)
	} else {
		baseURL = fmt.Sprintf("http://%s", config.Host)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}
