// Package rest implements the transport over the remote service's REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"golang.org/x/oauth2"

	"github.com/satishbabariya/prisma-soql/internal/debug"
)

const (
	// DefaultLoginURL is the production login endpoint.
	DefaultLoginURL = "https://login.salesforce.com"
	// DefaultAPIVersion is used when Config.APIVersion is empty.
	DefaultAPIVersion = "58.0"
	// DefaultBatchSize is the composite API limit of records per request.
	DefaultBatchSize = 200
)

// MinAPIVersion is the oldest API version with composite sobject support.
var MinAPIVersion = version.Must(version.NewVersion("20.0"))

// Config holds the connection settings.
type Config struct {
	LoginURL      string
	APIVersion    string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
	Timeout       time.Duration
}

// Client is an authenticated session with the REST API.
type Client struct {
	instanceURL string
	apiPath     string
	http        *http.Client
	batchSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithBatchSize sets the number of records sent per composite request.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// APIPath returns the versioned data path, e.g. "/services/data/v58.0".
func APIPath(apiVersion string) (string, error) {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	v, err := version.NewVersion(apiVersion)
	if err != nil {
		return "", fmt.Errorf("invalid api version %q: %w", apiVersion, err)
	}
	if v.LessThan(MinAPIVersion) {
		return "", fmt.Errorf("api version %s is older than %s", v, MinAPIVersion)
	}
	segments := v.Segments()
	return fmt.Sprintf("/services/data/v%d.%d", segments[0], segments[1]), nil
}

// Login authenticates with the username/password flow and returns a client
// bound to the instance named in the token response.
func Login(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	apiPath, err := APIPath(cfg.APIVersion)
	if err != nil {
		return nil, err
	}

	loginURL := cfg.LoginURL
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(loginURL, "/") + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	token, err := conf.PasswordCredentialsToken(ctx, cfg.Username, cfg.Password+cfg.SecurityToken)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	instanceURL, _ := token.Extra("instance_url").(string)
	if instanceURL == "" {
		return nil, errors.New("login failed: token response has no instance_url")
	}
	debug.Info("Logged in", "instance", instanceURL, "api", apiPath)

	httpClient := conf.Client(ctx, token)
	httpClient.Timeout = cfg.Timeout
	return newClient(instanceURL, apiPath, httpClient, opts), nil
}

// New creates a client from an existing access token.
func New(ctx context.Context, instanceURL, accessToken, apiVersion string, opts ...Option) (*Client, error) {
	apiPath, err := APIPath(apiVersion)
	if err != nil {
		return nil, err
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return newClient(instanceURL, apiPath, oauth2.NewClient(ctx, src), opts), nil
}

func newClient(instanceURL, apiPath string, httpClient *http.Client, opts []Option) *Client {
	c := &Client{
		instanceURL: strings.TrimRight(instanceURL, "/"),
		apiPath:     apiPath,
		http:        httpClient,
		batchSize:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InstanceURL returns the base URL of the instance.
func (c *Client) InstanceURL() string {
	return c.instanceURL
}

// do sends a request and decodes a JSON answer into out. Paths starting with
// "/" are resolved against the instance, others against the API path.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !strings.HasPrefix(path, "/services/") {
		path = c.apiPath + "/" + strings.TrimLeft(path, "/")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.instanceURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	debug.Debug("REST request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return responseError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
