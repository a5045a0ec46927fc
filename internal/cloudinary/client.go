// Package cloudinary forwards uploads to the Cloudinary upload API.
package cloudinary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	cldconfig "github.com/cloudinary/cloudinary-go/v2/config"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://api.cloudinary.com"

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary: not configured")

// Config holds the account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// BaseURL replaces the API host, e.g. for a local stand-in.
	BaseURL string
}

// Configured reports whether all credentials are present.
func (c Config) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// UpstreamError is an error answer from the API.
type UpstreamError struct {
	Op      string
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("cloudinary: %s: %s", e.Op, e.Message)
}

// Client talks to the upload and admin APIs through the Cloudinary SDK.
type Client struct {
	cfg     Config
	sdk     *cld.Cloudinary
	initErr error
}

// New creates a client. Without credentials every call returns
// ErrNotConfigured.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{cfg: cfg}
	if !cfg.Configured() {
		return c
	}
	conf, err := cldconfig.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		c.initErr = fmt.Errorf("cloudinary: config: %w", err)
		return c
	}
	conf.API.UploadPrefix = cfg.BaseURL
	c.sdk, c.initErr = cld.NewFromConfiguration(*conf)
	return c
}

// Configured reports whether uploads can be attempted.
func (c *Client) Configured() bool { return c.cfg.Configured() }

// Credentials reports which of the three credentials are set.
type Credentials struct {
	CloudName bool
	APIKey    bool
	APISecret bool
}

// Credentials reports which credentials are present without exposing them.
func (c *Client) Credentials() Credentials {
	return Credentials{
		CloudName: c.cfg.CloudName != "",
		APIKey:    c.cfg.APIKey != "",
		APISecret: c.cfg.APISecret != "",
	}
}

// CloudName returns the configured cloud name.
func (c *Client) CloudName() string { return c.cfg.CloudName }

func (c *Client) ready() error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return c.initErr
}

// Upload sends file to the auto-detecting upload endpoint and returns the
// API's JSON answer.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	res, err := c.sdk.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:           c.cfg.Folder,
		ResourceType:     "auto",
		FilenameOverride: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, &UpstreamError{Op: "upload", Message: res.Error.Message}
	}
	return rawResponse(res.Response, res)
}

// Ping checks the credentials against the admin API.
func (c *Client) Ping(ctx context.Context) (json.RawMessage, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	res, err := c.sdk.Admin.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: ping: %w", err)
	}
	if res.Error.Message != "" {
		return nil, &UpstreamError{Op: "ping", Message: res.Error.Message}
	}
	return rawResponse(res.Response, res)
}

// rawResponse re-encodes the decoded API body. fallback is used when the
// SDK kept no raw body.
func rawResponse(body any, fallback any) (json.RawMessage, error) {
	if body == nil {
		body = fallback
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: encode response: %w", err)
	}
	return raw, nil
}
