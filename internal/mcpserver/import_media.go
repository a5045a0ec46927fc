package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/storage"
)

const maxImportSize = 10 << 20 // 10 MB

type importResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

func (s *Server) importMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		data        []byte
		detectedExt string
	)
	if strings.HasPrefix(rawURL, "data:") {
		data, detectedExt, err = decodeDataURI(rawURL)
	} else {
		data, detectedExt, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxImportSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxImportSize)), nil
	}

	filename := req.GetString("filename", "")
	if filename == "" {
		filename = filenameFromURL(rawURL, detectedExt)
	}
	if !storage.IsMediaFile(filename) && detectedExt != "" {
		filename += detectedExt
	}
	if !storage.IsMediaFile(filename) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file type: %s", path.Ext(filename))), nil
	}
	if err := validateMagicBytes(data, strings.ToLower(path.Ext(filename))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m, err := s.svc.UploadMedia(ctx, blog.Upload{
		Filename: filename,
		Data:     data,
		Alt:      req.GetString("alt", ""),
		Caption:  req.GetString("caption", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store media: %v", err)), nil
	}
	return jsonResult(importResult{
		ID:       m.ID,
		URL:      m.URL,
		Filename: m.Filename,
		Width:    m.Width,
		Height:   m.Height,
	}), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := storage.ExtFor(mime)
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}
	return data, ext, nil
}

// fetchHTTP downloads an image from an http(s) URL. Loopback and cloud
// metadata hosts are refused, including on redirects.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxImportSize {
		return nil, "", fmt.Errorf("file too large: exceeds %d bytes", maxImportSize)
	}

	ct := resp.Header.Get("Content-Type")
	return data, storage.ExtFor(strings.TrimSpace(strings.Split(ct, ";")[0])), nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// filenameFromURL takes the last path segment of the URL, falling back to
// a random name with ext.
func filenameFromURL(rawURL, ext string) string {
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
				return base
			}
		}
	}
	return uuid.NewString() + ext
}

// validateMagicBytes verifies file content matches the extension.
func validateMagicBytes(data []byte, ext string) error {
	if ext == ".svg" {
		prefix := data
		if len(prefix) > 1024 {
			prefix = prefix[:1024]
		}
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}
	if ext == ".avif" {
		// not sniffed by net/http
		return nil
	}

	detected := http.DetectContentType(data)
	got := storage.ExtFor(strings.Split(detected, ";")[0])
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if got != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
