package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/casefolio/internal/assets"
)

const maxAssetSize = 10 << 20

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type assetResult struct {
	*assets.Saved
	Markdown string `json:"markdown"`
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		data []byte
		ext  string
	)
	if strings.HasPrefix(raw, "data:") {
		data, ext, err = decodeDataURI(raw)
	} else {
		data, ext, err = fetchImage(ctx, raw)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("filename", "")
	if name == "" {
		name = nameFromURL(raw, ext)
	}
	if err := checkContent(data, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	saved, err := s.lib.Save(name, bytes.NewReader(data))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save asset: %v", err)), nil
	}
	out, _ := json.Marshal(assetResult{
		Saved:    saved,
		Markdown: fmt.Sprintf("![%s](%s)", strings.TrimSuffix(saved.Filename, filepath.Ext(saved.Filename)), saved.Path),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses data:image/<kind>;base64,<payload>.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", errors.New("invalid data URI: missing comma")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, "", errors.New("only base64 data URIs are supported")
	}
	ext, ok := imageExt[mime]
	if !ok {
		return nil, "", fmt.Errorf("unsupported media type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("invalid base64: %w", err)
		}
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("asset too large: %d bytes", len(data))
	}
	return data, ext, nil
}

// assetClient re-checks every address it actually connects to, so a name
// that resolves differently at dial time than in checkHost, or a redirect,
// still cannot reach an internal target. Proxies are not used for the same
// reason.
var assetClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   dialControl,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		return checkHost(req.URL.Hostname())
	},
}

func fetchImage(ctx context.Context, raw string) ([]byte, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err := checkHost(u.Hostname()); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := assetClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, "", fmt.Errorf("asset too large: over %d bytes", maxAssetSize)
	}
	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return data, imageExt[strings.TrimSpace(mime)], nil
}

// checkHost rejects names and literal addresses that point inward before
// any request is made.
func checkHost(host string) error {
	if host == "" || host == "localhost" || host == "metadata.google.internal" {
		return fmt.Errorf("blocked host %q", host)
	}
	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return nil //nolint:nilerr // the client reports DNS failures
		}
		ips = resolved
	}
	for _, ip := range ips {
		if blockedIP(ip) {
			return fmt.Errorf("blocked host %q", host)
		}
	}
	return nil
}

// dialControl runs after resolution, right before connect.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("blocked address %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || blockedIP(ip) {
		return fmt.Errorf("blocked address %q", address)
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast()
}

func nameFromURL(raw, ext string) string {
	if ext == "" {
		ext = ".bin"
	}
	if !strings.HasPrefix(raw, "data:") {
		if u, err := url.Parse(raw); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") && base != "." {
				return base
			}
		}
	}
	return uuid.NewString() + ext
}

// checkContent makes sure the bytes are an image of the kind the name
// claims.
func checkContent(data []byte, name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !assets.IsImage(name) {
		return fmt.Errorf("unsupported extension %q (png, jpg, jpeg, gif, webp)", ext)
	}
	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	want := imageExt[detected]
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if want != ext {
		return fmt.Errorf("content does not match %s (detected %s)", name, detected)
	}
	return nil
}
