// Package inputs resolves batch input references to readable content.
//
// A Ref is an opaque string: a local path, a file:// URI, or an http(s) URL.
// Local references are addressable in place; remote ones are opened as a
// stream and staged by the caller.
package inputs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Ref identifies one input.
type Ref string

// String returns the reference as given.
func (r Ref) String() string { return string(r) }

// LocalPath returns the filesystem path for local references.
func (r Ref) LocalPath() (string, bool) {
	raw := strings.TrimSpace(string(r))
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "file://") {
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	if strings.Contains(raw, "://") {
		return "", false
	}
	return raw, true
}

// DisplayName returns the last path segment, which is what a user recognises
// the input by.
func (r Ref) DisplayName() string {
	if p, ok := r.LocalPath(); ok {
		return filepath.Base(p)
	}
	raw := strings.TrimSpace(string(r))
	if u, err := url.Parse(raw); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			if unescaped, err := url.PathUnescape(base); err == nil {
				return unescaped
			}
			return base
		}
		if u.Host != "" {
			return u.Host
		}
	}
	return "input"
}

func isRemote(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Refs converts raw strings, dropping blanks.
func Refs(values []string) []Ref {
	refs := make([]Ref, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		refs = append(refs, Ref(strings.TrimSpace(v)))
	}
	return refs
}

// ErrUnsupported is returned for references no opener understands.
var ErrUnsupported = errors.New("unsupported input reference")

// Content is an opened input.
type Content struct {
	Body        io.ReadCloser
	DisplayName string
}

// Opener opens the content behind a Ref.
type Opener interface {
	Open(ctx context.Context, ref Ref) (Content, error)
}

// Source opens local files and http(s) URLs.
type Source struct {
	Client *http.Client
}

// NewSource returns a Source using client, or http.DefaultClient when nil.
func NewSource(client *http.Client) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{Client: client}
}

// Open returns a stream over the referenced content.
func (s *Source) Open(ctx context.Context, ref Ref) (Content, error) {
	if p, ok := ref.LocalPath(); ok {
		f, err := os.Open(p)
		if err != nil {
			return Content{}, err
		}
		return Content{Body: f, DisplayName: filepath.Base(p)}, nil
	}
	raw := strings.TrimSpace(ref.String())
	if !isRemote(raw) {
		return Content{}, fmt.Errorf("%w: %q", ErrUnsupported, raw)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Content{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Content{}, fmt.Errorf("fetch %s: %w", raw, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return Content{}, fmt.Errorf("fetch %s: status %s", raw, resp.Status)
	}
	name := ref.DisplayName()
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := strings.TrimSpace(params["filename"]); fn != "" {
				name = filepath.Base(fn)
			}
		}
	}
	return Content{Body: resp.Body, DisplayName: name}, nil
}
