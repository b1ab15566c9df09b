// Package sink implements the two publish destinations: a git-tree commit
// against a version-control API and an authenticated blob store.
package sink

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Page is one rendered public note destined for the static site.
type Page struct {
	Path string // vault-relative path, .md extension
	HTML string
}

// Blob is one binary asset destined for the static site.
type Blob struct {
	Path string
	Data []byte
}

// GitHub publishes public pages and assets as a single atomic commit via
// the git data API: blobs, a layered tree, a commit, and a ref update.
type GitHub struct {
	BaseURL string // default https://api.github.com
	Repo    string // "owner/name"
	Branch  string
	Token   string
	Client  *http.Client
}

// NewGitHub creates a sink targeting the given repository and branch.
func NewGitHub(repo, branch, token string) *GitHub {
	return &GitHub{
		BaseURL: "https://api.github.com",
		Repo:    repo,
		Branch:  branch,
		Token:   token,
		Client:  http.DefaultClient,
	}
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type commitResponse struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

type shaResponse struct {
	SHA string `json:"sha"`
}

type treeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// PublishCommit builds one commit layering the given pages and assets
// over the current branch head. If any blob upload fails, no tree or
// commit is created and the branch is untouched.
func (g *GitHub) PublishCommit(ctx context.Context, pages []Page, assets []Blob, message string) error {
	headSHA, baseTree, err := g.head(ctx)
	if err != nil {
		return err
	}

	var entries []treeEntry
	for _, p := range pages {
		sha, err := g.createBlob(ctx, p.HTML, "utf-8")
		if err != nil {
			return fmt.Errorf("sink: github: blob for %s: %w", p.Path, err)
		}
		entries = append(entries, treeEntry{
			Path: htmlPath(p.Path),
			Mode: "100644",
			Type: "blob",
			SHA:  sha,
		})
	}
	for _, a := range assets {
		sha, err := g.createBlob(ctx, base64.StdEncoding.EncodeToString(a.Data), "base64")
		if err != nil {
			return fmt.Errorf("sink: github: blob for %s: %w", a.Path, err)
		}
		entries = append(entries, treeEntry{
			Path: a.Path,
			Mode: "100644",
			Type: "blob",
			SHA:  sha,
		})
	}

	var tree shaResponse
	if err := g.call(ctx, http.MethodPost, "/git/trees", map[string]any{
		"base_tree": baseTree,
		"tree":      entries,
	}, &tree); err != nil {
		return fmt.Errorf("sink: github: create tree: %w", err)
	}

	var commit shaResponse
	if err := g.call(ctx, http.MethodPost, "/git/commits", map[string]any{
		"message": message,
		"tree":    tree.SHA,
		"parents": []string{headSHA},
	}, &commit); err != nil {
		return fmt.Errorf("sink: github: create commit: %w", err)
	}

	if err := g.call(ctx, http.MethodPatch, "/git/refs/heads/"+g.Branch, map[string]any{
		"sha": commit.SHA,
	}, nil); err != nil {
		return fmt.Errorf("sink: github: update ref: %w", err)
	}
	return nil
}

// head returns the branch head commit SHA and its tree SHA.
func (g *GitHub) head(ctx context.Context) (string, string, error) {
	var ref refResponse
	if err := g.call(ctx, http.MethodGet, "/git/refs/heads/"+g.Branch, nil, &ref); err != nil {
		return "", "", fmt.Errorf("sink: github: get ref: %w", err)
	}
	var commit commitResponse
	if err := g.call(ctx, http.MethodGet, "/git/commits/"+ref.Object.SHA, nil, &commit); err != nil {
		return "", "", fmt.Errorf("sink: github: get commit: %w", err)
	}
	return ref.Object.SHA, commit.Tree.SHA, nil
}

func (g *GitHub) createBlob(ctx context.Context, content, encoding string) (string, error) {
	var blob shaResponse
	if err := g.call(ctx, http.MethodPost, "/git/blobs", map[string]any{
		"content":  content,
		"encoding": encoding,
	}, &blob); err != nil {
		return "", err
	}
	return blob.SHA, nil
}

// call performs one authenticated JSON request against the repo API.
func (g *GitHub) call(ctx context.Context, method, path string, body any, out any) error {
	url := fmt.Sprintf("%s/repos/%s%s", strings.TrimRight(g.BaseURL, "/"), g.Repo, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (g *GitHub) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

// htmlPath rewrites a note path to its published .html form.
func htmlPath(path string) string {
	return strings.TrimSuffix(path, ".md") + ".html"
}
