package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Item is one artifact uploaded to the blob store: a secret note
// addressed by its identifier, or an asset addressed by filename.
type Item struct {
	ID   string // blob-store address
	Name string // original filename, carried in the form field
	Data []byte
}

// BlobStore uploads artifacts individually to an authenticated endpoint.
// Unlike the git sink this is not a transaction: items succeed or fail
// independently and completed uploads are never rolled back.
type BlobStore struct {
	BaseURL string
	Secret  string
	Client  *http.Client
}

// NewBlobStore creates a sink for the store at baseURL.
func NewBlobStore(baseURL, secret string) *BlobStore {
	return &BlobStore{BaseURL: baseURL, Secret: secret, Client: http.DefaultClient}
}

// Upload sends one item as a multipart POST, authenticated via the
// shared-secret query parameter.
func (b *BlobStore) Upload(ctx context.Context, item Item) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", item.Name)
	if err != nil {
		return fmt.Errorf("sink: blobstore: form file: %w", err)
	}
	if _, err := part.Write(item.Data); err != nil {
		return fmt.Errorf("sink: blobstore: write part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sink: blobstore: close form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?secret=%s",
		strings.TrimRight(b.BaseURL, "/"), url.PathEscape(item.ID), url.QueryEscape(b.Secret))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("sink: blobstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := b.client().Do(req)
	if err != nil {
		return fmt.Errorf("sink: blobstore: upload %s: %w", item.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sink: blobstore: upload %s: HTTP %d: %s", item.ID, resp.StatusCode, snippet)
	}
	return nil
}

// UploadBatch uploads items concurrently. A failing item does not cancel
// its siblings; per-item errors are collected and returned together.
func (b *BlobStore) UploadBatch(ctx context.Context, items []Item) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Upload(ctx, item); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}

// Upgrade calls the store's upgrade endpoint and returns its plain-text
// status string.
func (b *BlobStore) Upgrade(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/upgrade?secret=%s",
		strings.TrimRight(b.BaseURL, "/"), url.QueryEscape(b.Secret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("sink: blobstore: build request: %w", err)
	}
	resp, err := b.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("sink: blobstore: upgrade: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sink: blobstore: upgrade: HTTP %d", resp.StatusCode)
	}
	status, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("sink: blobstore: read status: %w", err)
	}
	return strings.TrimSpace(string(status)), nil
}

func (b *BlobStore) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}
