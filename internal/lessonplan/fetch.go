package lessonplan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrDocumentTooLarge    = errors.New("cronograma excede o tamanho máximo permitido")
	ErrUnsupportedDocument = errors.New("formato de cronograma não suportado, envie um PDF ou imagem")
	ErrInvalidLink         = errors.New("link do cronograma inválido")
)

var driveFileID = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)

// Document is a fetched lesson plan.
type Document struct {
	Data     []byte
	MIMEType string
	Source   string
}

// HTTPFetcher downloads lesson plan documents over HTTP.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher with a request timeout and size cap.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

// Fetch downloads ref and sniffs its content type.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (Document, error) {
	target, err := DownloadURL(ref)
	if err != nil {
		return Document{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("falha na requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Document{}, fmt.Errorf("servidor respondeu com status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("falha ao ler resposta: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Document{}, ErrDocumentTooLarge
	}

	mime := mimetype.Detect(data)
	if !mime.Is("application/pdf") && !strings.HasPrefix(mime.String(), "image/") {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mime.String())
	}
	mediaType := mime.String()
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return Document{Data: data, MIMEType: mediaType, Source: target}, nil
}

// DownloadURL validates ref and turns Google Drive share links into direct
// download links.
func DownloadURL(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, ref)
	}
	if u.Host != "drive.google.com" {
		return u.String(), nil
	}
	id := ""
	if m := driveFileID.FindStringSubmatch(u.Path); m != nil {
		id = m[1]
	} else if u.Path == "/open" || u.Path == "/uc" {
		id = u.Query().Get("id")
	}
	if id == "" {
		return u.String(), nil
	}
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(id), nil
}
