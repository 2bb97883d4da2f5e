package lessonplan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPDF(t *testing.T) {
	srv := serve(t, http.StatusOK, pdfBytes)
	doc, err := NewHTTPFetcher(time.Second, 1024).Fetch(context.Background(), srv.URL+"/plano.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.MIMEType)
	assert.Equal(t, pdfBytes, doc.Data)
}

func TestFetchImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	srv := serve(t, http.StatusOK, png)
	doc, err := NewHTTPFetcher(time.Second, 1024).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.MIMEType)
}

func TestFetchRejectsHTML(t *testing.T) {
	srv := serve(t, http.StatusOK, []byte("<!DOCTYPE html><html><body>login</body></html>"))
	_, err := NewHTTPFetcher(time.Second, 1024).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestFetchTooLarge(t *testing.T) {
	srv := serve(t, http.StatusOK, pdfBytes)
	_, err := NewHTTPFetcher(time.Second, 10).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestFetchUpstreamStatus(t *testing.T) {
	srv := serve(t, http.StatusNotFound, nil)
	_, err := NewHTTPFetcher(time.Second, 1024).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestDownloadURL(t *testing.T) {
	cases := map[string]string{
		"https://drive.google.com/file/d/abc_123-X/view?usp=sharing": "https://drive.google.com/uc?export=download&id=abc_123-X",
		"https://drive.google.com/open?id=xyz":                       "https://drive.google.com/uc?export=download&id=xyz",
		"https://example.com/plano.pdf":                              "https://example.com/plano.pdf",
	}
	for in, want := range cases {
		got, err := DownloadURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "ftp://example.com/a.pdf", "plano.pdf"} {
		_, err := DownloadURL(bad)
		assert.ErrorIs(t, err, ErrInvalidLink, bad)
	}
}
