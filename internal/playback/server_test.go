package playback

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

func writeMedia(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(p, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestServeFile(t *testing.T) {
	path := writeMedia(t)
	srv := NewServer(nil)

	tests := []struct {
		name       string
		rangeHdr   string
		wantStatus int
		wantBody   string
		wantRange  string
	}{
		{"whole file", "", http.StatusOK, "0123456789", ""},
		{"partial", "bytes=2-5", http.StatusPartialContent, "2345", "bytes 2-5/10"},
		{"suffix", "bytes=-3", http.StatusPartialContent, "789", "bytes 7-9/10"},
		{"malformed ignored", "pages=1", http.StatusOK, "0123456789", ""},
		{"unsatisfiable", "bytes=50-", http.StatusRequestedRangeNotSatisfiable, "", "bytes */10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
			if tt.rangeHdr != "" {
				req.Header.Set("Range", tt.rangeHdr)
			}
			rec := httptest.NewRecorder()

			if err := srv.ServeFile(rec, req, path, nil); err != nil {
				t.Fatalf("ServeFile() error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantRange)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(rec.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
			if rec.Header().Get("Content-Type") != "video/mp4" && tt.wantStatus != http.StatusRequestedRangeNotSatisfiable {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServeFile_ClipHeaders(t *testing.T) {
	path := writeMedia(t)
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	rec := httptest.NewRecorder()

	clip := timeline.Range{Start: 10, End: 20.5}
	if err := NewServer(nil).ServeFile(rec, req, path, &clip); err != nil {
		t.Fatal(err)
	}
	h := rec.Header()
	if h.Get("X-Clip-Start") != "10.000" || h.Get("X-Clip-End") != "20.500" {
		t.Errorf("clip headers = %q %q", h.Get("X-Clip-Start"), h.Get("X-Clip-End"))
	}
	if h.Get("Content-Location") != "/playback/file#t=10.000,20.500" {
		t.Errorf("Content-Location = %q", h.Get("Content-Location"))
	}
}

func TestServeFile_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	rec := httptest.NewRecorder()
	if err := NewServer(nil).ServeFile(rec, req, filepath.Join(t.TempDir(), "gone.mp4"), nil); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
