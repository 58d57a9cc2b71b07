package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

type PlaybackService interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string, clip *timeline.Range) error
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{logger: logging.WithComponent(logger, "playback")}
}

// ServeFile streams filePath honouring a Range header. When clip is set the
// response advertises the segment to play through X-Clip-Start, X-Clip-End
// and a Content-Location carrying the media fragment.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string, clip *timeline.Range) error {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	contentType := media.ContentType(filePath)

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", contentType)
	if clip != nil {
		h.Set("X-Clip-Start", timeline.FormatSeconds(clip.Start))
		h.Set("X-Clip-End", timeline.FormatSeconds(clip.End))
		h.Set("Content-Location", r.URL.Path+"#"+FormatFragment(*clip))
	}

	br, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, ErrInvalidRange):
		// A malformed Range header is ignored and the whole file is sent.
		br = nil
	case err != nil:
		return err
	}

	if br == nil {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		n, _ := io.Copy(w, file)
		s.logger.Debug("served file", "path", logging.SanitizePath(filePath), "bytes", logging.Bytes(n))
		return nil
	}

	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	h.Set("Content-Length", strconv.FormatInt(br.ContentLength(), 10))
	h.Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	n, _ := io.CopyN(w, file, br.ContentLength())
	s.logger.Debug("served range", "path", logging.SanitizePath(filePath), "range", br.ContentRange(size), "bytes", logging.Bytes(n))
	return nil
}
