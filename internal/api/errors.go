package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/heimdex/heimdex-clipper/internal/catalog"
	"github.com/heimdex/heimdex-clipper/internal/export"
	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/session"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{timeline.ErrTooClose, http.StatusUnprocessableEntity, "SPLIT_TOO_CLOSE"},
	{timeline.ErrFrameCollision, http.StatusUnprocessableEntity, "SPLIT_FRAME_COLLISION"},
	{timeline.ErrNearBoundary, http.StatusUnprocessableEntity, "SPLIT_NEAR_BOUNDARY"},
	{timeline.ErrTooManySplits, http.StatusUnprocessableEntity, "SPLIT_LIMIT"},
	{timeline.ErrTrimTooShort, http.StatusUnprocessableEntity, "TRIM_TOO_SHORT"},
	{session.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{session.ErrUnknownSplit, http.StatusNotFound, "NOT_FOUND"},
	{catalog.ErrMediaNotFound, http.StatusNotFound, "NOT_FOUND"},
	{session.ErrNoDrag, http.StatusConflict, "NO_DRAG"},
	{session.ErrInvalidDrag, http.StatusBadRequest, "BAD_REQUEST"},
	{session.ErrBadViewport, http.StatusBadRequest, "BAD_REQUEST"},
	{catalog.ErrNotVideo, http.StatusBadRequest, "UNSUPPORTED_MEDIA"},
	{media.ErrNoDuration, http.StatusUnprocessableEntity, "NO_DURATION"},
	{catalog.ErrMediaFailed, http.StatusConflict, "MEDIA_FAILED"},
	{export.ErrInvalidOutputDir, http.StatusBadRequest, "INVALID_OUTPUT_DIR"},
	{export.ErrNothingToExport, http.StatusUnprocessableEntity, "NOTHING_TO_EXPORT"},
}

// writeDomainError maps a service error onto a status and error code.
// Unknown errors are logged and reported as 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			WriteError(w, m.status, err.Error(), m.code)
			return
		}
	}
	logger.Error("request failed", "error", err)
	WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}
