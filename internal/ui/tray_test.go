package ui

import (
	"bytes"
	"testing"

	"github.com/heimdex/heimdex-clipper/internal/catalog"
	"github.com/heimdex/heimdex-clipper/internal/logging"
)

func TestStatusFor(t *testing.T) {
	if got := StatusFor(nil); got != StatusIdle {
		t.Errorf("StatusFor(nil) = %q, want %q", got, StatusIdle)
	}

	r := catalog.NewRunner(nil, nil, nil, logging.Discard())
	if got := StatusFor(r); got != StatusIdle {
		t.Errorf("idle runner = %q, want %q", got, StatusIdle)
	}

	r.Pause()
	if got := StatusFor(r); got != StatusPaused {
		t.Errorf("paused runner = %q, want %q", got, StatusPaused)
	}
}

func TestIconIsPNG(t *testing.T) {
	if !bytes.HasPrefix(iconBytes, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("embedded icon is not a PNG")
	}
}

func TestUpdatesBeforeReady(t *testing.T) {
	tr := NewTray(TrayConfig{Logger: logging.Discard()})
	tr.UpdateStatus(StatusExporting)
	tr.UpdateMediaCount(3)
}
