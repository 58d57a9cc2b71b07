// Package ui is the system tray menu of the clipper agent.
package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/heimdex/heimdex-clipper/internal/catalog"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 3 * time.Second

// Status labels shown in the tray.
const (
	StatusIdle      = "Idle"
	StatusExporting = "Exporting"
	StatusPaused    = "Paused"
)

type Tray struct {
	catalogSvc catalog.CatalogService
	runner     *catalog.Runner
	logger     *slog.Logger

	statusItem *systray.MenuItem
	mediaItem  *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onQuit func()
	stop   context.CancelFunc
}

type TrayConfig struct {
	CatalogService catalog.CatalogService
	Runner         *catalog.Runner
	Logger         *slog.Logger
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		catalogSvc: cfg.CatalogService,
		runner:     cfg.Runner,
		logger:     cfg.Logger,
		onQuit:     cfg.OnQuit,
	}
}

// Run blocks on the platform event loop until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Clipper")
	systray.SetTooltip("Heimdex Clipper")

	t.statusItem = systray.AddMenuItem("Status: "+StatusIdle, "Export runner status")
	t.statusItem.Disable()

	t.mediaItem = systray.AddMenuItem("Media: 0", "Loaded media")
	t.mediaItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause exports")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Clipper")

	ctx, cancel := context.WithCancel(context.Background())
	t.stop = cancel
	go t.refreshLoop(ctx)

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	if t.stop != nil {
		t.stop()
	}
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		t.refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Tray) refresh(ctx context.Context) {
	if t.catalogSvc != nil {
		if n, err := t.catalogSvc.CountMedia(ctx); err == nil {
			t.UpdateMediaCount(n)
		}
	}
	t.UpdateStatus(StatusFor(t.runner))
}

// StatusFor derives the tray label from the runner state.
func StatusFor(r *catalog.Runner) string {
	switch {
	case r == nil:
		return StatusIdle
	case r.IsPaused():
		return StatusPaused
	case r.IsBusy():
		return StatusExporting
	default:
		return StatusIdle
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: " + StatusIdle)
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: " + StatusPaused)
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateMediaCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mediaItem == nil {
		return
	}
	t.mediaItem.SetTitle(fmt.Sprintf("Media: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
