// Package browser manages the Chrome connection and captures enhanced
// DOM snapshots over CDP: light DOM, pierced shadow roots, and frame
// content documents in one call.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Stealth applies anti-detection patches to new pages.
	Stealth bool

	// NavigateTimeout bounds one navigation including load. Default 30s.
	NavigateTimeout time.Duration

	// CollectBounds fetches layout boxes for captured elements, one CDP
	// round-trip per element. Off by default.
	CollectBounds bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the Chrome connection and page creation.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a browser Manager. Call Start to connect.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start connects to the configured remote Chrome, or launches a local
// headless instance.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	log := m.cfg.Logger
	wsURL := m.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL)
	} else {
		log.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	m.browser = b
	return nil
}

// NewPage opens a page, with stealth patches when configured.
func (m *Manager) NewPage() (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	if m.cfg.Stealth {
		page, err := stealth.Page(b)
		if err != nil {
			return nil, fmt.Errorf("browser: stealth page: %w", err)
		}
		return page, nil
	}
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	return page, nil
}

// Navigate loads a URL and waits for the load event, bounded by the
// configured timeout. A load-wait failure is logged, not fatal: heavy
// pages with hanging subresources are still usable for capture.
func (m *Manager) Navigate(page *rod.Page, url string) error {
	page = page.Timeout(m.cfg.NavigateTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: load wait incomplete", "url", url, "error", err)
	}
	return nil
}

// Close shuts down the browser and any local launcher.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}
