// Package browser launches the Chrome session the registration run drives
// and drains its protocol events in the background.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"coursesniper/internal/page"
)

// drainJoinTimeout bounds how long Close waits for the drain goroutine.
const drainJoinTimeout = 5 * time.Second

// Config configures the session.
type Config struct {
	// Headless runs without a visible window (--detached).
	Headless bool
	// ProfileDir is Chrome's user data dir. Empty uses a throwaway profile.
	ProfileDir string
	// Bin is the Chrome binary. Empty looks for a system Chrome and falls
	// back to rod's managed download.
	Bin    string
	Logger *slog.Logger
}

// Session is one browser with one stealth tab.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *page.Rod
	logger   *slog.Logger

	stopDrain context.CancelFunc
	drained   chan struct{}
}

// Launch starts Chrome, clears cookies and opens a stealth tab.
func Launch(ctx context.Context, cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The browser is not bound to ctx; Close tears it down.
	// Leakless deadlocks on Windows: https://github.com/go-rod/rod/issues/853
	l := launcher.New().
		Leakless(runtime.GOOS != "windows").
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled")

	if cfg.ProfileDir != "" {
		l = l.UserDataDir(cfg.ProfileDir)
	}

	bin := cfg.Bin
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	if bin != "" {
		l = l.Bin(bin)
		log.Debug("using chrome binary", "path", bin)
	} else {
		log.Info("system chrome not found, using managed chromium")
	}

	url, err := l.Launch()
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "ProcessSingleton") || strings.Contains(msg, "SingletonLock") {
			return nil, fmt.Errorf("browser: profile %s is in use by another chrome, close it first: %w", cfg.ProfileDir, err)
		}
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	s := &Session{browser: b, launcher: l, logger: log}

	if err := b.SetCookies(nil); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: clear cookies: %w", err)
	}

	p, err := stealth.Page(b)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create stealth page: %w", err)
	}
	s.page = page.NewRod(p)

	log.Info("browser launched", "headless", cfg.Headless)
	return s, nil
}

// Page is the session's tab.
func (s *Session) Page() *page.Rod {
	return s.page
}

// Drain consumes the tab's protocol events until ctx is done or Close is
// called. JavaScript dialogs are accepted so they cannot block the run.
func (s *Session) Drain(ctx context.Context) {
	if s.page == nil || s.drained != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stopDrain = cancel
	s.drained = make(chan struct{})

	raw := s.page.Raw()
	wait := raw.Context(ctx).EachEvent(
		func(e *proto.PageJavascriptDialogOpening) {
			s.logger.Warn("accepting page dialog", "type", e.Type, "message", e.Message)
			go func() {
				if err := (proto.PageHandleJavaScriptDialog{Accept: true}).Call(raw); err != nil {
					s.logger.Debug("dialog accept failed", "error", err)
				}
			}()
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame != nil && e.Frame.ParentID == "" {
				s.logger.Debug("navigated", "url", e.Frame.URL)
			}
		},
		func(e *proto.PageLoadEventFired) {
			s.logger.Debug("page loaded")
		},
	)

	go func() {
		defer close(s.drained)
		wait()
	}()
}

// Close stops the drain, waits for it to finish and tears the browser
// down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.stopDrain != nil {
		s.stopDrain()
		select {
		case <-s.drained:
		case <-time.After(drainJoinTimeout):
			s.logger.Warn("event drain did not stop in time")
		}
		s.stopDrain = nil
	}

	var firstErr error
	if s.page != nil {
		if err := s.page.Raw().Close(); err != nil {
			s.logger.Debug("close page", "error", err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = fmt.Errorf("browser: close: %w", err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
	s.logger.Info("browser closed")
	return firstErr
}
