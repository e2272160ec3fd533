package waweb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
)

func TestNew_defaultsNavTimeout(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	if c.cfg.NavTimeout != defaultNavTimeout {
		t.Errorf("NavTimeout = %v, want %v", c.cfg.NavTimeout, defaultNavTimeout)
	}

	c = New(Config{NavTimeout: 5 * time.Second}, zerolog.Nop())

	if c.cfg.NavTimeout != 5*time.Second {
		t.Errorf("NavTimeout = %v, want %v", c.cfg.NavTimeout, 5*time.Second)
	}
}

func TestPing_withoutBrowser(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	if err := c.Ping(context.Background()); !errors.Is(err, errs.ErrBrowserGone) {
		t.Errorf("Ping() = %v, want %v", err, errs.ErrBrowserGone)
	}
}

func TestRemoteCalls_withoutPage(t *testing.T) {
	c := New(Config{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := c.Groups(ctx); !errors.Is(err, errs.ErrNotReady) {
		t.Errorf("Groups() = %v, want %v", err, errs.ErrNotReady)
	}

	if _, err := c.GroupMembers(ctx, "120@g.us"); !errors.Is(err, errs.ErrNotReady) {
		t.Errorf("GroupMembers() = %v, want %v", err, errs.ErrNotReady)
	}

	if _, err := c.Chat(ctx, "120@g.us"); !errors.Is(err, errs.ErrNotReady) {
		t.Errorf("Chat() = %v, want %v", err, errs.ErrNotReady)
	}

	if _, err := c.LoadEarlier(ctx, "120@g.us"); !errors.Is(err, errs.ErrNotReady) {
		t.Errorf("LoadEarlier() = %v, want %v", err, errs.ErrNotReady)
	}
}

func TestClose_beforeConnect(t *testing.T) {
	c := New(Config{}, zerolog.Nop())

	// Must not panic on a client that never connected.
	c.Close()
}
