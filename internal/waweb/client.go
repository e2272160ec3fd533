// Package waweb drives a WhatsApp Web session over a Chrome DevTools
// connection and exposes it as the crawler's remote client.
//
// The package either launches its own Chrome with a persistent user profile
// or attaches to an already running browser through a debugger URL. All chat
// data is read by evaluating projection scripts inside the page, so the
// session the crawler sees is exactly the one a logged-in user would see.
package waweb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/crawler"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
)

const (
	waWebURL          = "https://web.whatsapp.com"
	loginPollInterval = 2 * time.Second

	defaultNavTimeout = 90 * time.Second
)

const (
	fieldURL      = "url"
	fieldChrome   = "chrome_bin"
	fieldHeadless = "headless"
)

// Config controls how the browser session is obtained.
type Config struct {
	// ChromeBin overrides the browser binary. Empty uses rod's lookup order.
	ChromeBin string
	// DebuggerURL attaches to a running browser instead of launching one.
	DebuggerURL string
	Headless    bool
	// UserDataDir holds the persistent profile, so the WhatsApp session
	// survives process restarts without rescanning the QR code.
	UserDataDir string
	NavTimeout  time.Duration
}

// Client talks to WhatsApp Web through go-rod.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

var (
	_ crawler.Client       = (*Client)(nil)
	_ observability.Pinger = (*Client)(nil)
)

// New creates a disconnected client. Call Connect before use.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}

	return &Client{cfg: cfg, logger: logger}
}

// Connect obtains a browser, opens WhatsApp Web and waits for the first
// navigation. Login may still be pending afterwards; use AwaitLogin to block
// until the session is usable.
func (c *Client) Connect(ctx context.Context) error {
	controlURL := c.cfg.DebuggerURL
	if controlURL == "" {
		u, err := c.launchChrome()
		if err != nil {
			return err
		}

		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	c.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	c.page = page

	if err := page.Context(ctx).Timeout(c.cfg.NavTimeout).Navigate(waWebURL); err != nil {
		return fmt.Errorf("navigate to %s: %w", waWebURL, err)
	}

	c.logger.Info().Str(fieldURL, waWebURL).Msg("WhatsApp Web opened")

	return nil
}

func (c *Client) launchChrome() (string, error) {
	launch := launcher.New().Headless(c.cfg.Headless)

	if c.cfg.ChromeBin != "" {
		launch = launch.Bin(c.cfg.ChromeBin)
	}

	if c.cfg.UserDataDir != "" {
		launch = launch.Set(flags.Flag("user-data-dir"), c.cfg.UserDataDir)
	}

	u, err := launch.Launch()
	if err != nil && c.cfg.ChromeBin != "" {
		// A bad CHROME_BIN should not strand the run when rod can find a
		// browser on its own.
		c.logger.Warn().Err(err).Str(fieldChrome, c.cfg.ChromeBin).Msg("Configured browser failed to launch, falling back to default lookup")

		launch = launcher.New().Headless(c.cfg.Headless)
		if c.cfg.UserDataDir != "" {
			launch = launch.Set(flags.Flag("user-data-dir"), c.cfg.UserDataDir)
		}

		u, err = launch.Launch()
	}

	if err != nil {
		return "", fmt.Errorf("launch chrome: %w", err)
	}

	c.launch = launch
	c.logger.Info().Bool(fieldHeadless, c.cfg.Headless).Msg("Chrome launched")

	return u, nil
}

// AwaitLogin blocks until the page has loaded the app's internal Store, which
// only happens on an authenticated session. On a fresh profile this is the
// window for scanning the QR code, so run headful the first time.
func (c *Client) AwaitLogin(ctx context.Context) error {
	deadline := time.Now().Add(c.cfg.NavTimeout)

	c.logger.Info().Msg("Waiting for WhatsApp Web login")

	for {
		ready, err := c.sessionReady(ctx)
		if err == nil && ready {
			c.logger.Info().Msg("WhatsApp Web session is ready")
			return nil
		}

		if ctx.Err() != nil {
			return fmt.Errorf("await login: %w", ctx.Err())
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: login not completed within %s", errs.ErrNotReady, c.cfg.NavTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("await login: %w", ctx.Err())
		case <-time.After(loginPollInterval):
		}
	}
}

func (c *Client) sessionReady(ctx context.Context) (bool, error) {
	var ready bool
	if err := c.eval(ctx, sessionReadyJS, nil, &ready); err != nil {
		return false, err
	}

	return ready, nil
}

// Groups lists every group chat visible to the session.
func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if err := c.eval(ctx, listGroupsJS, nil, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// GroupMembers returns the live member roster of one group.
func (c *Client) GroupMembers(ctx context.Context, groupID string) ([]domain.RawParticipant, error) {
	var members []domain.RawParticipant
	if err := c.eval(ctx, listMembersJS, []interface{}{groupID}, &members); err != nil {
		return nil, err
	}

	return members, nil
}

// Chat probes one chat for accessibility.
func (c *Client) Chat(ctx context.Context, chatID string) (domain.Chat, error) {
	var chat domain.Chat
	if err := c.eval(ctx, getChatJS, []interface{}{chatID}, &chat); err != nil {
		return domain.Chat{}, err
	}

	if chat.ID == "" {
		return domain.Chat{}, fmt.Errorf("%w: %s", errs.ErrChatUnavailable, chatID)
	}

	return chat, nil
}

// LoadEarlier asks the page for the next page of earlier history. The page
// keeps the pagination cursor between calls.
func (c *Client) LoadEarlier(ctx context.Context, chatID string) ([]domain.RawMessage, error) {
	var msgs []domain.RawMessage
	if err := c.eval(ctx, loadEarlierJS, []interface{}{chatID}, &msgs); err != nil {
		return nil, err
	}

	return msgs, nil
}

// Ping reports whether the DevTools connection is still alive. It backs the
// readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c.browser == nil {
		return errs.ErrBrowserGone
	}

	if _, err := c.browser.Context(ctx).Version(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBrowserGone, err)
	}

	return nil
}

// Close shuts down the page, and the browser too when this process launched
// it. An attached browser is left running.
func (c *Client) Close() {
	if c.page != nil {
		if err := c.page.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close WhatsApp Web page")
		}
	}

	if c.launch == nil || c.browser == nil {
		return
	}

	if err := c.browser.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close browser")
	}
}

// eval runs a projection script in the page and decodes its JSON result into
// out. Errors come back unwrapped so the retry envelope can classify the
// underlying DevTools fault text.
func (c *Client) eval(ctx context.Context, script string, args []interface{}, out interface{}) error {
	if c.page == nil {
		return errs.ErrNotReady
	}

	res, err := c.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           script,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return err
	}

	if res == nil || res.Value.Nil() {
		return nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	return nil
}
