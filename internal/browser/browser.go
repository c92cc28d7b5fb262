// Package browser provides the chromedp-backed automation engine behind the
// collection loop. All DOM lookups evaluate JavaScript with optional
// chaining, so a missing node yields a zero value instead of blocking.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/collect"
	"github.com/sells-group/prospect-cli/internal/config"
)

const (
	navTimeout   = 60 * time.Second
	evalTimeout  = 15 * time.Second
	clickTimeout = 10 * time.Second
)

// Engine launches headless Chrome sessions.
type Engine struct {
	cfg config.BrowserConfig
}

// NewEngine creates an Engine from browser configuration.
func NewEngine(cfg config.BrowserConfig) *Engine {
	return &Engine{cfg: cfg}
}

// NewSession starts a Chrome process and opens one tab. The browser is
// launched eagerly so startup failures surface here rather than on the
// first navigation.
func (e *Engine) NewSession(ctx context.Context) (collect.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	return &Session{
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		retry:       defaultRetryConfig(),
	}, nil
}

// Session is one Chrome tab. It implements collect.Session and must be used
// serially.
type Session struct {
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	retry       retryConfig
}

// run executes actions against the tab, bounded by timeout and by the
// caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := s.ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	err := withRetry(ctx, s.retry, "navigate", func() error {
		return s.run(ctx, navTimeout, chromedp.Navigate(url))
	})
	if err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: wait for %s", selector)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, clickTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: click %s", selector)
	}
	return nil
}

func (s *Session) SendKeys(ctx context.Context, selector, value string) error {
	if err := s.run(ctx, clickTimeout, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return eris.Wrapf(err, "browser: send keys to %s", selector)
	}
	return nil
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var out string
	script := fmt.Sprintf(`document.querySelector(%q)?.innerText ?? ""`, selector)
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return "", eris.Wrapf(err, "browser: text of %s", selector)
	}
	return out, nil
}

func (s *Session) Attr(ctx context.Context, selector, name string) (string, error) {
	var out string
	script := fmt.Sprintf(`document.querySelector(%q)?.getAttribute(%q) ?? ""`, selector, name)
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return "", eris.Wrapf(err, "browser: attr %s of %s", name, selector)
	}
	return out, nil
}

func (s *Session) BodyText(ctx context.Context) (string, error) {
	var out string
	script := `document.body?.innerText ?? ""`
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return "", eris.Wrap(err, "browser: body text")
	}
	return out, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var out string
	script := `document.documentElement?.outerHTML ?? ""`
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return "", eris.Wrap(err, "browser: page html")
	}
	return out, nil
}

func (s *Session) AnchorHrefs(ctx context.Context, selector string) ([]string, error) {
	var out []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(a => a.href)`, selector)
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return nil, eris.Wrapf(err, "browser: hrefs of %s", selector)
	}
	return out, nil
}

func (s *Session) ScrollToBottom(ctx context.Context, selector string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) { el.scrollTop = el.scrollHeight; }
	})()`, selector)
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, nil)); err != nil {
		return eris.Wrapf(err, "browser: scroll %s", selector)
	}
	return nil
}

func (s *Session) ScrollHeight(ctx context.Context, selector string) (int, error) {
	var out int
	script := fmt.Sprintf(`document.querySelector(%q)?.scrollHeight ?? 0`, selector)
	if err := s.run(ctx, evalTimeout, chromedp.Evaluate(script, &out)); err != nil {
		return 0, eris.Wrapf(err, "browser: scroll height of %s", selector)
	}
	return out, nil
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var out string
	if err := s.run(ctx, evalTimeout, chromedp.Location(&out)); err != nil {
		return "", eris.Wrap(err, "browser: location")
	}
	return out, nil
}

// Close shuts the browser down gracefully, then releases the tab and
// allocator contexts.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.tabCancel()
	s.allocCancel()
	if err != nil {
		return eris.Wrap(err, "browser: shutdown")
	}
	return nil
}
