package tab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// DevTools reads the active tab of a running Chrome started with --remote-debugging-port.
// URL is the DevTools endpoint, e.g. http://127.0.0.1:9222 or a ws://.../devtools/browser/<id> address.
// Attempts and RetryDelay control retries of a failed connection, all within Timeout.
type DevTools struct {
	URL        string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration

	// listTargets is swapped in tests
	listTargets func(ctx context.Context) ([]*target.Info, error)
}

// NewDevTools makes a DevTools querier for the endpoint
func NewDevTools(url string, timeout time.Duration) *DevTools {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	d := &DevTools{URL: url, Timeout: timeout, Attempts: 3, RetryDelay: 200 * time.Millisecond}
	d.listTargets = d.remoteTargets
	return d
}

// Active returns the first regular page target. Chrome reports targets most recently used first.
func (d *DevTools) Active(ctx context.Context) (Tab, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	var targets []*target.Info
	rptr := repeater.New(&strategy.Backoff{Repeats: max(d.Attempts, 1), Duration: d.RetryDelay, Factor: 2})
	err := rptr.Do(ctx, func() error {
		res, e := d.listTargets(ctx)
		if e != nil {
			log.Printf("[DEBUG] failed to list tabs at %s: %v", d.URL, e)
			return e
		}
		targets = res
		return nil
	})
	if err != nil {
		return Tab{}, fmt.Errorf("%w: failed to list tabs at %s: %w", ErrUnavailable, d.URL, err)
	}
	t, ok := pickActive(targets)
	if !ok {
		return Tab{}, ErrNoActiveTab
	}
	log.Printf("[DEBUG] active tab %q %s", t.Title, t.URL)
	return t, nil
}

func (d *DevTools) remoteTargets(ctx context.Context) ([]*target.Info, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, d.URL)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	targets, err := chromedp.Targets(taskCtx)
	if err != nil {
		return nil, err
	}

	// attaching opens a blank tab of our own, closed by taskCancel
	c := chromedp.FromContext(taskCtx)
	if c == nil || c.Target == nil {
		return targets, nil
	}
	res := make([]*target.Info, 0, len(targets))
	for _, t := range targets {
		if t != nil && t.TargetID == c.Target.TargetID {
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

func pickActive(targets []*target.Info) (Tab, bool) {
	for _, t := range targets {
		if t == nil || t.Type != "page" {
			continue
		}
		if t.URL == "" || strings.HasPrefix(t.URL, "devtools://") {
			continue
		}
		return Tab{Title: t.Title, URL: t.URL}, true
	}
	return Tab{}, false
}
