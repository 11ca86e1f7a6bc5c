package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const resolveInterval = 100 * time.Millisecond

// Page is one browser tab. Element actions resolve their selector right
// before acting, waiting up to the action timeout for a single match.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc

	actionTimeout   time.Duration
	navigateTimeout time.Duration

	// fetchTree reads the accessibility tree; nil means fetchAXTree.
	fetchTree func(context.Context) ([]RawAXNode, error)
}

func (p *Page) tree(ctx context.Context) ([]RawAXNode, error) {
	if p.fetchTree != nil {
		return p.fetchTree(ctx)
	}
	return fetchAXTree(ctx)
}

// scope derives a tab context bounded by timeout that also ends with ctx.
func (p *Page) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		tctx, cancelDL = context.WithDeadline(tctx, dl)
		return tctx, func() { stop(); cancelDL(); cancel() }
	}
	return tctx, func() { stop(); cancel() }
}

func (p *Page) Goto(ctx context.Context, url string) error {
	tctx, cancel := p.scope(ctx, p.navigateTimeout)
	defer cancel()
	if err := NavigatePage(tctx, url); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	slog.Debug("navigated", "url", url)
	return nil
}

// Resolve returns the backend node id of the only element matching sel.
// Zero matches are retried until the action timeout, more than one fails
// immediately with a *StrictModeError.
func (p *Page) Resolve(ctx context.Context, sel RoleSelector) (int64, error) {
	tctx, cancel := p.scope(ctx, p.actionTimeout)
	defer cancel()
	return p.resolve(tctx, sel)
}

func (p *Page) resolve(ctx context.Context, sel RoleSelector) (int64, error) {
	var lastErr error
	for {
		nodes, err := p.tree(ctx)
		if err == nil {
			ids := MatchRole(nodes, sel)
			switch len(ids) {
			case 1:
				return ids[0], nil
			case 0:
			default:
				flat, _ := BuildSnapshot(nodes, "", -1)
				return 0, &StrictModeError{Selector: sel, Count: len(ids), Candidates: FormatMatches(flat, sel.Role)}
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil && !errors.Is(lastErr, context.DeadlineExceeded) && !errors.Is(lastErr, context.Canceled) {
				return 0, fmt.Errorf("%w: %s: %v", ErrNotFound, sel, lastErr)
			}
			return 0, fmt.Errorf("%w: %s", ErrNotFound, sel)
		case <-time.After(resolveInterval):
		}
	}
}

// act resolves sel and runs fn on the node within one action timeout.
func (p *Page) act(ctx context.Context, sel RoleSelector, fn func(context.Context, int64) error) error {
	tctx, cancel := p.scope(ctx, p.actionTimeout)
	defer cancel()
	id, err := p.resolve(tctx, sel)
	if err != nil {
		return err
	}
	return fn(tctx, id)
}

func (p *Page) Click(ctx context.Context, sel RoleSelector) error {
	return p.act(ctx, sel, ClickByNodeID)
}

func (p *Page) Fill(ctx context.Context, sel RoleSelector, value string) error {
	return p.act(ctx, sel, func(ctx context.Context, id int64) error {
		return FillByNodeID(ctx, id, value)
	})
}

func (p *Page) Press(ctx context.Context, sel RoleSelector, key string) error {
	return p.act(ctx, sel, func(ctx context.Context, id int64) error {
		return PressByNodeID(ctx, id, key)
	})
}

func (p *Page) InnerText(ctx context.Context, sel RoleSelector) (string, error) {
	var text string
	err := p.act(ctx, sel, func(ctx context.Context, id int64) error {
		var err error
		text, err = InnerTextByNodeID(ctx, id)
		return err
	})
	return text, err
}

// Snapshot returns the flattened accessibility tree of the page.
func (p *Page) Snapshot(ctx context.Context, filter string) ([]A11yNode, error) {
	tctx, cancel := p.scope(ctx, p.actionTimeout)
	defer cancel()
	nodes, err := p.tree(tctx)
	if err != nil {
		return nil, err
	}
	flat, _ := BuildSnapshot(nodes, filter, -1)
	return flat, nil
}

func (p *Page) GetByRole(role string, name ...string) *Locator {
	return &Locator{page: p, sel: ByRole(role, name...)}
}

// Close closes the tab.
func (p *Page) Close() {
	p.cancel()
}

// Locator binds a selector to a page.
type Locator struct {
	page *Page
	sel  RoleSelector
}

func (l *Locator) Selector() RoleSelector { return l.sel }

// Exact switches name matching to case-sensitive equality.
func (l *Locator) Exact() *Locator {
	sel := l.sel
	sel.Exact = true
	return &Locator{page: l.page, sel: sel}
}

func (l *Locator) Click(ctx context.Context) error { return l.page.Click(ctx, l.sel) }

func (l *Locator) Fill(ctx context.Context, value string) error {
	return l.page.Fill(ctx, l.sel, value)
}

func (l *Locator) Press(ctx context.Context, key string) error {
	return l.page.Press(ctx, l.sel, key)
}

func (l *Locator) InnerText(ctx context.Context) (string, error) {
	return l.page.InnerText(ctx, l.sel)
}

func (l *Locator) ToContainText(ctx context.Context, want string, opts ExpectOptions) error {
	return ExpectText(ctx, l.page, l.sel, want, opts)
}
