package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// NavigatePage uses raw CDP Page.navigate + polls document.readyState for completion.
func NavigatePage(ctx context.Context, url string) error {
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, errText, _, err := page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errText != "" {
				return fmt.Errorf("navigate %s: %s", url, errText)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var state string
			err = chromedp.Run(ctx,
				chromedp.Evaluate("document.readyState", &state),
			)
			if err == nil && (state == "interactive" || state == "complete") {
				return nil
			}
		}
	}
}

func execute(ctx context.Context, method string, params any, res any) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.FromContext(ctx).Target.Execute(ctx, method, params, res)
	}))
}

func FocusByNodeID(ctx context.Context, nodeID int64) error {
	return execute(ctx, "DOM.focus", map[string]any{"backendNodeId": nodeID}, nil)
}

func ClickByNodeID(ctx context.Context, nodeID int64) error {
	if err := execute(ctx, "DOM.scrollIntoViewIfNeeded", map[string]any{"backendNodeId": nodeID}, nil); err != nil {
		return err
	}
	x, y, err := getElementCenter(ctx, nodeID)
	if err != nil {
		return err
	}
	if err := FocusByNodeID(ctx, nodeID); err != nil {
		return err
	}
	for _, typ := range []string{"mousePressed", "mouseReleased"} {
		err := execute(ctx, "Input.dispatchMouseEvent", map[string]any{
			"type":       typ,
			"button":     "left",
			"clickCount": 1,
			"x":          x, "y": y,
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// getElementCenter returns the center coordinates of an element using DOM.getBoxModel.
func getElementCenter(ctx context.Context, backendNodeID int64) (x, y float64, err error) {
	var result json.RawMessage
	if err = execute(ctx, "DOM.getBoxModel", map[string]any{"backendNodeId": backendNodeID}, &result); err != nil {
		return 0, 0, err
	}

	// content quad: [x1,y1, x2,y2, x3,y3, x4,y4]
	var box struct {
		Model struct {
			Content []float64 `json:"content"`
		} `json:"model"`
	}
	if err = json.Unmarshal(result, &box); err != nil {
		return 0, 0, err
	}
	if len(box.Model.Content) < 8 {
		return 0, 0, fmt.Errorf("invalid box model: expected 8 coordinates, got %d", len(box.Model.Content))
	}

	c := box.Model.Content
	x = (c[0] + c[2] + c[4] + c[6]) / 4
	y = (c[1] + c[3] + c[5] + c[7]) / 4
	return x, y, nil
}

// callOnNode runs fn with this bound to the DOM node and returns its
// result by value.
func callOnNode(ctx context.Context, nodeID int64, fn string, args ...any) (json.RawMessage, error) {
	var resolvedRaw json.RawMessage
	if err := execute(ctx, "DOM.resolveNode", map[string]any{"backendNodeId": nodeID}, &resolvedRaw); err != nil {
		return nil, err
	}
	var resolved struct {
		Object struct {
			ObjectID string `json:"objectId"`
		} `json:"object"`
	}
	if err := json.Unmarshal(resolvedRaw, &resolved); err != nil {
		return nil, err
	}
	if resolved.Object.ObjectID == "" {
		return nil, errors.New("resolve node: no object id")
	}

	callArgs := make([]map[string]any, 0, len(args))
	for _, a := range args {
		callArgs = append(callArgs, map[string]any{"value": a})
	}
	var callRaw json.RawMessage
	err := execute(ctx, "Runtime.callFunctionOn", map[string]any{
		"functionDeclaration": fn,
		"objectId":            resolved.Object.ObjectID,
		"arguments":           callArgs,
		"returnByValue":       true,
	}, &callRaw)
	if err != nil {
		return nil, err
	}

	var call struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(callRaw, &call); err != nil {
		return nil, err
	}
	if call.ExceptionDetails != nil {
		return nil, fmt.Errorf("call on node: %s", call.ExceptionDetails.Text)
	}
	return call.Result.Value, nil
}

// FillByNodeID replaces the value of an editable element. Text is inserted
// through Input.insertText so the page sees real input events.
func FillByNodeID(ctx context.Context, nodeID int64, value string) error {
	if err := FocusByNodeID(ctx, nodeID); err != nil {
		return err
	}
	if value == "" {
		_, err := callOnNode(ctx, nodeID, `function() { this.value = ''; this.dispatchEvent(new Event('input', {bubbles: true})); this.dispatchEvent(new Event('change', {bubbles: true})); }`)
		return err
	}
	if _, err := callOnNode(ctx, nodeID, `function() { if (typeof this.select === 'function') this.select(); }`); err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(value).Do(ctx)
	}))
}

// PressByNodeID focuses the element and dispatches key to it.
func PressByNodeID(ctx context.Context, nodeID int64, key string) error {
	if err := FocusByNodeID(ctx, nodeID); err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.KeyEvent(KeyFor(key)))
}

func InnerTextByNodeID(ctx context.Context, nodeID int64) (string, error) {
	raw, err := callOnNode(ctx, nodeID, `function() { return this.innerText || this.textContent || ''; }`)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("inner text: %w", err)
	}
	return text, nil
}
