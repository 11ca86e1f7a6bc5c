package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

type A11yNode struct {
	Ref      string `json:"ref"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Value    string `json:"value,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Focused  bool   `json:"focused,omitempty"`
	NodeID   int64  `json:"nodeId,omitempty"`
}

type RawAXNode struct {
	NodeID           string      `json:"nodeId"`
	Ignored          bool        `json:"ignored"`
	Role             *RawAXValue `json:"role"`
	Name             *RawAXValue `json:"name"`
	Value            *RawAXValue `json:"value"`
	Properties       []RawAXProp `json:"properties"`
	ChildIDs         []string    `json:"childIds"`
	BackendDOMNodeID int64       `json:"backendDOMNodeId"`
}

type RawAXValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type RawAXProp struct {
	Name  string      `json:"name"`
	Value *RawAXValue `json:"value"`
}

func (v *RawAXValue) String() string {
	if v == nil || v.Value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(v.Value), `"`)
}

var InteractiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "searchbox": true,
	"combobox": true, "listbox": true, "option": true, "checkbox": true,
	"radio": true, "switch": true, "slider": true, "spinbutton": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true,
	"tab": true, "treeitem": true,
}

const FilterInteractive = "interactive"

// structural roles never exposed to callers
func skipRole(role string) bool {
	return role == "none" || role == "generic" || role == "InlineTextBox"
}

// fetchAXTree returns the full accessibility tree of the current target.
func fetchAXTree(ctx context.Context) ([]RawAXNode, error) {
	var rawResult json.RawMessage
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.FromContext(ctx).Target.Execute(ctx, "Accessibility.getFullAXTree", nil, &rawResult)
	}))
	if err != nil {
		return nil, fmt.Errorf("get a11y tree: %w", err)
	}
	var tree struct {
		Nodes []RawAXNode `json:"nodes"`
	}
	if err := json.Unmarshal(rawResult, &tree); err != nil {
		return nil, fmt.Errorf("parse a11y tree: %w", err)
	}
	return tree.Nodes, nil
}

// MatchRole returns the backend DOM node ids of every node matching sel,
// in tree order without duplicates.
func MatchRole(nodes []RawAXNode, sel RoleSelector) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, n := range nodes {
		if n.Ignored || n.BackendDOMNodeID == 0 || seen[n.BackendDOMNodeID] {
			continue
		}
		role := n.Role.String()
		if skipRole(role) || !strings.EqualFold(role, sel.Role) {
			continue
		}
		if !sel.matchName(n.Name.String()) {
			continue
		}
		seen[n.BackendDOMNodeID] = true
		ids = append(ids, n.BackendDOMNodeID)
	}
	return ids
}

func BuildSnapshot(nodes []RawAXNode, filter string, maxDepth int) ([]A11yNode, map[string]int64) {
	parentMap := make(map[string]string)
	for _, n := range nodes {
		for _, childID := range n.ChildIDs {
			parentMap[childID] = n.NodeID
		}
	}
	depthOf := func(nodeID string) int {
		d := 0
		cur := nodeID
		for {
			p, ok := parentMap[cur]
			if !ok {
				break
			}
			d++
			cur = p
		}
		return d
	}

	flat := make([]A11yNode, 0)
	refs := make(map[string]int64)

	for _, n := range nodes {
		if n.Ignored {
			continue
		}
		role := n.Role.String()
		name := n.Name.String()
		if skipRole(role) || (name == "" && role == "StaticText") {
			continue
		}
		depth := depthOf(n.NodeID)
		if maxDepth >= 0 && depth > maxDepth {
			continue
		}
		if filter == FilterInteractive && !InteractiveRoles[role] {
			continue
		}

		ref := fmt.Sprintf("e%d", len(flat))
		entry := A11yNode{Ref: ref, Role: role, Name: name, Depth: depth, Value: n.Value.String()}
		if n.BackendDOMNodeID != 0 {
			entry.NodeID = n.BackendDOMNodeID
			refs[ref] = n.BackendDOMNodeID
		}
		for _, prop := range n.Properties {
			switch {
			case prop.Name == "disabled" && prop.Value.String() == "true":
				entry.Disabled = true
			case prop.Name == "focused" && prop.Value.String() == "true":
				entry.Focused = true
			}
		}
		flat = append(flat, entry)
	}

	return flat, refs
}
