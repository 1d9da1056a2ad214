package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/parser"
)

func (s *Server) handleLintSource(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", DefaultFilename)
	if !parser.IsSupportedFile(filename) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file type %q (supported: %s)",
			filename, strings.Join(parser.SupportedExtensions(), ", "))), nil
	}

	result, err := s.plugin.LintSource(filename, []byte(code))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lint failed: %v", err)), nil
	}
	return jsonResult(result)
}

type tokenRuleSummary struct {
	Name              string   `json:"name"`
	TokenPatterns     []string `json:"token_patterns"`
	AllowedProperties []string `json:"allowed_properties"`
}

func (s *Server) handleListTokenRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules := s.plugin.Table().Rules()
	out := make([]tokenRuleSummary, 0, len(rules))
	for _, r := range rules {
		out = append(out, tokenRuleSummary{
			Name:              r.Name,
			TokenPatterns:     r.TokenPatterns,
			AllowedProperties: r.AllowedProperties,
		})
	}
	return jsonResult(out)
}

type tokenExplanation struct {
	Token             string   `json:"token"`
	Category          string   `json:"category,omitempty"`
	Constrained       bool     `json:"constrained"`
	AllowedProperties []string `json:"allowed_properties,omitempty"`
	Property          string   `json:"property,omitempty"`
	Allowed           *bool    `json:"allowed,omitempty"`
	SuggestedCategory string   `json:"suggested_category,omitempty"`
	Message           string   `json:"message"`
}

func (s *Server) handleExplainToken(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token := TrimTokenPrefix(raw)
	if token == "" {
		return mcp.NewToolResultError(fmt.Sprintf("no token path in %q", raw)), nil
	}

	table := s.plugin.Table()
	out := tokenExplanation{Token: token}
	if p := req.GetString("property", ""); p != "" {
		out.Property = lint.NormalizeProperty(p)
	}

	rule := table.FindRuleForToken(token)
	if rule == nil {
		out.Message = fmt.Sprintf("Token %q belongs to no category and may be used for any property.", token)
		return jsonResult(out)
	}
	out.Category = rule.Name
	out.Constrained = true
	out.AllowedProperties = rule.AllowedProperties

	if out.Property == "" {
		out.Message = fmt.Sprintf("Token %q is a %s token.", token, rule.Name)
		return jsonResult(out)
	}

	allowed := rule.Allows(out.Property)
	out.Allowed = &allowed
	if allowed {
		out.Message = fmt.Sprintf("Token %q (%s) may be used for CSS property %q.", token, rule.Name, out.Property)
		return jsonResult(out)
	}
	out.Message = fmt.Sprintf("Token %q (%s) cannot be used for CSS property %q.", token, rule.Name, out.Property)
	if suggested, ok := table.SuggestCategory(out.Property); ok {
		out.SuggestedCategory = suggested
		out.Message += fmt.Sprintf(" Use a %s token instead.", suggested)
	}
	return jsonResult(out)
}

// TrimTokenPrefix reduces a full member path such as theme.tokens.a.b or
// p.theme.tokens.a.b to the token path a.b.
func TrimTokenPrefix(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.LastIndex(token, "tokens."); i >= 0 && (i == 0 || token[i-1] == '.') {
		token = token[i+len("tokens."):]
	}
	return strings.Trim(token, ".")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
