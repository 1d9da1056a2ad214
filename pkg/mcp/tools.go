package mcp

import "github.com/mark3labs/mcp-go/mcp"

// DefaultFilename is used by lint_source when no filename is given; the
// extension selects the grammar.
const DefaultFilename = "Component.tsx"

func lintSourceTool() mcp.Tool {
	return mcp.NewTool("lint_source",
		mcp.WithDescription("Lint JavaScript/TypeScript source for design token misuse. "+
			"Reports theme tokens used for a CSS property outside their semantic category "+
			"and direct imports of raw token modules."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Source code of one file"),
		),
		mcp.WithString("filename",
			mcp.Description("File name used for grammar selection and reporting (default "+DefaultFilename+")"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listTokenRulesTool() mcp.Tool {
	return mcp.NewTool("list_token_rules",
		mcp.WithDescription("List token categories with their token patterns and the CSS properties each category may be used for"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func explainTokenTool() mcp.Tool {
	return mcp.NewTool("explain_token",
		mcp.WithDescription("Explain which category a token belongs to and whether it may be used for a CSS property"),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description(`Token path such as "content.primary" or "theme.tokens.border.accent"`),
		),
		mcp.WithString("property",
			mcp.Description(`CSS property to check, e.g. "background-color" or "backgroundColor"`),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
