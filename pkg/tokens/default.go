package tokens

// DefaultRules is the built-in category table. Order matters: the first
// matching rule owns a token path.
var DefaultRules = []Rule{
	{
		Name: "content",
		TokenPatterns: []string{
			"content.*",
			"interactive.*.content",
			"interactive.*.content.*",
		},
		AllowedProperties: []string{
			"color",
			"caret-color",
			"column-rule-color",
			"text-decoration-color",
			"text-emphasis-color",
			"-webkit-text-fill-color",
			"-webkit-text-stroke-color",
		},
	},
	{
		Name: "background",
		TokenPatterns: []string{
			"background.*",
			"interactive.*.background",
			"interactive.*.background.*",
		},
		AllowedProperties: []string{
			"background-color",
		},
	},
	{
		Name: "border",
		TokenPatterns: []string{
			"border.*",
			"interactive.*.border",
			"interactive.*.border.*",
		},
		AllowedProperties: []string{
			"border-color",
			"border-top-color",
			"border-right-color",
			"border-bottom-color",
			"border-left-color",
			"border-block-color",
			"border-block-start-color",
			"border-block-end-color",
			"border-inline-color",
			"border-inline-start-color",
			"border-inline-end-color",
		},
	},
	{
		Name: "focus",
		TokenPatterns: []string{
			"focus.*",
		},
		AllowedProperties: []string{
			"outline-color",
			"box-shadow",
		},
	},
	{
		Name: "graphics",
		TokenPatterns: []string{
			"graphics.*",
			"dataviz.*",
		},
		AllowedProperties: []string{
			"fill",
			"stroke",
			"stop-color",
			"flood-color",
			"lighting-color",
		},
	},
}

// Default is the compiled DefaultRules table, built once at init and never
// mutated.
var Default = MustNewTable(DefaultRules)

// FindRuleForToken looks tokenPath up in the default table.
func FindRuleForToken(tokenPath string) *Rule {
	return Default.FindRuleForToken(tokenPath)
}

// PropertyToRule returns the default table's reverse index.
func PropertyToRule() map[string]string {
	return Default.PropertyToRule()
}
