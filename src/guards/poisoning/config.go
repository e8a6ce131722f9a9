package poisoning

// Category is one of the six fixed pattern categories the guard scans for
// (spec §4.5).
type Category string

const (
	CategoryHiddenInstructions Category = "hidden_instructions"
	CategoryPromptInjection    Category = "prompt_injection"
	CategorySystemOverride     Category = "system_override"
	CategorySafetyBypass       Category = "safety_bypass"
	CategoryRoleManipulation   Category = "role_manipulation"
	CategoryPromptLeaking      Category = "prompt_leaking"
)

var allCategories = []Category{
	CategoryHiddenInstructions,
	CategoryPromptInjection,
	CategorySystemOverride,
	CategorySafetyBypass,
	CategoryRoleManipulation,
	CategoryPromptLeaking,
}

// defaultPatterns mirrors the teacher's sanitizer.builtInInjectionPatterns
// style: plain regex strings, compiled case-insensitive at construction.
var defaultPatterns = map[Category][]string{
	CategoryHiddenInstructions: {
		`\[HIDDEN\]`,
		`\[SECRET\]`,
	},
	CategoryPromptInjection: {
		`ignore.{0,30}previous.{0,30}instructions`,
		`disregard.{0,30}above`,
	},
	CategorySystemOverride: {
		`SYSTEM:\s*override`,
		`<\|system\|>`,
	},
	CategorySafetyBypass: {
		`bypass.{0,30}security`,
		`bypass.{0,30}restrictions`,
		`jailbreak`,
	},
	CategoryRoleManipulation: {
		`you.{0,30}are.{0,30}now.{0,30}(admin|jailbroken|root)`,
		`act as .{0,40}unrestricted`,
	},
	CategoryPromptLeaking: {
		`reveal.{0,30}system.{0,30}prompt`,
		`print.{0,30}your.{0,30}instructions`,
	},
}

var defaultWeights = map[Category]int{
	CategoryHiddenInstructions: 3,
	CategoryPromptInjection:    3,
	CategorySystemOverride:     2,
	CategorySafetyBypass:       2,
	CategoryRoleManipulation:   2,
	CategoryPromptLeaking:      1,
}

const defaultRiskThreshold = 5

// Config is the Tool Poisoning guard's configuration (spec §4.5).
type Config struct {
	EnabledCategories []Category            `json:"enabledCategories,omitempty"`
	PatternsOverride  map[Category][]string `json:"patternsOverride,omitempty"`
	WeightsOverride   map[Category]int      `json:"weightsOverride,omitempty"`
	RiskThreshold     *int                  `json:"riskThreshold,omitempty"`
}

func (c Config) riskThreshold() int {
	if c.RiskThreshold == nil {
		return defaultRiskThreshold
	}
	return *c.RiskThreshold
}

func (c Config) enabledCategories() []Category {
	if len(c.EnabledCategories) == 0 {
		return allCategories
	}
	return c.EnabledCategories
}

func (c Config) patternsFor(cat Category) []string {
	if override, ok := c.PatternsOverride[cat]; ok {
		return override
	}
	return defaultPatterns[cat]
}

func (c Config) weightFor(cat Category) int {
	if override, ok := c.WeightsOverride[cat]; ok {
		return override
	}
	return defaultWeights[cat]
}

func intPtr(i int) *int { return &i }
