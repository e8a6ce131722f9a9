package rugpull

// ChangeKind classifies one per-tool difference between a baseline and a
// later advertisement (spec §4.6).
type ChangeKind string

const (
	ChangeDescription ChangeKind = "description"
	ChangeSchema      ChangeKind = "schema"
	ChangeRemove      ChangeKind = "remove"
	ChangeAdd         ChangeKind = "add"
)

var defaultWeights = map[ChangeKind]int{
	ChangeDescription: 2,
	ChangeSchema:      3,
	ChangeRemove:      3,
	ChangeAdd:         1,
}

const defaultRiskThreshold = 5

// Weights overrides the default per-kind scoring weights.
type Weights struct {
	Description *int `json:"description,omitempty"`
	Schema      *int `json:"schema,omitempty"`
	Remove      *int `json:"remove,omitempty"`
	Add         *int `json:"add,omitempty"`
}

// Config is the Rug Pull guard's configuration (spec §4.6).
type Config struct {
	RiskThreshold *int         `json:"riskThreshold,omitempty"`
	Weights       Weights      `json:"weights,omitempty"`
	ModeFilter    []ChangeKind `json:"modeFilter,omitempty"`
}

func (c Config) riskThreshold() int {
	if c.RiskThreshold == nil {
		return defaultRiskThreshold
	}
	return *c.RiskThreshold
}

func (c Config) weightFor(kind ChangeKind) int {
	var override *int
	switch kind {
	case ChangeDescription:
		override = c.Weights.Description
	case ChangeSchema:
		override = c.Weights.Schema
	case ChangeRemove:
		override = c.Weights.Remove
	case ChangeAdd:
		override = c.Weights.Add
	}
	if override != nil {
		return *override
	}
	return defaultWeights[kind]
}

// enabled reports whether kind is scored; an empty ModeFilter means every
// kind is scored (spec §4.6: "mode_filter suppresses scoring of kinds not
// listed").
func (c Config) enabled(kind ChangeKind) bool {
	if len(c.ModeFilter) == 0 {
		return true
	}
	for _, k := range c.ModeFilter {
		if k == kind {
			return true
		}
	}
	return false
}

func intPtr(i int) *int { return &i }
