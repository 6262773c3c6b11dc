package skirmish

import "fmt"

// Tag is a Key and Value pair stored providing meta about a match.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (t *Tag) String() string {
	return fmt.Sprintf("[%s %q]", t.Key, t.Value)
}

// Well known tag keys.
const (
	TagMatch   = "Match"
	TagSize    = "Size"
	TagHomeRow = "HomeRow"
	TagResult  = "Result"
)
