package enums

// SelectionType controls how many options a modifier group accepts.
type SelectionType string

const (
	SelectionTypeSingle   SelectionType = "single"
	SelectionTypeMultiple SelectionType = "multiple"
)

var selectionTypes = newSet("selection type", SelectionTypeSingle, SelectionTypeMultiple)

func (s SelectionType) IsValid() bool { return selectionTypes.has(s) }
