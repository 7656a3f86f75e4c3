package report

// Category names one kind of data that cannot survive a conversion.
type Category string

// Data-loss categories.
const (
	CategoryJointArrangements      Category = "joint_arrangements"
	CategoryPileStrengthLists      Category = "pile_strength_lists"
	CategoryMultiSectionBeams      Category = "multi_section_beams"
	CategoryComplexBarArrangements Category = "complex_bar_arrangements"
	CategoryExtraBasePlateChildren Category = "extra_base_plate_children"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryJointArrangements,
	CategoryPileStrengthLists,
	CategoryMultiSectionBeams,
	CategoryComplexBarArrangements,
	CategoryExtraBasePlateChildren,
}

// DataLoss tallies elements that were dropped or approximated.
type DataLoss struct {
	// JointArrangements counts joint arrangements folded back into member attributes.
	JointArrangements int `json:"joint_arrangements" yaml:"joint_arrangements"`

	// PileStrengthLists counts pile reinforcement strength entries with no legacy home.
	PileStrengthLists int `json:"pile_strength_lists" yaml:"pile_strength_lists"`

	// MultiSectionBeams counts steel beam sections with more than one shape segment.
	MultiSectionBeams int `json:"multi_section_beams" yaml:"multi_section_beams"`

	// ComplexBarArrangements counts multi-position RC beam bar arrangements collapsed to one.
	ComplexBarArrangements int `json:"complex_bar_arrangements" yaml:"complex_bar_arrangements"`

	// ExtraBasePlateChildren counts repeated anchor bolts / rib plates that were dropped.
	ExtraBasePlateChildren int `json:"extra_base_plate_children" yaml:"extra_base_plate_children"`
}

// Add increments the counter for c by n.
func (d *DataLoss) Add(c Category, n int) {
	switch c {
	case CategoryJointArrangements:
		d.JointArrangements += n
	case CategoryPileStrengthLists:
		d.PileStrengthLists += n
	case CategoryMultiSectionBeams:
		d.MultiSectionBeams += n
	case CategoryComplexBarArrangements:
		d.ComplexBarArrangements += n
	case CategoryExtraBasePlateChildren:
		d.ExtraBasePlateChildren += n
	}
}

// Count returns the counter for c.
func (d DataLoss) Count(c Category) int {
	switch c {
	case CategoryJointArrangements:
		return d.JointArrangements
	case CategoryPileStrengthLists:
		return d.PileStrengthLists
	case CategoryMultiSectionBeams:
		return d.MultiSectionBeams
	case CategoryComplexBarArrangements:
		return d.ComplexBarArrangements
	case CategoryExtraBasePlateChildren:
		return d.ExtraBasePlateChildren
	default:
		return 0
	}
}

// Total sums every counter.
func (d DataLoss) Total() int {
	total := 0
	for _, c := range Categories {
		total += d.Count(c)
	}
	return total
}

// Any reports whether anything was lost.
func (d DataLoss) Any() bool {
	return d.Total() > 0
}

// Describe returns a human-readable label for c.
func (c Category) Describe() string {
	switch c {
	case CategoryJointArrangements:
		return "joint arrangements"
	case CategoryPileStrengthLists:
		return "pile reinforcement strength lists"
	case CategoryMultiSectionBeams:
		return "multi-section steel beams"
	case CategoryComplexBarArrangements:
		return "multi-position RC beam bar arrangements"
	case CategoryExtraBasePlateChildren:
		return "repeated base plate anchor bolts / rib plates"
	default:
		return string(c)
	}
}
