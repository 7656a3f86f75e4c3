package converter

import (
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/rules"
)

// forwardRules runs 2.0.2 to 2.1.0.
//
//	1 version
//	7 joints      before 3 strips the remaining endpoint attributes
//	2 rename      before every rule that looks up 2.1.0 section tags
//	5 openings    before 3 checks opening sizes at the 2.1.0 location
//	6 conditions
//	4 multi-section, 8 bars, 9 slab, 10 SRC, 11 pile, 12 base plate
//	3 attributes  last; type_haunch_H reads renamed figures
var forwardRules = []rules.Rule{
	rules.Version,
	rules.Joints,
	rules.Renaming,
	rules.Openings,
	rules.ApplyConditions,
	rules.MultiSectionBeams,
	rules.BarWrappers,
	rules.SlabWrapper,
	rules.SRCBeamShapes,
	rules.PileSections,
	rules.BasePlates,
	rules.Attributes,
}

// reverseRules runs 2.1.0 to 2.0.2.
//
//	1 version
//	12, 11, 10, 9 unwrap while the 2.1.0 tags are still in place
//	6 conditions  collapses beam bars before 8 reads the first child
//	8 bars, 4 multi-section, 5 openings
//	3 attributes  before 7 so restored joint attributes survive
//	7 joints
//	2 rename      last; every earlier rule looks up 2.1.0 tags
var reverseRules = []rules.Rule{
	rules.Version,
	rules.BasePlates,
	rules.PileSections,
	rules.SRCBeamShapes,
	rules.SlabWrapper,
	rules.ApplyConditions,
	rules.BarWrappers,
	rules.MultiSectionBeams,
	rules.Openings,
	rules.Attributes,
	rules.Joints,
	rules.Renaming,
}

func pipeline(dir report.Direction) []rules.Rule {
	if dir == report.Reverse {
		return reverseRules
	}
	return forwardRules
}

// ForwardPipeline returns the forward rule names in execution order.
func ForwardPipeline() []string { return names(forwardRules) }

// ReversePipeline returns the reverse rule names in execution order.
func ReversePipeline() []string { return names(reverseRules) }

func names(rs []rules.Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}
