package tables

import (
	"fmt"
	"sort"
)

// Special handling keys for addition entries.
const (
	SpecialGUID        = "guid"
	SpecialTypeHaunchH = "type_haunch_H"
)

// RemovalEntry lists attributes to strip from one element kind, or names
// another kind whose list applies (Inherit). The two forms are exclusive.
type RemovalEntry struct {
	Attributes []string
	Inherit    string
}

// AdditionEntry lists attributes to default on one element kind, or names
// another kind whose entry applies (Inherit).
type AdditionEntry struct {
	Defaults map[string]string
	// Special names attributes whose value is computed by the rule instead
	// of (or before) applying Defaults.
	Special []string
	Inherit string
}

// Removal is a resolved removal entry.
type Removal struct {
	Kind       string
	Path       []string
	Attributes []string
}

// Addition is a resolved addition entry.
type Addition struct {
	Kind     string
	Path     []string
	Defaults map[string]string
	Special  []string
}

// RemovalTable maps element kind to its removal entry.
type RemovalTable map[string]RemovalEntry

// AdditionTable maps element kind to its addition entry.
type AdditionTable map[string]AdditionEntry

// Kinds returns the table's element kinds in sorted order.
func (t RemovalTable) Kinds() []string { return sortedKeys(t) }

// Kinds returns the table's element kinds in sorted order.
func (t AdditionTable) Kinds() []string { return sortedKeys(t) }

// Resolve returns kind's removal list, following at most one Inherit hop.
// The path is always kind's own.
func (t RemovalTable) Resolve(kind string) (Removal, bool) {
	e, ok := t[kind]
	if !ok {
		return Removal{}, false
	}
	if e.Inherit != "" {
		target, ok := t[e.Inherit]
		if !ok || target.Inherit != "" {
			return Removal{}, false
		}
		e = target
	}
	return Removal{Kind: kind, Path: Path(kind), Attributes: e.Attributes}, true
}

// Resolve returns kind's addition entry, following at most one Inherit hop.
func (t AdditionTable) Resolve(kind string) (Addition, bool) {
	e, ok := t[kind]
	if !ok {
		return Addition{}, false
	}
	if e.Inherit != "" {
		target, ok := t[e.Inherit]
		if !ok || target.Inherit != "" {
			return Addition{}, false
		}
		e = target
	}
	return Addition{Kind: kind, Path: Path(kind), Defaults: e.Defaults, Special: e.Special}, true
}

// Validate rejects entries with no path, entries that both inherit and
// list attributes, unknown inherit targets, and chains longer than one hop.
func (t RemovalTable) Validate() error {
	for _, kind := range t.Kinds() {
		e := t[kind]
		if err := checkEntry(kind, e.Inherit, len(e.Attributes) > 0, func(target string) (string, bool) {
			te, ok := t[target]
			return te.Inherit, ok
		}); err != nil {
			return err
		}
	}
	return nil
}

// Validate applies the same checks as RemovalTable.Validate.
func (t AdditionTable) Validate() error {
	for _, kind := range t.Kinds() {
		e := t[kind]
		own := len(e.Defaults) > 0 || len(e.Special) > 0
		if err := checkEntry(kind, e.Inherit, own, func(target string) (string, bool) {
			te, ok := t[target]
			return te.Inherit, ok
		}); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(kind, inherit string, own bool, lookup func(string) (string, bool)) error {
	if Path(kind) == nil {
		return fmt.Errorf("attribute table: kind %s has no element path", kind)
	}
	if inherit == "" {
		return nil
	}
	if own {
		return fmt.Errorf("attribute table: kind %s both inherits %s and lists its own attributes", kind, inherit)
	}
	next, ok := lookup(inherit)
	if !ok {
		return fmt.Errorf("attribute table: kind %s inherits unknown kind %s", kind, inherit)
	}
	if next != "" {
		return fmt.Errorf("attribute table: kind %s inherits %s which inherits %s", kind, inherit, next)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ForwardRemovals lists 2.0.2 attributes that do not exist in 2.1.0.
var ForwardRemovals = RemovalTable{
	"StbColumn": {Attributes: []string{
		"joint_bottom", "joint_top",
		"kind_joint_bottom", "kind_joint_top",
		"joint_id_bottom", "joint_id_top",
		"condition_bottom", "condition_top",
	}},
	"StbPost": {Inherit: "StbColumn"},
	"StbGirder": {Attributes: []string{
		"joint_start", "joint_end",
		"kind_joint_start", "kind_joint_end",
		"joint_id_start", "joint_id_end",
		"condition_start", "condition_end",
	}},
	"StbBeam":  {Inherit: "StbGirder"},
	"StbBrace": {Inherit: "StbGirder"},
	"StbNode":  {Attributes: []string{"kind"}},
	"StbSlab":  {Attributes: []string{"direction_load"}},
}

// ForwardAdditions lists attributes 2.1.0 requires.
var ForwardAdditions = AdditionTable{
	"StbColumn": {
		Defaults: map[string]string{"isFoundation": "false"},
		Special:  []string{SpecialGUID},
	},
	"StbPost": {Inherit: "StbColumn"},
	"StbGirder": {
		Defaults: map[string]string{"isFoundation": "false", "type_haunch_H": "BOTH"},
		Special:  []string{SpecialGUID, SpecialTypeHaunchH},
	},
	"StbBeam": {Inherit: "StbGirder"},
	"StbSlab": {Defaults: map[string]string{"kind_slab": "NORMAL"}},
	"StbWall": {Defaults: map[string]string{"kind_layout": "ON_GIRDER"}},
}

// ReverseRemovals lists 2.1.0 attributes that do not exist in 2.0.2.
var ReverseRemovals = RemovalTable{
	"StbColumn": {Attributes: []string{"isFoundation"}},
	"StbPost":   {Inherit: "StbColumn"},
	"StbGirder": {Attributes: []string{"isFoundation", "type_haunch_H"}},
	"StbBeam":   {Inherit: "StbGirder"},
	"StbSlab":   {Attributes: []string{"kind_slab"}},
	"StbWall":   {Attributes: []string{"kind_layout"}},
}

// ReverseAdditions lists attributes 2.0.2 requires.
var ReverseAdditions = AdditionTable{
	"StbColumn": {Defaults: map[string]string{"condition_bottom": "FIX", "condition_top": "FIX"}},
	"StbPost":   {Inherit: "StbColumn"},
	"StbGirder": {Defaults: map[string]string{"condition_start": "FIX", "condition_end": "FIX"}},
	"StbBeam":   {Inherit: "StbGirder"},
	"StbBrace":  {Inherit: "StbGirder"},
}

func init() {
	for name, err := range map[string]error{
		"ForwardRemovals":  ForwardRemovals.Validate(),
		"ReverseRemovals":  ReverseRemovals.Validate(),
		"ForwardAdditions": ForwardAdditions.Validate(),
		"ReverseAdditions": ReverseAdditions.Validate(),
	} {
		if err != nil {
			panic(fmt.Sprintf("tables: %s: %v", name, err))
		}
	}
}
