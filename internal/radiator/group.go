package radiator

import (
	"errors"
	"sort"
	"strings"

	"github.com/jenkinsci/radiatorview/internal/protocol"
)

var (
	ErrNilEntry = errors.New("radiator: nil entry")
	// ErrCycle is returned when adding a group would make it its own ancestor.
	ErrCycle = errors.New("radiator: group cycle")
)

// Group is a named set of entries, usually the jobs of one project. Its own
// state is always folded from the current children.
//
// Children are kept ordered by Compare. Distinct children that compare equal
// are all kept, in insertion order.
type Group struct {
	name     string
	children []ViewEntry

	// version counts mutations of children; partition results are cached
	// against the sum of the versions of this group and its nested groups.
	version uint64
	parts   *partitions
}

type partitions struct {
	revision  uint64
	passing   []ViewEntry
	failing   []ViewEntry
	attention []ViewEntry
	claimed   []ViewEntry
	unclaimed []ViewEntry
	unbuilt   []ViewEntry
}

var _ ViewEntry = (*Group)(nil)

func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Add inserts a child. A nil child is rejected with ErrNilEntry.
func (g *Group) Add(child ViewEntry) error {
	if isNilEntry(child) {
		return ErrNilEntry
	}
	if sub, ok := child.(*Group); ok && sub.contains(g) {
		return ErrCycle
	}
	i := sort.Search(len(g.children), func(i int) bool {
		return Compare(g.children[i], child) > 0
	})
	g.children = append(g.children, nil)
	copy(g.children[i+1:], g.children[i:])
	g.children[i] = child
	g.version++
	return nil
}

func isNilEntry(v ViewEntry) bool {
	switch e := v.(type) {
	case nil:
		return true
	case *Entry:
		return e == nil
	case *Group:
		return e == nil
	default:
		return false
	}
}

// contains reports whether target is g or nested anywhere below it.
func (g *Group) contains(target *Group) bool {
	if g == target {
		return true
	}
	for _, c := range g.children {
		if sub, ok := c.(*Group); ok && sub.contains(target) {
			return true
		}
	}
	return false
}

func (g *Group) revision() uint64 {
	rev := g.version
	for _, c := range g.children {
		if sub, ok := c.(*Group); ok {
			rev += sub.revision()
		}
	}
	return rev
}

func (g *Group) partitions() *partitions {
	rev := g.revision()
	if g.parts != nil && g.parts.revision == rev {
		return g.parts
	}
	p := &partitions{revision: rev}
	hardFailure := false
	for _, c := range g.children {
		if c.Broken() {
			hardFailure = true
			break
		}
	}
	for _, c := range g.children {
		attention := needsAttention(c)
		// Unstable children only count as failing next to a hard failure.
		if hardFailure && attention {
			p.failing = append(p.failing, c)
		} else {
			p.passing = append(p.passing, c)
		}
		if attention {
			p.attention = append(p.attention, c)
			if c.CompletelyClaimed() {
				p.claimed = append(p.claimed, c)
			} else {
				p.unclaimed = append(p.unclaimed, c)
			}
		}
		if c.NotBuilt() {
			p.unbuilt = append(p.unbuilt, c)
		}
	}
	g.parts = p
	return p
}

// needsAttention is true for unstable or failing children that have been
// built at least once. A nested group needs attention only through its own
// children, so never-built jobs next to passing ones do not count.
func needsAttention(c ViewEntry) bool {
	if sub, ok := c.(*Group); ok {
		return len(sub.partitions().attention) > 0
	}
	if c.NotBuilt() {
		return false
	}
	return c.Broken() || !c.Stable() || c.FailCount() > 0
}

func (g *Group) Name() string { return g.name }

// Title is the group name followed by the names of its children.
func (g *Group) Title() string {
	names := make([]string, 0, len(g.children))
	for _, c := range g.children {
		names = append(names, c.Name())
	}
	return g.name + ": " + strings.Join(names, ", ")
}

func (g *Group) Children() []ViewEntry { return append([]ViewEntry(nil), g.children...) }

func (g *Group) Len() int { return len(g.children) }

func (g *Group) PassingJobs() []ViewEntry {
	return append([]ViewEntry(nil), g.partitions().passing...)
}

func (g *Group) FailingJobs() []ViewEntry {
	return append([]ViewEntry(nil), g.partitions().failing...)
}

func (g *Group) ClaimedJobs() []ViewEntry {
	return append([]ViewEntry(nil), g.partitions().claimed...)
}

func (g *Group) UnclaimedJobs() []ViewEntry {
	return append([]ViewEntry(nil), g.partitions().unclaimed...)
}

func (g *Group) UnbuiltJobs() []ViewEntry {
	return append([]ViewEntry(nil), g.partitions().unbuilt...)
}

func (g *Group) URL() string { return "" }

func (g *Group) Status() string {
	p := g.partitions()
	switch {
	case g.NotBuilt():
		return StatusNeverBuilt
	case g.Stable():
		return StatusSuccessful
	case len(p.claimed) > 0 && len(p.unclaimed) == 0:
		return StatusClaimed
	case g.Broken():
		return StatusFailing
	case len(p.attention) > 0:
		return StatusUnstable
	default:
		// Passing jobs next to never-built ones.
		return StatusSuccessful
	}
}

func (g *Group) BackgroundColor() string {
	if !g.Broken() && g.FailCount() == 0 {
		return groupColorPassing
	}
	if len(g.partitions().unclaimed) == 0 {
		return groupColorClaimed
	}
	return groupColorFailing
}

func (g *Group) Color() string { return groupColorText }

func (g *Group) Broken() bool {
	for _, c := range g.children {
		if c.Broken() {
			return true
		}
	}
	return false
}

func (g *Group) Building() bool {
	for _, c := range g.children {
		if c.Building() {
			return true
		}
	}
	return false
}

func (g *Group) Stable() bool {
	for _, c := range g.children {
		if !c.Stable() {
			return false
		}
	}
	return true
}

// NotBuilt is true when the group has children and none of them was ever built.
func (g *Group) NotBuilt() bool {
	if len(g.children) == 0 {
		return false
	}
	for _, c := range g.children {
		if !c.NotBuilt() {
			return false
		}
	}
	return true
}

func (g *Group) Queued() bool {
	for _, c := range g.children {
		if c.Queued() {
			return true
		}
	}
	return false
}

func (g *Group) TestCount() int {
	n := 0
	for _, c := range g.children {
		n += c.TestCount()
	}
	return n
}

func (g *Group) FailCount() int {
	n := 0
	for _, c := range g.children {
		n += c.FailCount()
	}
	return n
}

func (g *Group) SuccessCount() int {
	n := 0
	for _, c := range g.children {
		n += c.SuccessCount()
	}
	return n
}

func (g *Group) SuccessPercentage() string {
	total := g.TestCount()
	if total == 0 {
		return ""
	}
	return formatPercent(float64(g.SuccessCount()) / float64(total))
}

func (g *Group) Diff() string      { return "" }
func (g *Group) DiffColor() string { return "" }

// Culprits is the union of the culprits of the children needing attention.
func (g *Group) Culprits() []string {
	seen := map[string]struct{}{}
	for _, c := range g.partitions().attention {
		for _, name := range c.Culprits() {
			seen[name] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (g *Group) Culprit() string {
	return strings.Join(g.Culprits(), ", ")
}

func (g *Group) Claim() string {
	var sb strings.Builder
	for _, c := range g.children {
		if c.Claimed() {
			sb.WriteString(c.Name())
			sb.WriteString(": ")
			sb.WriteString(c.Claim())
			sb.WriteString(";")
		}
	}
	return sb.String()
}

func (g *Group) Claimed() bool {
	for _, c := range g.children {
		if c.Claimed() {
			return true
		}
	}
	return false
}

func (g *Group) CompletelyClaimed() bool {
	p := g.partitions()
	return len(p.claimed) > 0 && len(p.unclaimed) == 0
}

func (g *Group) LastCompletedBuild() string { return "" }
func (g *Group) LastStableBuild() string    { return "" }

// LastFinishedResult is unset for groups, so groups sort by name.
func (g *Group) LastFinishedResult() protocol.Result { return protocol.ResultUnset }

func (g *Group) HasChildren() bool { return len(g.children) > 0 }
