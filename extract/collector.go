package extract

import "regexp"

type locationKey struct {
	line int
	kind Kind
}

// collector accumulates locations and tainted variables during a structural
// walk. At most one location per (line, kind) pair survives; the first one
// recorded in traversal order wins.
type collector struct {
	locations []CodeLocation
	seen      map[locationKey]bool
	tainted   map[string]bool

	// Decorator triggers are held back until the walk proves the decorated
	// function also contains a tainted-variable-related location. A
	// decorator-only file without AI calls must not produce triggers.
	pendingTriggers []CodeLocation
	functionHits    map[string]bool
}

func newCollector() *collector {
	return &collector{
		seen:         make(map[locationKey]bool),
		tainted:      make(map[string]bool),
		functionHits: make(map[string]bool),
	}
}

func (c *collector) record(loc CodeLocation) {
	if loc.Function == "" {
		loc.Function = GlobalScope
	}
	key := locationKey{line: loc.Line, kind: loc.Kind}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.locations = append(c.locations, loc)
	if loc.Kind != KindTrigger {
		c.functionHits[loc.Function] = true
	}
}

func (c *collector) deferTrigger(loc CodeLocation) {
	if loc.Function == "" {
		loc.Function = GlobalScope
	}
	loc.Kind = KindTrigger
	c.pendingTriggers = append(c.pendingTriggers, loc)
}

func (c *collector) taint(name string) {
	if name != "" {
		c.tainted[name] = true
	}
}

func (c *collector) isTainted(name string) bool {
	return c.tainted[name]
}

var identifierRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// referencesTainted reports whether any identifier in the expression text is
// a tainted variable.
func (c *collector) referencesTainted(text string) bool {
	for _, ident := range identifierRe.FindAllString(text, -1) {
		if c.tainted[ident] {
			return true
		}
	}
	return false
}

// finish resolves deferred triggers and transfers everything into the given
// analysis.
func (c *collector) finish(analysis *FileAnalysis) {
	for _, trigger := range c.pendingTriggers {
		if c.functionHits[trigger.Function] {
			c.record(trigger)
		}
	}
	analysis.Locations = c.locations
	for name := range c.tainted {
		analysis.TaintedVariables[name] = true
	}
}
