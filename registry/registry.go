// Package registry holds the signature tables for known AI SDKs, agent
// frameworks and AI service endpoints. It is pure data plus lookup: the
// extraction tiers consult it to decide whether a file, import or call is
// workflow-relevant.
package registry

import (
	"regexp"
	"sync"
)

// Provider describes one known AI SDK or service.
type Provider struct {
	ID             string   `yaml:"id"`
	ImportPatterns []string `yaml:"imports"`
	CallPatterns   []string `yaml:"calls"`
}

// Framework describes one known agent framework. A framework import alone
// marks a file workflow-relevant, without requiring a matching call.
type Framework struct {
	ID       string   `yaml:"id"`
	Patterns []string `yaml:"patterns"`
}

// Registry resolves text against the provider, framework and service-domain
// signature tables.
type Registry struct {
	providers  []Provider
	frameworks []Framework
	domains    []string

	once            sync.Once
	importRes       []*regexp.Regexp
	callRes         []*regexp.Regexp
	frameworkRes    map[string][]*regexp.Regexp
	frameworkOrder  []string
	domainRes       []*regexp.Regexp
	constructorRe   *regexp.Regexp
	callMethodRe    *regexp.Regexp
	parserMethodRe  *regexp.Regexp
	httpMethodRe    *regexp.Regexp
	toolMethodRe    *regexp.Regexp
	memoryPatternRe *regexp.Regexp
}

// Default returns a registry loaded with the built-in signature tables.
func Default() *Registry {
	return &Registry{
		providers:  builtinProviders,
		frameworks: builtinFrameworks,
		domains:    builtinDomains,
	}
}

func (r *Registry) compile() {
	r.once.Do(func() {
		for _, p := range r.providers {
			for _, pat := range p.ImportPatterns {
				r.importRes = append(r.importRes, regexp.MustCompile(pat))
			}
			for _, pat := range p.CallPatterns {
				r.callRes = append(r.callRes, regexp.MustCompile(pat))
			}
		}
		r.frameworkRes = make(map[string][]*regexp.Regexp)
		for _, f := range r.frameworks {
			r.frameworkOrder = append(r.frameworkOrder, f.ID)
			for _, pat := range f.Patterns {
				r.frameworkRes[f.ID] = append(r.frameworkRes[f.ID], regexp.MustCompile(pat))
			}
		}
		for _, pat := range r.domains {
			r.domainRes = append(r.domainRes, regexp.MustCompile(pat))
		}
		r.constructorRe = regexp.MustCompile(constructorPattern)
		r.callMethodRe = regexp.MustCompile(callMethodPattern)
		r.parserMethodRe = regexp.MustCompile(parserMethodPattern)
		r.httpMethodRe = regexp.MustCompile(httpMethodPattern)
		r.toolMethodRe = regexp.MustCompile(toolMethodPattern)
		r.memoryPatternRe = regexp.MustCompile(memoryPattern)
	})
}

// MatchesImport reports whether text matches any provider import pattern.
func (r *Registry) MatchesImport(text string) bool {
	r.compile()
	for _, re := range r.importRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchesCall reports whether text matches any provider call pattern.
func (r *Registry) MatchesCall(text string) bool {
	r.compile()
	for _, re := range r.callRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchesFramework reports whether text matches any agent-framework pattern.
func (r *Registry) MatchesFramework(text string) bool {
	return r.DetectFramework(text) != ""
}

// DetectFramework returns the id of the first framework whose patterns match
// text, or "" when none match. Framework order is the declaration order of
// the signature tables, so more specific frameworks are listed first.
func (r *Registry) DetectFramework(text string) string {
	r.compile()
	for _, id := range r.frameworkOrder {
		for _, re := range r.frameworkRes[id] {
			if re.MatchString(text) {
				return id
			}
		}
	}
	return ""
}

// MatchesServiceDomain reports whether text references a known AI service
// HTTP domain or endpoint shape.
func (r *Registry) MatchesServiceDomain(text string) bool {
	r.compile()
	for _, re := range r.domainRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsWorkflowFile applies the relevance rule: a file counts as
// workflow-relevant when it matches both an import pattern and a call
// pattern, or matches any framework pattern standalone.
func (r *Registry) IsWorkflowFile(text string) bool {
	if r.MatchesFramework(text) {
		return true
	}
	return r.MatchesImport(text) && r.MatchesCall(text)
}

// MatchesConstructor reports whether an initializer expression constructs a
// known AI client, e.g. "new OpenAI(...)" or "Anthropic(...)".
func (r *Registry) MatchesConstructor(expr string) bool {
	r.compile()
	return r.constructorRe.MatchString(expr)
}

// IsCallMethod reports whether a method name has a known AI-call shape
// (completion/generation style names).
func (r *Registry) IsCallMethod(name string) bool {
	r.compile()
	return r.callMethodRe.MatchString(name)
}

// IsParserMethod reports whether a method name has a JSON-parsing shape.
func (r *Registry) IsParserMethod(name string) bool {
	r.compile()
	return r.parserMethodRe.MatchString(name)
}

// IsHTTPMethod reports whether a method name is a generic HTTP verb.
func (r *Registry) IsHTTPMethod(name string) bool {
	r.compile()
	return r.httpMethodRe.MatchString(name)
}

// IsToolMethod reports whether a method name has a tool-registration shape.
func (r *Registry) IsToolMethod(name string) bool {
	r.compile()
	return r.toolMethodRe.MatchString(name)
}

// MatchesMemory reports whether an expression references a known memory or
// vector-store component.
func (r *Registry) MatchesMemory(expr string) bool {
	r.compile()
	return r.memoryPatternRe.MatchString(expr)
}
