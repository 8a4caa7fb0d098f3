// Package validate checks a merged, enriched specification. Every problem
// is collected as a string; nothing here mutates the tree or fails early.
package validate

import (
	"fmt"

	"github.com/ThomasCrouzet/domainforge/internal/hostinfo"
	"github.com/ThomasCrouzet/domainforge/internal/model"
	"github.com/ThomasCrouzet/domainforge/internal/resources"
)

// Options carries the run context that some rules depend on.
type Options struct {
	Context hostinfo.Context
}

// Rule is one independent check.
type Rule struct {
	Name  string // short key, e.g. "addressing"
	Check func(spec *model.Specification, opts Options, r *Report)
}

var registry []Rule

// Register adds a rule to the global registry. Each rule file calls this
// in its init().
func Register(rule Rule) {
	registry = append(registry, rule)
}

// Rules returns every registered rule in registration order.
func Rules() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	return out
}

// Run executes every registered rule and returns the collected errors.
// An empty result means the specification may be generated.
func Run(spec *model.Specification, opts Options) []string {
	var r Report
	for _, rule := range registry {
		rule.Check(spec, opts, &r)
	}
	return r.Errors()
}

// Report accumulates error strings.
type Report struct {
	errs []string
}

// Addf records one error.
func (r *Report) Addf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

// Errors returns what has been recorded so far.
func (r *Report) Errors() []string {
	return r.errs
}

// machineDevices returns the synthesized devices of spec, resolving them
// when enrichment has not attached them yet.
func machineDevices(spec *model.Specification) (shared, persistent map[string]map[string]model.Device) {
	shared, persistent = spec.SharedDevices, spec.PersistentDevices
	if shared == nil {
		shared = resources.ResolveSharedVolumes(spec)
	}
	if persistent == nil {
		persistent = resources.ResolvePersistentData(spec)
	}
	return shared, persistent
}

func checkFlag(r *Report, where, field string, f model.Flag) {
	if !f.Valid() {
		r.Addf("%s: %s must be a boolean (true/false), got %q", where, field, f.Raw())
	}
}

func checkEnum(r *Report, where, field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	r.Addf("%s: %s must be one of %v, got %q", where, field, allowed, value)
}

func domainRef(d *model.Domain) string {
	return fmt.Sprintf("domain %q", d.Name)
}

func machineRef(m *model.Machine) string {
	return fmt.Sprintf("machine %q (domain %q)", m.Name, m.Domain)
}
