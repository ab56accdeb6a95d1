// Package registry maps rule names to functions, per domain, with a shared
// set of built-in rules every domain falls back to.
package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/lookup"
)

// Common is the pseudo-domain holding the built-in rules.
const Common = "common"

// NoRow is the Row value for rules registered without WithRowIndex.
const NoRow int64 = -1

var ErrUnknownRule = errors.New("unknown rule")

// Call is one rule invocation. Args are already resolved: literals as
// written, back-references as the current row's values.
type Call struct {
	Domain   string
	Table    string
	Column   string
	Args     []interface{}
	Row      int64
	Rand     *rand.Rand
	Lookups  *lookup.Cache
	Entities *entity.State
}

func (c *Call) Arg(i int) interface{} {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// String renders argument i as text; missing arguments are "".
func (c *Call) String(i int) string {
	return domain.FormatValue(c.Arg(i))
}

func (c *Call) Context() generators.Context {
	return generators.Context{RowIndex: c.Row, Args: c.Args}
}

type Func func(c *Call) (interface{}, error)

type Rule struct {
	Domain        string
	Name          string
	Fn            Func
	WantsRowIndex bool
	MinArgs       int
	MaxArgs       int
	Validate      func(argc int) error
}

// CheckArity reports whether argc arguments suit the rule.
func (r Rule) CheckArity(argc int) error {
	if r.Validate != nil {
		return r.Validate(argc)
	}
	if argc < r.MinArgs || (r.MaxArgs >= 0 && argc > r.MaxArgs) {
		return fmt.Errorf("%s: unexpected argument count %d", r.Name, argc)
	}
	return nil
}

type Option func(*Rule)

// WithRowIndex marks a rule that receives the absolute row index.
func WithRowIndex() Option {
	return func(r *Rule) { r.WantsRowIndex = true }
}

// WithArity bounds the argument count; max < 0 means unbounded.
func WithArity(min, max int) Option {
	return func(r *Rule) {
		r.MinArgs = min
		r.MaxArgs = max
	}
}

type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]map[string]Rule
}

func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{
		rules: make(map[string]map[string]Rule),
	}
}

func (r *RuleRegistry) Register(domainName, name string, fn Func, opts ...Option) {
	rule := Rule{Domain: domainName, Name: name, Fn: fn, MaxArgs: -1}
	for _, opt := range opts {
		opt(&rule)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rules[domainName] == nil {
		r.rules[domainName] = make(map[string]Rule)
	}
	r.rules[domainName][name] = rule
}

// RegisterGenerator exposes a generator as a rule; its Validate becomes the
// arity check.
func (r *RuleRegistry) RegisterGenerator(domainName, name string, g generators.Generator, opts ...Option) {
	fn := func(c *Call) (interface{}, error) {
		return g.Generate(c.Rand, c.Context())
	}
	opts = append(opts, func(rule *Rule) { rule.Validate = g.Validate })
	r.Register(domainName, name, fn, opts...)
}

// Resolve looks the name up in the domain set, then in Common.
func (r *RuleRegistry) Resolve(domainName, name string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rule, ok := r.rules[domainName][name]; ok {
		return rule, nil
	}
	if rule, ok := r.rules[Common][name]; ok {
		return rule, nil
	}
	return Rule{}, fmt.Errorf("%w: %s.%s", ErrUnknownRule, domainName, name)
}

func (r *RuleRegistry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		if name != Common {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// List returns the rule names visible from a domain, built-ins included.
func (r *RuleRegistry) List(domainName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for name := range r.rules[domainName] {
		seen[name] = struct{}{}
	}
	for name := range r.rules[Common] {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
