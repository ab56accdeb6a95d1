package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mmrzaf/mockgen/internal/domain"
	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
	"github.com/mmrzaf/mockgen/internal/rules"
)

var ErrInvalid = errors.New("validation failed")

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Where    string   `json:"where"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Where, i.Message)
}

// Report collects everything found in one validation pass. Warnings never
// block a run; errors do.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, where, format string, args ...interface{}) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Where: where, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) errorf(where, format string, args ...interface{}) {
	r.add(SeverityError, where, format, args...)
}

func (r *Report) warnf(where, format string, args ...interface{}) {
	r.add(SeverityWarning, where, format, args...)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

func (r *Report) Errors() []Issue   { return r.filter(SeverityError) }
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

// Err returns nil when the report holds no errors.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Where + ": " + e.Message
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

type Validator struct {
	rules     *registry.RuleRegistry
	synthetic *generators.Synthetic
}

func NewValidator(reg *registry.RuleRegistry, synthetic *generators.Synthetic) *Validator {
	if synthetic == nil {
		synthetic = &generators.Synthetic{}
	}
	return &Validator{rules: reg, synthetic: synthetic}
}

// identifier validation: domain and table names end up in file paths and
// mirror table names.
var (
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reservedWords = map[string]struct{}{
		"add": {}, "all": {}, "alter": {}, "and": {}, "any": {}, "as": {},
		"asc": {}, "between": {}, "by": {}, "case": {}, "check": {},
		"column": {}, "constraint": {}, "create": {}, "cross": {}, "current_date": {},
		"current_time": {}, "current_timestamp": {}, "database": {}, "default": {}, "delete": {},
		"desc": {}, "distinct": {}, "do": {}, "drop": {}, "else": {},
		"end": {}, "except": {}, "exists": {}, "false": {}, "for": {},
		"foreign": {}, "from": {}, "full": {}, "grant": {}, "group": {},
		"having": {}, "in": {}, "index": {}, "inner": {}, "insert": {},
		"intersect": {}, "into": {}, "is": {}, "join": {}, "key": {},
		"left": {}, "like": {}, "limit": {}, "natural": {}, "not": {},
		"null": {}, "offset": {}, "on": {}, "or": {}, "order": {},
		"outer": {}, "primary": {}, "references": {}, "returning": {}, "revoke": {},
		"right": {}, "schema": {}, "select": {}, "set": {}, "table": {},
		"then": {}, "to": {}, "true": {}, "truncate": {}, "union": {},
		"unique": {}, "update": {}, "user": {}, "using": {}, "values": {},
		"view": {}, "when": {}, "where": {}, "with": {},
	}
)

func IsValidIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !identRe.MatchString(s) {
		return false
	}
	if _, ok := reservedWords[strings.ToLower(s)]; ok {
		return false
	}
	return true
}

// IsValidColumnName accepts anything a CSV header and a quoted SQL
// identifier can carry.
func IsValidColumnName(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return !strings.ContainsAny(s, "\"\r\n,")
}

func isValidColumnType(t string) bool {
	switch strings.ToLower(t) {
	case "varchar", "int":
		return true
	default:
		return false
	}
}

func (v *Validator) ValidateSchema(schema *domain.DomainSchema) *Report {
	r := &Report{}
	v.validateSchema(r, schema)
	return r
}

func (v *Validator) validateSchema(r *Report, schema *domain.DomainSchema) {
	if !IsValidIdentifier(schema.Domain) {
		r.errorf(schema.Domain, "invalid domain identifier")
	}
	if len(schema.Tables) == 0 {
		r.warnf(schema.Domain, "domain has no tables")
	}

	tableNames := make(map[string]bool)
	for i := range schema.Tables {
		t := &schema.Tables[i]
		where := schema.Domain + "." + t.Name
		if !IsValidIdentifier(t.Name) {
			r.errorf(where, "invalid table identifier")
		}
		if tableNames[t.Name] {
			r.errorf(where, "duplicate table name")
		}
		tableNames[t.Name] = true
		if len(t.Columns) == 0 {
			r.errorf(where, "table must have at least one column")
		}
		v.validateTable(r, schema.Domain, t)
	}
}

func (v *Validator) validateTable(r *Report, domainName string, t *domain.TableSchema) {
	seen := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		where := domainName + "." + t.Name + "." + col.Name
		if !IsValidColumnName(col.Name) {
			r.errorf(where, "invalid column name %q", col.Name)
			continue
		}
		if _, dup := seen[col.Name]; dup {
			r.errorf(where, "duplicate column name")
		}
		seen[col.Name] = i

		if !isValidColumnType(col.Type) {
			r.warnf(where, "unknown type %q falls back to %q", col.Type, "UNKNOWN")
		}
		if col.Length < 0 {
			r.errorf(where, "length must be >= 0, got %d", col.Length)
		}
		v.validateRule(r, where, domainName, col, seen)
	}
}

// validateRule checks one rule against the registry and the columns
// declared before it. Problems here only degrade single values, so they
// are warnings.
func (v *Validator) validateRule(r *Report, where, domainName string, col domain.ColumnSpec, before map[string]int) {
	e := rules.Parse(col.Rule)
	if e.Err != nil {
		r.warnf(where, "malformed rule %q: %v", e.Text, e.Err)
		return
	}
	switch e.Kind {
	case rules.KindSynthetic:
		if !v.synthetic.Has(e.Call) {
			r.warnf(where, "unknown synthetic provider %q", e.Call)
		}
	case rules.KindCopy:
		if _, ok := before[e.Source]; !ok || e.Source == col.Name {
			r.warnf(where, "copy source %s is not generated before this column", e.Source)
		}
	case rules.KindCustom:
		rule, err := v.rules.Resolve(domainName, e.Name)
		if err != nil {
			r.warnf(where, "unknown rule %q", e.Name)
			return
		}
		if err := rule.CheckArity(len(e.Args)); err != nil {
			r.warnf(where, "%v", err)
		}
		for _, a := range e.Args {
			if !a.IsRef {
				continue
			}
			if _, ok := before[a.Value]; !ok || a.Value == col.Name {
				r.warnf(where, "argument %s refers to a column not generated before this one", a.Value)
			}
		}
	}
}

// ValidatePlan checks a plan against loaded schemas. Schemas of planned
// domains are validated as well.
func (v *Validator) ValidatePlan(plan *domain.Plan, schemas map[string]*domain.DomainSchema) *Report {
	r := &Report{}
	if len(plan.Tables) == 0 {
		r.errorf("plan", "plan must list at least one table")
	}
	if plan.ChunkSize < 0 {
		r.errorf("plan", "chunk_size must be >= 0, got %d", plan.ChunkSize)
	}
	if plan.ChunkThreshold < 0 {
		r.errorf("plan", "chunk_threshold must be >= 0, got %d", plan.ChunkThreshold)
	}

	ordered := make([]domain.TablePlan, len(plan.Tables))
	copy(ordered, plan.Tables)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].GenOrder < ordered[j].GenOrder })

	position := make(map[string]int, len(ordered))
	planned := make(map[string]domain.TablePlan, len(ordered))
	for i, tp := range ordered {
		if _, dup := position[tp.Key()]; dup {
			r.errorf(tp.Key(), "table planned twice")
			continue
		}
		position[tp.Key()] = i
		planned[tp.Key()] = tp
	}

	checked := make(map[string]bool)
	for i, tp := range ordered {
		where := tp.Key()
		if tp.Rows < 0 {
			r.errorf(where, "rows must be >= 0, got %d", tp.Rows)
		}
		ds, ok := schemas[tp.Domain]
		if !ok {
			r.errorf(where, "domain %q has no definitions", tp.Domain)
			continue
		}
		if !checked[tp.Domain] {
			checked[tp.Domain] = true
			v.validateSchema(r, ds)
		}
		ts := ds.Table(tp.Table)
		if ts == nil {
			r.errorf(where, "table is not defined in domain %q", tp.Domain)
			continue
		}
		if len(tp.ColumnOrder) > 0 {
			names := make(map[string]bool, len(ts.Columns))
			for _, c := range ts.Columns {
				names[c.Name] = true
			}
			for _, name := range tp.ColumnOrder {
				if !names[strings.TrimSpace(name)] {
					r.errorf(where, "column_order names unknown column %q", name)
				}
			}
		}
		v.validateReferences(r, tp, i, ts, schemas, position, planned)
	}

	if _, err := DependencyOrder(plan, schemas); err != nil {
		r.warnf("plan", "%v", err)
	}
	return r
}

// validateReferences warns about foreign keys into tables that are missing
// from the plan or generated later.
func (v *Validator) validateReferences(r *Report, tp domain.TablePlan, pos int, ts *domain.TableSchema,
	schemas map[string]*domain.DomainSchema, position map[string]int, planned map[string]domain.TablePlan) {
	for _, col := range ts.Columns {
		e := rules.Parse(col.Rule)
		if e.Kind != rules.KindForeignKey {
			continue
		}
		where := tp.Key() + "." + col.Name
		target := e.Target
		if target.Domain == "" {
			target.Domain = tp.Domain
		}
		key := target.Domain + "." + target.Table
		p, ok := position[key]
		switch {
		case !ok:
			r.warnf(where, "foreign key target %s is not in the plan; the column will be empty", key)
			continue
		case p == pos:
			r.warnf(where, "foreign key refers to its own table")
			continue
		case p > pos:
			r.warnf(where, "foreign key target %s is generated after this table", key)
		}

		if ds, ok := schemas[target.Domain]; ok {
			if parent := ds.Table(target.Table); parent != nil && !hasColumn(parent, target.Column) {
				r.warnf(where, "foreign key target column %s.%s is not defined", key, target.Column)
			}
		}
		if e.Cardinality == rules.OneToOne && planned[key].Rows < tp.Rows {
			r.warnf(where, "1:1 foreign key needs %d values but %s plans %d rows", tp.Rows, key, planned[key].Rows)
		}
	}
}

func hasColumn(t *domain.TableSchema, name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// DependencyOrder sorts the planned tables so every foreign key target comes
// before its dependents. Ties are broken by domain.table name. References to
// tables outside the plan are ignored.
func DependencyOrder(plan *domain.Plan, schemas map[string]*domain.DomainSchema) ([]string, error) {
	graph := make(map[string][]string) // dependency -> dependents
	inDegree := make(map[string]int)

	for _, tp := range plan.Tables {
		if _, ok := inDegree[tp.Key()]; !ok {
			inDegree[tp.Key()] = 0
		}
	}
	for _, tp := range plan.Tables {
		ds, ok := schemas[tp.Domain]
		if !ok {
			continue
		}
		ts := ds.Table(tp.Table)
		if ts == nil {
			continue
		}
		deps := make(map[string]bool)
		for _, col := range ts.Columns {
			e := rules.Parse(col.Rule)
			if e.Kind != rules.KindForeignKey {
				continue
			}
			d := e.Target.Domain
			if d == "" {
				d = tp.Domain
			}
			ref := d + "." + e.Target.Table
			if _, planned := inDegree[ref]; !planned || ref == tp.Key() || deps[ref] {
				continue
			}
			deps[ref] = true
			graph[ref] = append(graph[ref], tp.Key())
			inDegree[tp.Key()]++
		}
	}

	queue := make([]string, 0)
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range graph[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		sort.Strings(queue)
	}

	if len(result) != len(inDegree) {
		return result, errors.New("cycle detected in foreign key dependencies")
	}
	return result, nil
}
