// Package domainrules holds the business rule sets for the customer,
// vendor, employee, material and equipment domains. Each Register call
// builds fresh counters and uniqueness sets, so two runs never share state.
package domainrules

import (
	"embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/mockgen/internal/registry"
)

//go:embed data/*.yaml
var dataFS embed.FS

type Address struct {
	Street   string `yaml:"street"`
	PostCode string `yaml:"post_code"`
	City     string `yaml:"city"`
	Country  string `yaml:"country"`
	Region   string `yaml:"region"`
	Language string `yaml:"language"`
}

type Person struct {
	ID            string `yaml:"id"`
	Initials      string `yaml:"initials"`
	LastName      string `yaml:"last_name"`
	SecondName    string `yaml:"second_name"`
	FirstName     string `yaml:"first_name"`
	Title         string `yaml:"title"`
	MiddleName    string `yaml:"middle_name"`
	Gender        string `yaml:"gender"`
	BirthDate     string `yaml:"birth_date"`
	Nationality   string `yaml:"nationality"`
	MaritalStatus string `yaml:"marital_status"`
}

type EquipmentInfo struct {
	Description string `yaml:"description"`
	Weight      string `yaml:"weight"`
}

type catalog struct {
	ProductDescriptions []string        `yaml:"product_descriptions"`
	Equipment           []EquipmentInfo `yaml:"equipment"`
}

// Pools are the read-only reference data the rule sets sample from.
type Pools struct {
	Addresses []Address
	Persons   []Person
	Catalog   catalog

	byStreet map[string]Address
	byPerson map[string]Person
}

var (
	poolsOnce sync.Once
	pools     *Pools
	poolsErr  error
)

// LoadPools parses the embedded reference data once per process.
func LoadPools() (*Pools, error) {
	poolsOnce.Do(func() {
		p := &Pools{}
		if err := readYAML("data/addresses.yaml", &p.Addresses); err != nil {
			poolsErr = err
			return
		}
		if err := readYAML("data/persons.yaml", &p.Persons); err != nil {
			poolsErr = err
			return
		}
		if err := readYAML("data/catalog.yaml", &p.Catalog); err != nil {
			poolsErr = err
			return
		}
		p.byStreet = make(map[string]Address, len(p.Addresses))
		for _, a := range p.Addresses {
			p.byStreet[a.Street] = a
		}
		p.byPerson = make(map[string]Person, len(p.Persons))
		for _, person := range p.Persons {
			p.byPerson[person.ID] = person
		}
		pools = p
	})
	return pools, poolsErr
}

func readYAML(name string, out interface{}) error {
	data, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Register installs every domain rule set into reg. now fixes the
// timestamps rules stamp on rows for the whole run.
func Register(reg *registry.RuleRegistry, now time.Time) error {
	p, err := LoadPools()
	if err != nil {
		return err
	}
	registerCustomer(reg, p)
	registerVendor(reg, p)
	registerEmployee(reg, p)
	registerMaterial(reg, p, now)
	registerEquipment(reg, p)
	return nil
}

// counter hands out sequential numbers inside a fixed range.
type counter struct {
	mu    sync.Mutex
	name  string
	next  int64
	limit int64
}

func newCounter(name string, start, limit int64) *counter {
	return &counter{name: name, next: start, limit: limit}
}

func (c *counter) Next() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next > c.limit {
		return 0, fmt.Errorf("%s number range exhausted at %d", c.name, c.limit)
	}
	v := c.next
	c.next++
	return v, nil
}

// uniqueSet retries a generator until it yields an unseen value.
type uniqueSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newUniqueSet() *uniqueSet {
	return &uniqueSet{seen: make(map[string]struct{})}
}

const maxUniqueAttempts = 1000

func (u *uniqueSet) Draw(gen func() string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := 0; i < maxUniqueAttempts; i++ {
		v := gen()
		if _, ok := u.seen[v]; !ok {
			u.seen[v] = struct{}{}
			return v, nil
		}
	}
	return "", fmt.Errorf("no unused value after %d attempts (%d issued)", maxUniqueAttempts, len(u.seen))
}

func pick(rng *rand.Rand, values ...string) string {
	return values[rng.Intn(len(values))]
}

// maybe returns fn() with probability p and nil otherwise.
func maybe(rng *rand.Rand, p float64, fn func() interface{}) interface{} {
	if rng.Float64() < p {
		return fn()
	}
	return nil
}

func isUSA(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "USA", "US", "UNITED STATES":
		return true
	}
	return false
}

func isCanada(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "CANADA", "CA":
		return true
	}
	return false
}

func fixed(v interface{}) registry.Func {
	return func(*registry.Call) (interface{}, error) { return v, nil }
}

func oneOf(values ...string) registry.Func {
	return func(c *registry.Call) (interface{}, error) { return pick(c.Rand, values...), nil }
}

// parentValue resolves (table, key_column, value_column, key) from the first
// four arguments against the call's domain.
func parentValue(c *registry.Call) string {
	if c.Lookups == nil {
		return ""
	}
	v, _ := c.Lookups.Lookup(c.Domain, c.String(0), c.String(1), c.String(2), c.String(3))
	return v
}

// registerAddress installs the street-keyed address helpers.
func registerAddress(reg *registry.RuleRegistry, domainName string, p *Pools) {
	field := func(get func(Address) string) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			a, ok := p.byStreet[c.String(0)]
			if !ok {
				return "", nil
			}
			return get(a), nil
		}
	}
	reg.Register(domainName, "get_street", func(c *registry.Call) (interface{}, error) {
		return p.Addresses[c.Rand.Intn(len(p.Addresses))].Street, nil
	}, registry.WithArity(0, 0))
	reg.Register(domainName, "get_post_code1", field(func(a Address) string { return a.PostCode }), registry.WithArity(1, 1))
	reg.Register(domainName, "get_city1", field(func(a Address) string { return a.City }), registry.WithArity(1, 1))
	reg.Register(domainName, "get_country", field(func(a Address) string { return a.Country }), registry.WithArity(1, 1))
	reg.Register(domainName, "get_region", field(func(a Address) string { return a.Region }), registry.WithArity(1, 1))
	reg.Register(domainName, "get_langu_corr", field(func(a Address) string { return a.Language }), registry.WithArity(1, 1))
}

func cleanToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var freeEmailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

// emailFromNameCompany is absent 74.6% of the time.
func emailFromNameCompany(c *registry.Call) (interface{}, error) {
	if c.Rand.Float64() < 0.746 {
		return nil, nil
	}
	company := cleanToken(c.String(0))
	first := cleanToken(c.String(1))
	last := cleanToken(c.String(2))

	var user string
	switch {
	case first != "" && last != "":
		user = first + "." + last
	case first != "":
		user = first
	case last != "":
		user = last
	default:
		user = fmt.Sprintf("user%d", c.Rand.Intn(100000))
	}
	host := pick(c.Rand, freeEmailDomains...)
	if company != "" {
		host = company + ".com"
	}
	return user + "@" + host, nil
}

func usCaPhone(rng *rand.Rand) string {
	return fmt.Sprintf("+1-%d-%d-%d", 200+rng.Intn(800), 200+rng.Intn(800), 1000+rng.Intn(9000))
}
