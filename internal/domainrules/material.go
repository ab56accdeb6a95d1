package domainrules

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
)

const materialDomain = "material"

const patternLetters = "NSKEWRPTL"

var letterToTypes = map[byte][]string{
	'N': {"HAWA", "FERT", "DIEN"},
	'S': {"HAWA", "FERT", "DIEN", "ERSA"},
	'K': {"HAWA", "FERT", "DIEN"},
	'E': {"HAWA", "FERT"},
	'W': {"FERT"},
	'R': {"FERT"},
	'P': {"FERT"},
	'T': {"FERT"},
	'L': {"FERT"},
}

var productGroups = []string{
	"43233410", "43212110", "44103101", "44103107", "44103108", "44103109", "44103004",
	"44103125", "44103110", "44101728", "44103121", "44122107",
	"44103127", "44103104", "44103120",
}

var mrpControllers = []string{
	"U0V1", "6XCL", "EQ05", "C0Y1", "B1X0",
	"D2F1", "B2T0", "C0X1", "B1J1", "D2C1",
	"B1Y0", "1A1A", "C0U1", "B1F1", "A3R0",
}

// productNumbers issues unique numbers shaped "123N54321" and records them
// so dependent tables can take one-to-one copies.
type productNumbers struct {
	unique *uniqueSet
	ledger *generators.KeyLedger
}

func newProductNumbers() *productNumbers {
	return &productNumbers{unique: newUniqueSet(), ledger: generators.NewKeyLedger()}
}

func (pn *productNumbers) generate(c *registry.Call, letter string) (string, error) {
	if letter != "" && (len(letter) != 1 || !strings.Contains(patternLetters, letter)) {
		return "", fmt.Errorf("invalid letter %q, must be one of %s", letter, patternLetters)
	}
	v, err := pn.unique.Draw(func() string {
		l := letter
		if l == "" {
			l = string(patternLetters[c.Rand.Intn(len(patternLetters))])
		}
		return fmt.Sprintf("%03d%s%05d", c.Rand.Intn(1000), l, c.Rand.Intn(100000))
	})
	if err != nil {
		return "", err
	}
	pn.ledger.Issue(v)
	return v, nil
}

// fkCopy hands out each issued number once per consumer table. An explicit
// table argument names the consumer; "s_" prefixes are ignored.
func fkCopy(ledger *generators.KeyLedger) registry.Func {
	return func(c *registry.Call) (interface{}, error) {
		consumer := strings.ToLower(c.String(0))
		if consumer == "" {
			consumer = strings.ToLower(c.Table)
		}
		consumer = strings.TrimPrefix(consumer, "s_")
		return ledger.Next(consumer), nil
	}
}

func registerMaterial(reg *registry.RuleRegistry, p *Pools, now time.Time) {
	products := newProductNumbers()
	stamp := now.Format("2006.01.02 15:04:05")
	d := materialDomain

	reg.Register(d, "generate_product_number", func(c *registry.Call) (interface{}, error) {
		return products.generate(c, c.String(0))
	}, registry.WithArity(0, 2))
	reg.Register(d, "assign_product_type", func(c *registry.Call) (interface{}, error) {
		pn := c.String(0)
		if len(pn) != 9 {
			return nil, fmt.Errorf("invalid product number length %d, expected 9", len(pn))
		}
		types, ok := letterToTypes[pn[3]]
		if !ok {
			return nil, fmt.Errorf("unknown pattern letter %q", pn[3])
		}
		return types[c.Rand.Intn(len(types))], nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "old_product_id", func(c *registry.Call) (interface{}, error) {
		n := 7 + c.Rand.Intn(5)
		core := generators.Bothify(c.Rand, strings.Repeat("?", n))
		b := []byte(core)
		for i := range b {
			if c.Rand.Intn(36) < 10 {
				b[i] = byte('0' + c.Rand.Intn(10))
			}
		}
		core = string(b)
		if c.Rand.Float64() < 0.5 {
			pos := 2 + c.Rand.Intn(n-3)
			core = core[:pos] + "-" + core[pos:]
		}
		return core, nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "get_datetime", fixed(stamp), registry.WithArity(0, 0))
	reg.Register(d, "fk_copy", fkCopy(products.ledger), registry.WithArity(0, 1))

	reg.Register(d, "get_random_grouping_terms", oneOf("1", "2", "3", "4", "5"), registry.WithArity(0, 0))
	reg.Register(d, "get_random_delivery_plant", oneOf("CA32", "US32"), registry.WithArity(0, 0))
	reg.Register(d, "get_random_distribution_channels", oneOf("10", "20", "30"), registry.WithArity(0, 0))
	reg.Register(d, "get_sales_org", func(c *registry.Call) (interface{}, error) {
		switch c.String(0) {
		case "CA32":
			return pick(c.Rand, "1704", "1710"), nil
		case "US32":
			return pick(c.Rand, "2930", "2910"), nil
		}
		return "", nil
	}, registry.WithArity(1, 1))

	reg.Register(d, "get_country", func(c *registry.Call) (interface{}, error) {
		return map[string]string{"US32": "US", "CA32": "CA"}[parentValue(c)], nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "get_sales_tax_cat_one", func(c *registry.Call) (interface{}, error) {
		return map[string]string{"US": "UTXJ", "CA": "CTXJ"}[c.String(0)], nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_currency", func(c *registry.Call) (interface{}, error) {
		return map[string]string{"US32": "USD", "CA32": "CAD"}[parentValue(c)], nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "get_valuation_class", func(c *registry.Call) (interface{}, error) {
		source := c.String(3)
		switch parentValue(c) {
		case "HAWA":
			if len(source) >= 4 && source[3] == 'N' {
				return "3100", nil
			}
			return "3110", nil
		case "ERSA":
			return "3040", nil
		case "FERT":
			return "7920", nil
		case "DIEN":
			return "3300", nil
		}
		return "", nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "get_product_group", func(c *registry.Call) (interface{}, error) {
		switch c.String(0) {
		case "HAWA", "FERT":
			return pick(c.Rand, productGroups...), nil
		case "DIEN":
			return "81112306", nil
		}
		return "", nil
	}, registry.WithArity(1, 1))

	lognormal := func(mu, sigma float64) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			return generators.Round(generators.Lognormal(c.Rand, mu, sigma), 2), nil
		}
	}
	reg.Register(d, "generate_gross_weight", func(c *registry.Call) (interface{}, error) {
		w := generators.Lognormal(c.Rand, 0, 1)
		return generators.Round(math.Min(math.Max(w, 0.05), 50.0), 2), nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "generate_length", lognormal(2.5, 0.25), registry.WithArity(0, 0))
	reg.Register(d, "generate_width", lognormal(2.0, 0.25), registry.WithArity(0, 0))
	reg.Register(d, "generate_height", lognormal(1.7, 0.25), registry.WithArity(0, 0))
	reg.Register(d, "generate_weight", lognormal(-0.2, 0.5), registry.WithArity(0, 0))
	reg.Register(d, "generate_volume", func(c *registry.Call) (interface{}, error) {
		g := generators.Context{Args: c.Args}
		l, err := g.Float(0)
		if err != nil {
			return nil, fmt.Errorf("length: %w", err)
		}
		w, err := g.Float(1)
		if err != nil {
			return nil, fmt.Errorf("width: %w", err)
		}
		h, err := g.Float(2)
		if err != nil {
			return nil, fmt.Errorf("height: %w", err)
		}
		return generators.Round(l*w*h, 2), nil
	}, registry.WithArity(3, 3))

	reg.Register(d, "assign_random_mrp_controller", oneOf(mrpControllers...), registry.WithArity(0, 0))
	reg.Register(d, "assign_country_origin", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "US32" {
			return "US", nil
		}
		return "CA", nil
	}, registry.WithArity(1, 1))
	between := func(lo, hi int) registry.Func {
		return func(c *registry.Call) (interface{}, error) { return lo + c.Rand.Intn(hi-lo+1), nil }
	}
	reg.Register(d, "generate_wzeit_replenishment_simple", between(7, 30), registry.WithArity(0, 0))
	reg.Register(d, "generate_plifz_simple", between(7, 60), registry.WithArity(0, 0))
	reg.Register(d, "generate_webaz_simple", between(2, 14), registry.WithArity(0, 0))
	reg.Register(d, "get_product_description", oneOf(p.Catalog.ProductDescriptions...), registry.WithArity(0, 0))
}
