package domainrules

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
)

const vendorDomain = "vendor"

var errBankCountry = errors.New("invalid bank country, expected US or CA")

// supplierID abbreviates a name to at most four initials and appends either
// a dashed seven digit or a two digit suffix.
func supplierID(c *registry.Call, name string) string {
	if name == "" {
		return ""
	}
	upper := strings.ToUpper(name)
	var clean, initials strings.Builder
	for _, word := range strings.Fields(upper) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				initials.WriteRune(r)
				break
			}
		}
	}
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			clean.WriteRune(r)
		}
	}
	prefix := clean.String()
	if len(strings.Fields(upper)) >= 2 {
		prefix = initials.String()
	}
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	var suffix string
	if c.Rand.Float64() < 0.5 {
		suffix = fmt.Sprintf("-%d", 1_000_000+c.Rand.Intn(9_000_000))
	} else {
		suffix = fmt.Sprintf("%d", 10+c.Rand.Intn(90))
	}
	id := prefix + suffix
	if len(id) > 20 {
		id = id[:20]
	}
	return id
}

func registerVendor(reg *registry.RuleRegistry, p *Pools) {
	lifnr := newCounter("YN01 vendor", 300_000_000, 399_999_999)
	d := vendorDomain

	reg.Register(d, "generate_lifnr_yn01", func(*registry.Call) (interface{}, error) {
		n, err := lifnr.Next()
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%09d", n), nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "supplier_id_from_name", func(c *registry.Call) (interface{}, error) {
		return supplierID(c, c.String(0)), nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "supplier_id_from_table", func(c *registry.Call) (interface{}, error) {
		return supplierID(c, parentValue(c)), nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "supplier_code", func(c *registry.Call) (interface{}, error) {
		prefix := strings.ToUpper(strings.Join(strings.Fields(c.String(0)), ""))
		if len(prefix) > 4 {
			prefix = prefix[:4]
		}
		return fmt.Sprintf("%s-%d", prefix, 8_000_000_000+c.Rand.Int63n(1_000_000_000)), nil
	}, registry.WithArity(1, 1))

	registerAddress(reg, d, p)

	byParentCountry := func(us, ca interface{}) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			if parentValue(c) == "USA" {
				return us, nil
			}
			return ca, nil
		}
	}
	reg.Register(d, "get_company_code", byParentCountry(1704, 2910), registry.WithArity(4, 4))
	reg.Register(d, "get_purchasing_org", byParentCountry("US01", "CAO1"), registry.WithArity(4, 4))
	reg.Register(d, "get_bank_country", byParentCountry("US", "CA"), registry.WithArity(4, 4))
	reg.Register(d, "get_currency", byParentCountry("USD", "CAD"), registry.WithArity(4, 4))
	reg.Register(d, "get_reconciliation_account", byParentCountry(21100000, 21300000), registry.WithArity(4, 4))
	reg.Register(d, "get_account_number", func(c *registry.Call) (interface{}, error) {
		if parentValue(c) == "USA" {
			return generators.Numerify(c.Rand, "############"), nil
		}
		return generators.Numerify(c.Rand, "#######"), nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "get_iban_number", func(c *registry.Call) (interface{}, error) {
		cc := "CA"
		if parentValue(c) == "USA" {
			cc = "US"
		}
		return cc + generators.Numerify(c.Rand, "##") + generators.Lexify(c.Rand, "????") + generators.Numerify(c.Rand, "##############"), nil
	}, registry.WithArity(4, 4))

	reg.Register(d, "optional_first_name", func(c *registry.Call) (interface{}, error) {
		return maybe(c.Rand, 0.8312, func() interface{} {
			return p.Persons[c.Rand.Intn(len(p.Persons))].FirstName
		}), nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "conditional_last_name", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "" {
			return nil, nil
		}
		return p.Persons[c.Rand.Intn(len(p.Persons))].LastName, nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "phone_by_country", func(c *registry.Call) (interface{}, error) {
		return maybe(c.Rand, 1-0.2924, func() interface{} {
			country := c.String(0)
			if isUSA(country) || isCanada(country) {
				return usCaPhone(c.Rand)
			}
			return nil
		}), nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "email_from_name_company", emailFromNameCompany, registry.WithArity(0, 3))

	reg.Register(d, "generate_bank_key", func(c *registry.Call) (interface{}, error) {
		switch strings.ToUpper(strings.TrimSpace(c.String(0))) {
		case "US":
			return pick(c.Rand, "021000021", "026009593", "121000248", "021000089", "091000022"), nil
		case "CA":
			return pick(c.Rand, "0001004", "0040012", "0020020", "0010005", "0100063"), nil
		}
		return nil, errBankCountry
	}, registry.WithArity(1, 1))
	reg.Register(d, "generate_bkont", func(c *registry.Call) (interface{}, error) {
		switch strings.ToUpper(strings.TrimSpace(c.String(0))) {
		case "US":
			return pick(c.Rand, "01", "02", "03"), nil
		case "CA":
			return pick(c.Rand, "01", "02", "03", "04", "05"), nil
		}
		return nil, errBankCountry
	}, registry.WithArity(1, 1))
	reg.Register(d, "generate_bkref", func(c *registry.Call) (interface{}, error) {
		switch strings.ToUpper(strings.TrimSpace(c.String(0))) {
		case "US":
			return "REF-" + generators.Numerify(c.Rand, "######"), nil
		case "CA":
			return "PAYID-" + generators.Numerify(c.Rand, "#####"), nil
		}
		return "BKREF" + generators.Bothify(c.Rand, "???####"), nil
	}, registry.WithArity(1, 1))

	reg.Register(d, "random_partner_function", oneOf("LF", "BA", "RS", "ZB"), registry.WithArity(0, 0))
	reg.Register(d, "random_tax_type", oneOf("X", ""), registry.WithArity(0, 0))
	reg.Register(d, "generate_tax_number", func(c *registry.Call) (interface{}, error) {
		if c.Rand.Intn(2) == 0 {
			return generators.Numerify(c.Rand, "##-#######"), nil
		}
		return generators.Numerify(c.Rand, "#########RT####"), nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "random_code", fixed("YNO1"), registry.WithArity(0, 0))
}
