package domainrules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmrzaf/mockgen/internal/registry"
)

const customerDomain = "customer"

var timezones = map[string][]string{
	"US": {"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "America/Phoenix", "America/Anchorage", "Pacific/Honolulu"},
	"CA": {"America/Toronto", "America/Vancouver", "America/Edmonton", "America/Winnipeg", "America/Halifax", "America/St_Johns", "America/Regina"},
}

var dunsTypes = map[string]string{
	"DUN & Bradstreet": "BUP001",
	"DNB Global":       "YDNB01",
	"DNB Domestic":     "YDNB02",
	"DNB Parent":       "YDNB03",
	"DNB Headquarters": "YDNB04",
}

var dunsTypeNames = []string{"DUN & Bradstreet", "DNB Global", "DNB Domestic", "DNB Parent", "DNB Headquarters"}

func registerCustomer(reg *registry.RuleRegistry, p *Pools) {
	numbers := newCounter("customer", 100_000_000, 299_999_999)
	d := customerDomain

	reg.Register(d, "get_customer_number", func(*registry.Call) (interface{}, error) {
		return numbers.Next()
	}, registry.WithArity(0, 0))

	reg.Register(d, "get_random_timezone", func(c *registry.Call) (interface{}, error) {
		country := c.String(0)
		if country == "" {
			country = "USA"
		}
		iso := ""
		switch strings.ToUpper(country) {
		case "USA":
			iso = "US"
		case "CANADA":
			iso = "CA"
		default:
			return nil, errors.New("supported countries are USA and CANADA")
		}
		zones := timezones[iso]
		return zones[c.Rand.Intn(len(zones))], nil
	}, registry.WithArity(0, 1))

	registerAddress(reg, d, p)

	reg.Register(d, "email_from_name_company", emailFromNameCompany, registry.WithArity(0, 3))
	reg.Register(d, "mobile_by_country", func(c *registry.Call) (interface{}, error) {
		return maybe(c.Rand, 1-0.2924, func() interface{} {
			country := c.String(0)
			if isUSA(country) || isCanada(country) {
				return usCaPhone(c.Rand)
			}
			return nil
		}), nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "telephone_by_country", func(c *registry.Call) (interface{}, error) {
		return maybe(c.Rand, 1-0.2924, func() interface{} {
			country := c.String(0)
			switch {
			case isUSA(country):
				return fmt.Sprintf("(%d) %d-%04d", 200+c.Rand.Intn(800), 200+c.Rand.Intn(800), c.Rand.Intn(10000))
			case isCanada(country):
				return fmt.Sprintf("%d-%d-%04d", 200+c.Rand.Intn(800), 200+c.Rand.Intn(800), c.Rand.Intn(10000))
			}
			return nil
		}), nil
	}, registry.WithArity(1, 1))

	reg.Register(d, "random_sales_org", oneOf("1710", "2930"), registry.WithArity(0, 0))
	reg.Register(d, "get_currency", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "1710" {
			return "USD", nil
		}
		return "CAD", nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_delivery_plant", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "1710" {
			return "US18", nil
		}
		return "CA01", nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "random_account_assignment_group", oneOf("1", "2"), registry.WithArity(0, 0))

	salesOrg := func(c *registry.Call) (interface{}, error) {
		if parentValue(c) == "USA" {
			return "1710", nil
		}
		return "2930", nil
	}
	reg.Register(d, "get_sales_org", salesOrg, registry.WithArity(4, 4))
	reg.Register(d, "get_company_code", salesOrg, registry.WithArity(4, 4))
	reg.Register(d, "get_payment_terms", fixed("NT30"), registry.WithArity(0, 0))
	reg.Register(d, "get_payment_method", fixed("NT30"), registry.WithArity(0, 0))
	reg.Register(d, "get_house_bak", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "1710" {
			return "043000096", nil
		}
		return pick(c.Rand, "26002532", "089906629", "001000001"), nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_random_reconciliation_account", oneOf("12100000", "12120000"), registry.WithArity(0, 0))
	reg.Register(d, "get_country_region", func(c *registry.Call) (interface{}, error) {
		if parentValue(c) == "USA" {
			return "US", nil
		}
		return "CA", nil
	}, registry.WithArity(4, 4))
	reg.Register(d, "get_tax_category", func(c *registry.Call) (interface{}, error) {
		if c.String(0) == "US" {
			return "UTXJ", nil
		}
		return "CTXJ", nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_tax_classification", oneOf("0", "1"), registry.WithArity(0, 0))
	reg.Register(d, "get_type_duns_data", oneOf(dunsTypeNames...), registry.WithArity(0, 0))
	reg.Register(d, "get_id_duns_data", func(c *registry.Call) (interface{}, error) {
		return dunsTypes[c.String(0)], nil
	}, registry.WithArity(1, 1))
}
