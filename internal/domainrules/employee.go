package domainrules

import (
	"strings"

	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
)

const employeeDomain = "employee"

var personNumberPrefixes = []string{"USG", "USX", "USWL", "CA", "US", "USWU"}

func registerEmployee(reg *registry.RuleRegistry, p *Pools) {
	objid := newCounter("OBJID (P)", 10_000_001, 19_999_999)
	sobid := newCounter("SOBID (S)", 50_000_001, 59_999_999)
	personNumbers := newUniqueSet()
	d := employeeDomain

	reg.Register(d, "generate_person_number", func(c *registry.Call) (interface{}, error) {
		return personNumbers.Draw(func() string {
			// Prefixed ids outweigh numeric ones 63:36; numeric ids start with 50.
			if c.Rand.Float64()*0.99 < 0.63 {
				prefix := pick(c.Rand, personNumberPrefixes...)
				n := 8 - len(prefix)
				if n < 3 {
					n = 9 - len(prefix)
				}
				return prefix + generators.Numerify(c.Rand, strings.Repeat("#", n))
			}
			return "50" + generators.Numerify(c.Rand, "######")
		})
	}, registry.WithArity(0, 0))

	// Versioned validity dates for recurring person numbers; one call of
	// either rule per row advances the entity history.
	reg.Register(d, "generate_start_date", registry.EntityStartDate, registry.WithRowIndex(), registry.WithArity(1, 1))
	reg.Register(d, "generate_end_date", registry.EntityEndDate, registry.WithRowIndex(), registry.WithArity(1, 1))

	reg.Register(d, "get_company_code", oneOf("1710", "2910"), registry.WithArity(0, 0))
	byCompany := func(us, ca string) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			if c.String(0) == "1710" {
				return us, nil
			}
			return ca, nil
		}
	}
	reg.Register(d, "get_personnel_area", byCompany("1710", "2910"), registry.WithArity(1, 1))
	reg.Register(d, "get_personnel_subarea", byCompany("1710", "2910"), registry.WithArity(1, 1))
	reg.Register(d, "get_Organizational_Unit", byCompany("50000000", "50000001"), registry.WithArity(1, 1))

	reg.Register(d, "get_person_id", func(c *registry.Call) (interface{}, error) {
		return p.Persons[c.Rand.Intn(len(p.Persons))].ID, nil
	}, registry.WithArity(0, 0))
	person := func(get func(Person) string) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			pp, ok := p.byPerson[c.String(0)]
			if !ok {
				return "", nil
			}
			return get(pp), nil
		}
	}
	reg.Register(d, "get_inits", person(func(pp Person) string { return pp.Initials }), registry.WithArity(1, 1))
	reg.Register(d, "get_Last_Name", person(func(pp Person) string { return pp.LastName }), registry.WithArity(1, 1))
	reg.Register(d, "get_Second_Name", person(func(pp Person) string { return pp.SecondName }), registry.WithArity(1, 1))
	reg.Register(d, "get_First_Name", person(func(pp Person) string { return pp.FirstName }), registry.WithArity(1, 1))
	reg.Register(d, "get_Title", person(func(pp Person) string { return pp.Title }), registry.WithArity(1, 1))
	reg.Register(d, "get_Middle_Name", person(func(pp Person) string { return pp.MiddleName }), registry.WithArity(1, 1))
	reg.Register(d, "get_Gender", person(func(pp Person) string { return pp.Gender }), registry.WithArity(1, 1))
	reg.Register(d, "get_Date_of_Birth", person(func(pp Person) string { return pp.BirthDate }), registry.WithArity(1, 1))
	reg.Register(d, "get_Nationality", person(func(pp Person) string { return pp.Nationality }), registry.WithArity(1, 1))
	reg.Register(d, "get_Marital_Status_Key", person(func(pp Person) string { return pp.MaritalStatus }), registry.WithArity(1, 1))

	reg.Register(d, "get_Communication_Language", func(c *registry.Call) (interface{}, error) {
		if parentValue(c) == "1710" {
			return "E", nil
		}
		return pick(c.Rand, "E", "F"), nil
	}, registry.WithArity(4, 4))

	reg.Register(d, "get_address_record_type", oneOf("01", "02", "03", "04", "05", "06"), registry.WithArity(0, 0))
	reg.Register(d, "get_random_subty_spa0006", oneOf("1", "2", "3", "4"), registry.WithArity(0, 0))
	reg.Register(d, "get_random_Infotype", oneOf("IT0000", "IT0001", "IT0002", "IT0006", "IT0105"), registry.WithArity(0, 0))
	reg.Register(d, "get_random_Subtype", func(c *registry.Call) (interface{}, error) {
		switch c.String(0) {
		case "IT0105":
			return "0010", nil
		case "IT0006":
			return "01", nil
		}
		return nil, nil
	}, registry.WithArity(1, 1))

	reg.Register(d, "generate_objid_p", func(*registry.Call) (interface{}, error) {
		return objid.Next()
	}, registry.WithArity(0, 0))
	reg.Register(d, "generate_sobid_s", func(*registry.Call) (interface{}, error) {
		return sobid.Next()
	}, registry.WithArity(0, 0))

	// Employee addresses reuse the shared pool keyed by street.
	reg.Register(d, "get_address_id", func(c *registry.Call) (interface{}, error) {
		return p.Addresses[c.Rand.Intn(len(p.Addresses))].Street, nil
	}, registry.WithArity(0, 0))
	address := func(get func(Address) string) registry.Func {
		return func(c *registry.Call) (interface{}, error) {
			a, ok := p.byStreet[c.String(0)]
			if !ok {
				return "", nil
			}
			return get(a), nil
		}
	}
	reg.Register(d, "get_post_stree_and_house_number", address(func(a Address) string { return a.Street }), registry.WithArity(1, 1))
	reg.Register(d, "get_City", address(func(a Address) string { return a.City }), registry.WithArity(1, 1))
	reg.Register(d, "get_Postal_Code", address(func(a Address) string { return a.PostCode }), registry.WithArity(1, 1))
	reg.Register(d, "get_region", address(func(a Address) string { return a.Region }), registry.WithArity(1, 1))
	reg.Register(d, "get_Country_Region_Key", address(func(a Address) string {
		if isUSA(a.Country) {
			return "US"
		}
		return "CA"
	}), registry.WithArity(1, 1))
}
