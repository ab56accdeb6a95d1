package domainrules

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/mmrzaf/mockgen/internal/entity"
	"github.com/mmrzaf/mockgen/internal/registry"
)

func newRegistry(t *testing.T) *registry.RuleRegistry {
	t.Helper()
	reg := registry.DefaultRuleRegistry(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := Register(reg, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	return reg
}

func invoke(t *testing.T, reg *registry.RuleRegistry, d, table, name string, args ...interface{}) interface{} {
	t.Helper()
	rule, err := reg.Resolve(d, name)
	if err != nil {
		t.Fatal(err)
	}
	if err := rule.CheckArity(len(args)); err != nil {
		t.Fatal(err)
	}
	v, err := rule.Fn(&registry.Call{Domain: d, Table: table, Args: args, Rand: rand.New(rand.NewSource(3)), Row: registry.NoRow})
	if err != nil {
		t.Fatalf("%s.%s: %v", d, name, err)
	}
	return v
}

func TestRegister_AllDomains(t *testing.T) {
	reg := newRegistry(t)
	want := []string{"customer", "employee", "equipment", "material", "vendor"}
	got := reg.Domains()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCustomerNumbers_AreSequential(t *testing.T) {
	reg := newRegistry(t)
	a := invoke(t, reg, "customer", "but000", "get_customer_number")
	b := invoke(t, reg, "customer", "but000", "get_customer_number")
	if a.(int64) != 100000000 || b.(int64) != 100000001 {
		t.Fatalf("unexpected sequence %v, %v", a, b)
	}

	other := newRegistry(t)
	if v := invoke(t, other, "customer", "but000", "get_customer_number"); v.(int64) != 100000000 {
		t.Fatalf("a fresh registry must restart numbering, got %v", v)
	}
}

func TestAddressHelpers_AgreeOnStreet(t *testing.T) {
	reg := newRegistry(t)
	street := invoke(t, reg, "vendor", "lfa1", "get_street").(string)
	city := invoke(t, reg, "vendor", "lfa1", "get_city1", street).(string)
	country := invoke(t, reg, "vendor", "lfa1", "get_country", street).(string)
	if city == "" || (country != "USA" && country != "CANADA") {
		t.Fatalf("inconsistent address for %q: %q/%q", street, city, country)
	}
	if v := invoke(t, reg, "vendor", "lfa1", "get_city1", "nowhere"); v != "" {
		t.Fatalf("unknown street should be empty, got %v", v)
	}
}

func TestVendorLifnr_ZeroPadded(t *testing.T) {
	reg := newRegistry(t)
	if v := invoke(t, reg, "vendor", "lfa1", "generate_lifnr_yn01"); v != "300000000" {
		t.Fatalf("unexpected first LIFNR %v", v)
	}
	rule, _ := reg.Resolve("vendor", "generate_bank_key")
	if _, err := rule.Fn(&registry.Call{Args: []interface{}{"MX"}, Rand: rand.New(rand.NewSource(1))}); err == nil {
		t.Fatal("expected error for unsupported bank country")
	}
}

func TestMaterial_ProductNumbersAndFKCopy(t *testing.T) {
	reg := newRegistry(t)
	var issued []string
	for i := 0; i < 5; i++ {
		v := invoke(t, reg, "material", "smara", "generate_product_number").(string)
		if len(v) != 9 || !strings.ContainsRune(patternLetters, rune(v[3])) {
			t.Fatalf("bad product number %q", v)
		}
		typ := invoke(t, reg, "material", "smara", "assign_product_type", v).(string)
		if typ == "" {
			t.Fatal("expected a product type")
		}
		issued = append(issued, v)
	}
	for i := 0; i < 5; i++ {
		if v := invoke(t, reg, "material", "smakt", "fk_copy", "S_SMAKT"); v != issued[i] {
			t.Fatalf("fk_copy %d: expected %q, got %v", i, issued[i], v)
		}
	}
	if v := invoke(t, reg, "material", "smakt", "fk_copy", "S_SMAKT"); v != "" {
		t.Fatalf("exhausted fk_copy should be empty, got %v", v)
	}
	if v := invoke(t, reg, "material", "smarc", "fk_copy"); v != issued[0] {
		t.Fatalf("another table starts from the first number, got %v", v)
	}
}

func TestEquipment_DescriptionFollowsMaterial(t *testing.T) {
	reg := newRegistry(t)
	mn := invoke(t, reg, "equipment", "equi", "get_material_number").(string)
	desc := invoke(t, reg, "equipment", "equi", "get_equipment_description", mn).(string)
	weight := invoke(t, reg, "equipment", "equi", "get_equipment_weight", mn).(string)
	if desc == "" || weight == "" {
		t.Fatalf("expected bound catalog entry for %s", mn)
	}
	again := invoke(t, reg, "equipment", "equi", "get_equipment_description", mn).(string)
	if again != desc {
		t.Fatal("description must be stable for a material number")
	}
}

func TestEmployee_StartEndDatesUseEntityState(t *testing.T) {
	reg := newRegistry(t)
	state := entity.NewState(entity.DefaultConfig(), rand.New(rand.NewSource(8)))
	start, _ := reg.Resolve("employee", "generate_start_date")
	end, _ := reg.Resolve("employee", "generate_end_date")
	if !start.WantsRowIndex || !end.WantsRowIndex {
		t.Fatal("entity date rules need the row index")
	}
	call := &registry.Call{Domain: "employee", Table: "pa0000", Row: 0, Entities: state, Args: []interface{}{"50123456"}}
	v, err := end.Fn(call)
	if err != nil || v != "4712-12-31" {
		t.Fatalf("unexpected first end date %v %v", v, err)
	}
}
