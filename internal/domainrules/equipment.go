package domainrules

import (
	"sync"

	"github.com/mmrzaf/mockgen/internal/generators"
	"github.com/mmrzaf/mockgen/internal/registry"
)

const equipmentDomain = "equipment"

var serialPatterns = []string{
	"???########",
	"##???########",
	"########???",
	"###-???-########",
}

var equipmentPatterns = []string{
	"???#####",
	"#####-?",
	"???#####-?",
	"#########",
	"??#####-???",
	"???##### (?????)",
}

// catalogBinding pins each generated material number to one catalog entry
// so description and weight agree across columns and tables.
type catalogBinding struct {
	mu      sync.Mutex
	entries map[string]EquipmentInfo
}

func (b *catalogBinding) bind(material string, info EquipmentInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[material] = info
}

func (b *catalogBinding) get(material string) (EquipmentInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.entries[material]
	return info, ok
}

func registerEquipment(reg *registry.RuleRegistry, p *Pools) {
	materials := newProductNumbers()
	equipmentNumbers := newUniqueSet()
	equipmentLedger := generators.NewKeyLedger()
	binding := &catalogBinding{entries: make(map[string]EquipmentInfo)}
	d := equipmentDomain

	reg.Register(d, "get_material_number", func(c *registry.Call) (interface{}, error) {
		v, err := materials.generate(c, "")
		if err != nil {
			return nil, err
		}
		binding.bind(v, p.Catalog.Equipment[c.Rand.Intn(len(p.Catalog.Equipment))])
		return v, nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "get_equipment_description", func(c *registry.Call) (interface{}, error) {
		info, _ := binding.get(c.String(0))
		return info.Description, nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_equipment_weight", func(c *registry.Call) (interface{}, error) {
		info, _ := binding.get(c.String(0))
		return info.Weight, nil
	}, registry.WithArity(1, 1))
	reg.Register(d, "get_random_serial_number", func(c *registry.Call) (interface{}, error) {
		return generators.Bothify(c.Rand, pick(c.Rand, serialPatterns...)), nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "equipment_number", func(c *registry.Call) (interface{}, error) {
		v, err := equipmentNumbers.Draw(func() string {
			return generators.Bothify(c.Rand, pick(c.Rand, equipmentPatterns...))
		})
		if err != nil {
			return nil, err
		}
		equipmentLedger.Issue(v)
		return v, nil
	}, registry.WithArity(0, 0))
	reg.Register(d, "fk_copy", fkCopy(equipmentLedger), registry.WithArity(0, 1))
}
