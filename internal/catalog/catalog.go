// Package catalog holds the static unit and skill tables read by the
// gateway. The engine never consults it.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrNotFound = errors.New("not found")

type Attrs struct {
	MaxHP        int     `yaml:"max_hp" json:"maxHp"`
	MaxMP        int     `yaml:"max_mp" json:"maxMp"`
	Armor        int     `yaml:"armor" json:"armor"`
	MagicResist  int     `yaml:"magic_resist" json:"magicResist"`
	AttackDamage int     `yaml:"attack_damage" json:"attackDamage"`
	AbilityPower int     `yaml:"ability_power" json:"abilityPower"`
	AttackSpeed  float64 `yaml:"attack_speed" json:"attackSpeed"`
	AttackRange  int     `yaml:"attack_range" json:"attackRange"`
}

type Effect struct {
	Order    int    `yaml:"order" json:"order"`
	Kind     string `yaml:"kind" json:"kind"`
	Amount   int    `yaml:"amount" json:"amount"`
	Status   string `yaml:"status,omitempty" json:"status,omitempty"`
	Duration int    `yaml:"duration,omitempty" json:"duration,omitempty"`
	Target   string `yaml:"target" json:"target"`
}

type Skill struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Type        string   `yaml:"type" json:"type"`
	Effects     []Effect `yaml:"effects" json:"effects"`
}

// Unit is a unit template; Skills holds skill ids resolved through Catalog.Skill.
type Unit struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Star        int      `yaml:"star" json:"star"`
	Description string   `yaml:"description" json:"description"`
	Attrs       Attrs    `yaml:"attrs" json:"attrs"`
	Skills      []string `yaml:"skills" json:"skills"`
	Synergies   []string `yaml:"synergies" json:"synergies"`
}

// ShopEntry is one offer drawn from the shop pool.
type ShopEntry struct {
	Chess string `json:"chess"`
	Level int    `json:"level"`
}

type document struct {
	Skills []Skill  `yaml:"skills"`
	Units  []Unit   `yaml:"units"`
	Shop   []string `yaml:"shop"`
}

// Catalog is immutable after Load and safe for concurrent reads.
type Catalog struct {
	skills map[string]Skill
	units  map[string]Unit
	shop   []string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		skills: make(map[string]Skill, len(doc.Skills)),
		units:  make(map[string]Unit, len(doc.Units)),
		shop:   doc.Shop,
	}
	for _, s := range doc.Skills {
		if s.ID == "" {
			return nil, errors.New("skill without id")
		}
		if _, dup := c.skills[s.ID]; dup {
			return nil, fmt.Errorf("duplicate skill %q", s.ID)
		}
		c.skills[s.ID] = s
	}
	for _, u := range doc.Units {
		if u.ID == "" {
			return nil, errors.New("unit without id")
		}
		if _, dup := c.units[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit %q", u.ID)
		}
		for _, id := range u.Skills {
			if _, ok := c.skills[id]; !ok {
				return nil, fmt.Errorf("unit %q references unknown skill %q", u.ID, id)
			}
		}
		c.units[u.ID] = u
	}
	return c, nil
}

func (c *Catalog) Unit(id string) (Unit, error) {
	u, ok := c.units[id]
	if !ok {
		return Unit{}, fmt.Errorf("unit %q: %w", id, ErrNotFound)
	}
	return u, nil
}

func (c *Catalog) Skill(id string) (Skill, error) {
	s, ok := c.skills[id]
	if !ok {
		return Skill{}, fmt.Errorf("skill %q: %w", id, ErrNotFound)
	}
	return s, nil
}

func (c *Catalog) ShopPool() []string {
	out := make([]string, len(c.shop))
	copy(out, c.shop)
	return out
}

// DrawShop picks n distinct level-1 offers from the shop pool.
func (c *Catalog) DrawShop(n int) []ShopEntry {
	pool := c.ShopPool()
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]ShopEntry, 0, n)
	for _, name := range pool[:n] {
		out = append(out, ShopEntry{Chess: name, Level: 1})
	}
	return out
}
