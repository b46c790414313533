// Package kit turns item definitions from configuration into Items and
// persists named kits through the database gateway.
package kit

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/koustreak/cowclash/internal/errs"
)

// AltColorChar marks a formatting code in configured names and lore.
const AltColorChar = '&'

// Builder accumulates item settings and materialises them with Build.
// The built Item is cached until a setter changes the builder.
// A Builder is not safe for concurrent use.
type Builder struct {
	material   string
	count      int
	durability int
	enchants   map[Enchantment]int
	color      *Color
	name       string
	lore       []string

	built *Item
}

// NewBuilder returns a builder for material with a count of 1.
func NewBuilder(material string) *Builder {
	return &Builder{material: material, count: 1}
}

func (b *Builder) Type() string                  { return b.material }
func (b *Builder) Count() int                    { return b.count }
func (b *Builder) Durability() int               { return b.durability }
func (b *Builder) Enchants() map[Enchantment]int { return maps.Clone(b.enchants) }
func (b *Builder) Name() string                  { return b.name }
func (b *Builder) Lore() []string                { return slices.Clone(b.lore) }

// Color returns the configured colour, or nil.
func (b *Builder) Color() *Color {
	if b.color == nil {
		return nil
	}
	c := *b.color
	return &c
}

func (b *Builder) SetType(material string) *Builder {
	b.built = nil
	b.material = material
	return b
}

func (b *Builder) SetCount(n int) *Builder {
	b.built = nil
	b.count = n
	return b
}

// SetDurability sets the damage / sub-type value of the item.
func (b *Builder) SetDurability(d int) *Builder {
	b.built = nil
	b.durability = d
	return b
}

func (b *Builder) SetEnchants(e map[Enchantment]int) *Builder {
	b.built = nil
	b.enchants = maps.Clone(e)
	return b
}

// SetColor sets the dye colour by name. It is only applied to leather armour.
func (b *Builder) SetColor(name string) error {
	c, err := ParseColor(name)
	if err != nil {
		return err
	}
	b.SetRGB(c)
	return nil
}

func (b *Builder) SetRGB(c Color) *Builder {
	b.built = nil
	b.color = &c
	return b
}

// SetName sets the display name, translating &-codes.
func (b *Builder) SetName(name string) *Builder {
	b.built = nil
	b.name = TranslateColorCodes(AltColorChar, name)
	return b
}

// SetLore sets the lore lines, translating &-codes in each.
func (b *Builder) SetLore(lines []string) *Builder {
	b.built = nil
	b.lore = make([]string, len(lines))
	for i, l := range lines {
		b.lore[i] = TranslateColorCodes(AltColorChar, l)
	}
	return b
}

// Build materialises the item. The result is cached until the next setter
// call; every call returns an independent copy.
func (b *Builder) Build() (Item, error) {
	if b.built != nil {
		return b.built.Clone(), nil
	}

	m, ok := LookupMaterial(b.material)
	if !ok {
		return Item{}, errs.Wrap(errs.ErrKindInvalidInput,
			fmt.Sprintf("cannot build item of type %q", b.material), ErrUnknownMaterial)
	}

	it := Item{
		Material:   m,
		Count:      b.count,
		Durability: b.durability,
		Name:       b.name,
		Lore:       slices.Clone(b.lore),
	}
	if len(b.enchants) > 0 {
		it.Enchants = maps.Clone(b.enchants)
	}
	if b.color != nil && m.IsLeatherArmor() {
		c := *b.color
		it.Color = &c
	}

	b.built = &it
	return it.Clone(), nil
}

// FromMap builds a Builder from a configuration entry. Keys are matched
// case-insensitively:
//
//	type:       string
//	name:       string, &-codes translated
//	color:      string colour name, used on leather armour
//	lore:       list of strings
//	durability: integer
//	count:      integer
//	enchants:   list of "NAME:LEVEL" strings
//
// Unknown keys are ignored.
func FromMap(m map[string]any) (*Builder, error) {
	b := NewBuilder("")
	for key, value := range m {
		if value == nil {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "item key %q has no value", key)
		}
		if err := b.apply(key, value); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// FromRaw is FromMap for decoded data whose map type is not known up front.
// Every key must be a string.
func FromRaw(v any) (*Builder, error) {
	switch m := v.(type) {
	case map[string]any:
		return FromMap(m)
	case map[any]any:
		conv := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, errs.Newf(errs.ErrKindInvalidInput, "item key %v is not a string", k)
			}
			conv[ks] = val
		}
		return FromMap(conv)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "item definition must be a map, got %T", v)
	}
}

func (b *Builder) apply(key string, value any) error {
	switch strings.ToLower(key) {
	case "type":
		s, ok := value.(string)
		if !ok {
			return fieldTypeError("Type", "string", value)
		}
		b.SetType(s)
	case "name":
		s, ok := value.(string)
		if !ok {
			return fieldTypeError("Name", "string", value)
		}
		b.SetName(s)
	case "color":
		s, ok := value.(string)
		if !ok {
			return fieldTypeError("Color", "string", value)
		}
		return b.SetColor(s)
	case "lore":
		lines, err := stringList("Lore", value)
		if err != nil {
			return err
		}
		b.SetLore(lines)
	case "durability":
		n, ok := asInt(value)
		if !ok {
			return fieldTypeError("Durability", "integer", value)
		}
		b.SetDurability(n)
	case "count":
		n, ok := asInt(value)
		if !ok {
			return fieldTypeError("Count", "integer", value)
		}
		b.SetCount(n)
	case "enchants":
		entries, err := stringList("Enchants", value)
		if err != nil {
			return err
		}
		ench := make(map[Enchantment]int, len(entries))
		for _, entry := range entries {
			e, level, err := ParseEnchantEntry(entry)
			if err != nil {
				return err
			}
			ench[e] = level
		}
		b.SetEnchants(ench)
	}
	return nil
}

func fieldTypeError(field, want string, got any) error {
	return errs.Newf(errs.ErrKindInvalidInput, "the value of %s was not of type %s (got %T)", field, want, got)
}

func stringList(field string, value any) ([]string, error) {
	switch l := value.(type) {
	case []string:
		return l, nil
	case []any:
		out := make([]string, len(l))
		for i, v := range l {
			s, ok := v.(string)
			if !ok {
				return nil, fieldTypeError(field, "list of strings", v)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fieldTypeError(field, "list", value)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}
