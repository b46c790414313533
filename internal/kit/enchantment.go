package kit

import (
	"strconv"
	"strings"

	"github.com/koustreak/cowclash/internal/errs"
)

// Enchantment is a server enchantment name such as DAMAGE_ALL.
type Enchantment string

var enchantments = map[Enchantment]bool{
	"PROTECTION_ENVIRONMENTAL": true,
	"PROTECTION_FIRE":          true,
	"PROTECTION_FALL":          true,
	"PROTECTION_EXPLOSIONS":    true,
	"PROTECTION_PROJECTILE":    true,
	"OXYGEN":                   true,
	"WATER_WORKER":             true,
	"THORNS":                   true,
	"DEPTH_STRIDER":            true,
	"FROST_WALKER":             true,
	"BINDING_CURSE":            true,
	"DAMAGE_ALL":               true,
	"DAMAGE_UNDEAD":            true,
	"DAMAGE_ARTHROPODS":        true,
	"KNOCKBACK":                true,
	"FIRE_ASPECT":              true,
	"LOOT_BONUS_MOBS":          true,
	"SWEEPING_EDGE":            true,
	"DIG_SPEED":                true,
	"SILK_TOUCH":               true,
	"DURABILITY":               true,
	"LOOT_BONUS_BLOCKS":        true,
	"ARROW_DAMAGE":             true,
	"ARROW_KNOCKBACK":          true,
	"ARROW_FIRE":               true,
	"ARROW_INFINITE":           true,
	"LUCK":                     true,
	"LURE":                     true,
	"MENDING":                  true,
	"VANISHING_CURSE":          true,
}

// ParseEnchantment resolves an enchantment name, ignoring case.
func ParseEnchantment(name string) (Enchantment, error) {
	e := Enchantment(strings.ToUpper(strings.TrimSpace(name)))
	if !enchantments[e] {
		return "", errs.Newf(errs.ErrKindInvalidInput, "unknown enchantment %q", name)
	}
	return e, nil
}

// ParseEnchantEntry parses "NAME:LEVEL".
func ParseEnchantEntry(entry string) (Enchantment, int, error) {
	parts := strings.Split(entry, ":")
	if len(parts) != 2 {
		return "", 0, errs.Newf(errs.ErrKindInvalidInput,
			"enchant %q is not of the form NAME:LEVEL", entry)
	}
	e, err := ParseEnchantment(parts[0])
	if err != nil {
		return "", 0, err
	}
	level, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", 0, errs.Newf(errs.ErrKindInvalidInput, "enchant %q has a non-integer level", entry)
	}
	return e, level, nil
}
