package kit

import "errors"

// ErrUnknownMaterial is returned by Build when the item type is not a known
// material. Test with errors.Is.
var ErrUnknownMaterial = errors.New("unknown material")

// Material is a server material name such as DIAMOND_SWORD.
type Material string

var materials = map[Material]bool{}

var leatherArmor = map[Material]bool{
	"LEATHER_HELMET":     true,
	"LEATHER_CHESTPLATE": true,
	"LEATHER_LEGGINGS":   true,
	"LEATHER_BOOTS":      true,
}

func init() {
	for _, tier := range []string{"LEATHER", "CHAINMAIL", "IRON", "GOLD", "DIAMOND"} {
		for _, piece := range []string{"HELMET", "CHESTPLATE", "LEGGINGS", "BOOTS"} {
			materials[Material(tier+"_"+piece)] = true
		}
	}
	for _, tier := range []string{"WOOD", "STONE", "IRON", "GOLD", "DIAMOND"} {
		for _, tool := range []string{"SWORD", "AXE", "PICKAXE", "SPADE", "HOE"} {
			materials[Material(tier+"_"+tool)] = true
		}
	}
	for _, m := range []string{
		"BOW", "ARROW", "SPECTRAL_ARROW", "TIPPED_ARROW", "SHIELD", "FISHING_ROD",
		"FLINT_AND_STEEL", "SHEARS", "ELYTRA", "TOTEM", "SNOW_BALL", "EGG",
		"ENDER_PEARL", "EXP_BOTTLE", "POTION", "SPLASH_POTION", "LINGERING_POTION",
		"BREAD", "APPLE", "GOLDEN_APPLE", "GOLDEN_CARROT", "COOKED_BEEF",
		"COOKED_CHICKEN", "COOKED_MUTTON", "GRILLED_PORK", "COOKED_FISH",
		"CARROT_ITEM", "BAKED_POTATO", "MUSHROOM_SOUP", "MILK_BUCKET",
		"WATER_BUCKET", "LAVA_BUCKET", "BUCKET", "TNT", "WEB", "LADDER",
		"COBBLESTONE", "WOOD", "LOG", "DIRT", "SAND", "GLASS", "WOOL", "OBSIDIAN",
		"STONE", "SNOW_BLOCK", "FENCE", "TORCH", "SADDLE", "LEASH", "NAME_TAG",
		"COMPASS", "WATCH", "MAP", "BOOK", "ENCHANTED_BOOK", "SKULL_ITEM",
		"STICK", "STRING", "FEATHER", "BONE", "WHEAT", "SEEDS", "MONSTER_EGG",
		"BLAZE_ROD", "FIREBALL", "FIREWORK", "CAKE",
	} {
		materials[Material(m)] = true
	}
}

// LookupMaterial returns the material for an exact name.
func LookupMaterial(name string) (Material, bool) {
	m := Material(name)
	return m, materials[m]
}

// IsLeatherArmor reports whether items of this material can be dyed.
func (m Material) IsLeatherArmor() bool {
	return leatherArmor[m]
}
