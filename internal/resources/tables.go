package resources

var defaultItems = map[string]string{
	"wood":        "oak_log",
	"log":         "oak_log",
	"oak_log":     "oak_log",
	"stone":       "stone",
	"cobblestone": "cobblestone",
	"cobble":      "cobblestone",
	"iron":        "iron_ore",
	"iron_ore":    "iron_ore",
	"coal":        "coal",
	"diamond":     "diamond",
	"gold":        "gold_ore",
	"gold_ore":    "gold_ore",
	"wheat":       "wheat",
	"carrot":      "carrot",
	"potato":      "potato",
	"beef":        "cooked_beef",
	"cooked_beef": "cooked_beef",
	"bread":       "bread",
	"apple":       "apple",
	"fish":        "cod",
	"cod":         "cod",
	"salmon":      "salmon",
	"food":        "cooked_beef",
}

var defaultBlocks = map[string]string{
	"wood":        "oak_planks",
	"planks":      "oak_planks",
	"oak_planks":  "oak_planks",
	"stone":       "stone",
	"cobblestone": "cobblestone",
	"cobble":      "cobblestone",
	"dirt":        "dirt",
	"grass":       "grass_block",
	"sand":        "sand",
	"gravel":      "gravel",
	"glass":       "glass",
	"brick":       "bricks",
	"bricks":      "bricks",
}

var defaultMobs = map[string]string{
	"zombie":   "zombie",
	"skeleton": "skeleton",
	"creeper":  "creeper",
	"spider":   "spider",
	"cow":      "cow",
	"pig":      "pig",
	"chicken":  "chicken",
	"sheep":    "sheep",
	"villager": "villager",
}

var defaultCraft = map[string]string{
	"pickaxe":         "wooden_pickaxe",
	"wooden_pickaxe":  "wooden_pickaxe",
	"iron_pickaxe":    "iron_pickaxe",
	"diamond_pickaxe": "diamond_pickaxe",
	"sword":           "wooden_sword",
	"wooden_sword":    "wooden_sword",
	"iron_sword":      "iron_sword",
	"diamond_sword":   "diamond_sword",
	"axe":             "wooden_axe",
	"wooden_axe":      "wooden_axe",
	"iron_axe":        "iron_axe",
	"shovel":          "wooden_shovel",
	"wooden_shovel":   "wooden_shovel",
	"planks":          "oak_planks",
	"oak_planks":      "oak_planks",
	"sticks":          "stick",
	"stick":           "stick",
	"bread":           "bread",
	"cooked_beef":     "cooked_beef",
	"torch":           "torch",
	"torches":         "torch",
	"chest":           "chest",
	"furnace":         "furnace",
}
