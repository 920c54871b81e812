package recipes

// CoffeeType matches the int16 CoffeeType process variable. -1 means no
// selection and carries no recipe.
type CoffeeType int16

const (
	CoffeeNone       CoffeeType = -1
	CoffeeBlack      CoffeeType = 0
	CoffeeEspresso   CoffeeType = 1
	CoffeeCappuccino CoffeeType = 2
	CoffeeLatte      CoffeeType = 3
	CoffeeHotWater   CoffeeType = 4
)

func (t CoffeeType) String() string {
	switch t {
	case CoffeeNone:
		return "None"
	case CoffeeBlack:
		return "Black"
	case CoffeeEspresso:
		return "Espresso"
	case CoffeeCappuccino:
		return "Cappuccino"
	case CoffeeLatte:
		return "Latte"
	case CoffeeHotWater:
		return "Hot Water"
	default:
		return "Unknown"
	}
}

// Recipe is the fixed resource and time cost of one coffee type. BrewTicks is
// the number of brew sequence ticks; the other fields are percentage units
// consumed from the ledger.
type Recipe struct {
	Name      string     `json:"name"`
	Type      CoffeeType `json:"coffee_type"`
	BrewTicks int        `json:"brew_ticks"`
	Water     int16      `json:"water"`
	Beans     int16      `json:"beans"`
	Milk      int16      `json:"milk"`
}

// Catalog is the immutable recipe table, loaded once at startup.
type Catalog struct {
	recipes map[CoffeeType]Recipe
}

func NewCatalog(recipes []Recipe) *Catalog {
	byType := make(map[CoffeeType]Recipe, len(recipes))
	for _, r := range recipes {
		byType[r.Type] = r
	}
	return &Catalog{recipes: byType}
}

func (c *Catalog) Lookup(t CoffeeType) (Recipe, bool) {
	r, ok := c.recipes[t]
	return r, ok
}

func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Defaults returns the built-in recipe table: milk drinks brew longer and are
// the only ones consuming milk.
func Defaults() *Catalog {
	return NewCatalog([]Recipe{
		{Name: "Black", Type: CoffeeBlack, BrewTicks: 5, Water: 20, Beans: 15, Milk: 0},
		{Name: "Espresso", Type: CoffeeEspresso, BrewTicks: 5, Water: 20, Beans: 15, Milk: 0},
		{Name: "Cappuccino", Type: CoffeeCappuccino, BrewTicks: 7, Water: 20, Beans: 15, Milk: 15},
		{Name: "Latte", Type: CoffeeLatte, BrewTicks: 7, Water: 20, Beans: 15, Milk: 15},
		{Name: "Hot Water", Type: CoffeeHotWater, BrewTicks: 5, Water: 20, Beans: 15, Milk: 0},
	})
}
