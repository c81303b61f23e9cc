package models

// Category and Subcategory form the static reference taxonomy. The set is
// seeded in code, read-only during feed composition, and a subcategory
// belongs to exactly one category.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Icon          string        `json:"icon"`
	Color         string        `json:"color"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
}

// DefaultTaxonomy returns the built-in pet community taxonomy.
func DefaultTaxonomy() []Category {
	return []Category{
		{
			ID: "dogs", Name: "Dogs", Icon: "🐶", Color: "#d97706",
			Subcategories: []Subcategory{
				{ID: "dog-training", CategoryID: "dogs", Name: "Training", Icon: "🦴"},
				{ID: "dog-health", CategoryID: "dogs", Name: "Health", Icon: "🩺"},
				{ID: "dog-breeds", CategoryID: "dogs", Name: "Breeds", Icon: "🐕"},
			},
		},
		{
			ID: "cats", Name: "Cats", Icon: "🐱", Color: "#7c3aed",
			Subcategories: []Subcategory{
				{ID: "cat-behavior", CategoryID: "cats", Name: "Behavior", Icon: "🧶"},
				{ID: "cat-health", CategoryID: "cats", Name: "Health", Icon: "🩺"},
			},
		},
		{
			ID: "birds", Name: "Birds", Icon: "🦜", Color: "#059669",
			Subcategories: []Subcategory{
				{ID: "bird-care", CategoryID: "birds", Name: "Care", Icon: "🪺"},
			},
		},
		{
			ID: "reptiles", Name: "Reptiles", Icon: "🦎", Color: "#16a34a",
			Subcategories: []Subcategory{
				{ID: "reptile-habitats", CategoryID: "reptiles", Name: "Habitats", Icon: "🏜️"},
			},
		},
		{
			ID: "small-pets", Name: "Small Pets", Icon: "🐹", Color: "#db2777",
			Subcategories: []Subcategory{
				{ID: "small-pet-care", CategoryID: "small-pets", Name: "Care", Icon: "🥕"},
			},
		},
	}
}

// Taxonomy indexes the category tree for name lookups during filtering.
type Taxonomy struct {
	categories    map[string]Category
	subcategories map[string]Subcategory
}

func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{
		categories:    make(map[string]Category),
		subcategories: make(map[string]Subcategory),
	}
	for _, c := range categories {
		t.categories[c.ID] = c
		for _, s := range c.Subcategories {
			t.subcategories[s.ID] = s
		}
	}
	return t
}

func (t *Taxonomy) Category(id string) (Category, bool) {
	c, ok := t.categories[id]
	return c, ok
}

func (t *Taxonomy) Subcategory(id string) (Subcategory, bool) {
	s, ok := t.subcategories[id]
	return s, ok
}

// CategoryName returns the display name for a category ID, or the empty
// string when unknown.
func (t *Taxonomy) CategoryName(id string) string {
	return t.categories[id].Name
}

// SubcategoryName returns the display name for a subcategory ID, or the
// empty string when unknown.
func (t *Taxonomy) SubcategoryName(id string) string {
	return t.subcategories[id].Name
}
