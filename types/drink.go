package types

import "time"

// Drink categories form a closed set.
var DrinkCategories = []string{"citrus", "sweet", "bitter", "thick", "strong", "light", "sour", "fruity"}

// Spirits recognized when deriving a drink's spirit list from its ingredients.
var Spirits = []string{"vodka", "gin", "tequila", "whiskey", "scotch", "bourbon", "arak", "rum", "cream liquor", "brandy"}

// Drink represents a cocktail recipe.
type Drink struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Ingredients  []string  `json:"ingredients" db:"ingredients"`
	Instructions []string  `json:"instructions" db:"instructions"`
	Categories   []string  `json:"categories" db:"categories"`

	// Spirits is derived from Ingredients at create/update time, never
	// supplied by clients.
	Spirits []string `json:"spirits" db:"spirits"`

	Description string `json:"description,omitempty" db:"description"`
	CoverImage  string `json:"cover_image,omitempty" db:"cover_image"`
	ImageID     string `json:"image_id,omitempty" db:"image_id"`

	// CreatedBy is the id of the user who submitted the recipe.
	CreatedBy int `json:"created_by" db:"created_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
