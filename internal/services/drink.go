package services

import (
	"context"
	"strings"

	"github.com/mixhub/apiserver/types"
)

// DrinkRepository defines persistence operations for drinks.
type DrinkRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Drink, int, error)
	Get(ctx context.Context, id int) (types.Drink, error)
	GetRandom(ctx context.Context) (types.Drink, error)
	Create(ctx context.Context, drink types.Drink) (types.Drink, error)
	Update(ctx context.Context, drink types.Drink) (types.Drink, error)
	Delete(ctx context.Context, id int) error
}

// DrinkService encapsulates drink use-cases.
type DrinkService struct {
	repo DrinkRepository
}

func NewDrinkService(repo DrinkRepository) *DrinkService {
	return &DrinkService{repo: repo}
}

func (s *DrinkService) List(ctx context.Context, offset, limit int) ([]types.Drink, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *DrinkService) Get(ctx context.Context, id int) (types.Drink, error) {
	return s.repo.Get(ctx, id)
}

func (s *DrinkService) GetRandom(ctx context.Context) (types.Drink, error) {
	return s.repo.GetRandom(ctx)
}

// Create stores a new drink. The spirit list is derived from the ingredients
// here, never taken from the client.
func (s *DrinkService) Create(ctx context.Context, drink types.Drink) (types.Drink, error) {
	drink.Spirits = DeriveSpirits(drink.Ingredients)
	return s.repo.Create(ctx, drink)
}

// Update rewrites a drink, re-deriving its spirit list.
func (s *DrinkService) Update(ctx context.Context, drink types.Drink) (types.Drink, error) {
	drink.Spirits = DeriveSpirits(drink.Ingredients)
	return s.repo.Update(ctx, drink)
}

func (s *DrinkService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// DeriveSpirits extracts the recognized spirits from an ingredient list,
// preserving ingredient order and dropping duplicates.
func DeriveSpirits(ingredients []string) []string {
	known := make(map[string]bool, len(types.Spirits))
	for _, spirit := range types.Spirits {
		known[spirit] = true
	}

	var spirits []string
	seen := map[string]bool{}
	for _, ingredient := range ingredients {
		name := strings.ToLower(strings.TrimSpace(ingredient))
		if known[name] && !seen[name] {
			spirits = append(spirits, name)
			seen[name] = true
		}
	}
	return spirits
}
