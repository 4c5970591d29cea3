package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mixhub/apiserver/types"
)

// DrinkRepository handles persistence for drinks.
type DrinkRepository struct {
	db *sql.DB
}

func NewDrinkRepository(db *sql.DB) *DrinkRepository {
	return &DrinkRepository{db: db}
}

const drinkColumns = `id, name, ingredients, instructions, categories, spirits,
		description, cover_image, image_id, created_by, created_at, updated_at`

func scanDrink(scanner interface{ Scan(...any) error }) (types.Drink, error) {
	var drink types.Drink
	err := scanner.Scan(
		&drink.ID,
		&drink.Name,
		pq.Array(&drink.Ingredients),
		pq.Array(&drink.Instructions),
		pq.Array(&drink.Categories),
		pq.Array(&drink.Spirits),
		&drink.Description,
		&drink.CoverImage,
		&drink.ImageID,
		&drink.CreatedBy,
		&drink.CreatedAt,
		&drink.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Drink{}, ErrNotFound
		}
		return types.Drink{}, err
	}
	return drink, nil
}

func (r *DrinkRepository) List(ctx context.Context, offset, limit int) ([]types.Drink, int, error) {
	query := `SELECT ` + drinkColumns + ` FROM drinks ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	drinks := []types.Drink{}
	for rows.Next() {
		drink, err := scanDrink(rows)
		if err != nil {
			return nil, 0, err
		}
		drinks = append(drinks, drink)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drinks`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return drinks, total, nil
}

func (r *DrinkRepository) Get(ctx context.Context, id int) (types.Drink, error) {
	query := `SELECT ` + drinkColumns + ` FROM drinks WHERE id = $1`
	return scanDrink(r.db.QueryRowContext(ctx, query, id))
}

// GetRandom returns one uniformly random drink.
func (r *DrinkRepository) GetRandom(ctx context.Context) (types.Drink, error) {
	query := `SELECT ` + drinkColumns + ` FROM drinks ORDER BY random() LIMIT 1`
	return scanDrink(r.db.QueryRowContext(ctx, query))
}

func (r *DrinkRepository) Create(ctx context.Context, drink types.Drink) (types.Drink, error) {
	now := time.Now()
	drink.CreatedAt = now
	drink.UpdatedAt = now

	const query = `
		INSERT INTO drinks (name, ingredients, instructions, categories, spirits,
			description, cover_image, image_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		drink.Name,
		pq.Array(drink.Ingredients),
		pq.Array(drink.Instructions),
		pq.Array(drink.Categories),
		pq.Array(drink.Spirits),
		drink.Description,
		drink.CoverImage,
		drink.ImageID,
		drink.CreatedBy,
		drink.CreatedAt,
		drink.UpdatedAt,
	).Scan(&drink.ID)
	if err != nil {
		return types.Drink{}, err
	}
	return drink, nil
}

func (r *DrinkRepository) Update(ctx context.Context, drink types.Drink) (types.Drink, error) {
	drink.UpdatedAt = time.Now()

	const query = `
		UPDATE drinks
		SET name = $1,
			ingredients = $2,
			instructions = $3,
			categories = $4,
			spirits = $5,
			description = $6,
			cover_image = $7,
			image_id = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		drink.Name,
		pq.Array(drink.Ingredients),
		pq.Array(drink.Instructions),
		pq.Array(drink.Categories),
		pq.Array(drink.Spirits),
		drink.Description,
		drink.CoverImage,
		drink.ImageID,
		drink.UpdatedAt,
		drink.ID,
	)
	if err != nil {
		return types.Drink{}, err
	}
	if err := requireAffected(result); err != nil {
		return types.Drink{}, err
	}
	return r.Get(ctx, drink.ID)
}

func (r *DrinkRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM drinks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
