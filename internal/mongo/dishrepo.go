package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quicktab/quicktab/internal/menu"
)

type DishRepo struct {
	collection *mongo.Collection
}

func NewDishRepo(db *mongo.Database) *DishRepo {
	return &DishRepo{
		collection: db.Collection("dishes"),
	}
}

func (r *DishRepo) Create(ctx context.Context, d *menu.Dish) error {
	if d == nil {
		return fmt.Errorf("dish is nil")
	}

	if _, err := r.collection.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("cannot create dish: %w", err)
	}

	return nil
}

func (r *DishRepo) Get(ctx context.Context, id int64) (*menu.Dish, error) {
	var d menu.Dish
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get dish: %w", err)
	}
	return &d, nil
}

func (r *DishRepo) List(ctx context.Context) ([]*menu.Dish, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list dishes: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*menu.Dish
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode dishes: %w", err)
	}

	return result, nil
}

func (r *DishRepo) ListAvailable(ctx context.Context) ([]*menu.Dish, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"available": true})
	if err != nil {
		return nil, fmt.Errorf("cannot list available dishes: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*menu.Dish
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode dishes: %w", err)
	}

	return result, nil
}

func (r *DishRepo) Save(ctx context.Context, d *menu.Dish) error {
	if d == nil {
		return fmt.Errorf("dish is nil")
	}

	filter := bson.M{"_id": d.ID}
	update := bson.M{"$set": d}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update dish: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("dish not found")
	}

	return nil
}
