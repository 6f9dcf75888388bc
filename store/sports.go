package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"event-registration/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSports stores the catalog in the "sports" collection with the sport id as _id
type MongoSports struct {
	Collection *mongo.Collection
}

// NewMongoSports opens the sports collection on db
func NewMongoSports(client *mongo.Client, db string) *MongoSports {
	return &MongoSports{Collection: client.Database(db).Collection("sports")}
}

func (s *MongoSports) Upsert(ctx context.Context, sport *models.Sport) error {
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": sport.ID}, sport, options.Replace().SetUpsert(true))
	return mapErr(err)
}

func (s *MongoSports) Find(ctx context.Context, id string) (*models.Sport, error) {
	var sport models.Sport
	if err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sport); err != nil {
		return nil, mapErr(err)
	}
	return &sport, nil
}

func (s *MongoSports) List(ctx context.Context) ([]models.Sport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := s.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sports := []models.Sport{}
	for cursor.Next(ctx) {
		var sport models.Sport
		if err := cursor.Decode(&sport); err != nil {
			return nil, err
		}
		sports = append(sports, sport)
	}
	return sports, cursor.Err()
}

func (s *MongoSports) Delete(ctx context.Context, id string) error {
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Sports returns the SportStore view of m
func (m *Memory) Sports() SportStore { return memorySports{m} }

type memorySports struct{ m *Memory }

func (s memorySports) Upsert(_ context.Context, sport *models.Sport) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cp := *sport
	s.m.sports[sport.ID] = &cp
	return nil
}

func (s memorySports) Find(_ context.Context, id string) (*models.Sport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sport, ok := s.m.sports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sport
	return &cp, nil
}

func (s memorySports) List(_ context.Context) ([]models.Sport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]models.Sport, 0, len(s.m.sports))
	for _, sport := range s.m.sports {
		out = append(out, *sport)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s memorySports) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sports[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.sports, id)
	return nil
}

// SeedSports upserts every sport in a JSON array read from r
func SeedSports(ctx context.Context, sports SportStore, r io.Reader) (int, error) {
	var list []models.Sport
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return 0, fmt.Errorf("decode sports: %w", err)
	}
	for i := range list {
		if err := list[i].Validate(); err != nil {
			return i, fmt.Errorf("sport %d: %w", i, err)
		}
		if err := sports.Upsert(ctx, &list[i]); err != nil {
			return i, err
		}
	}
	return len(list), nil
}
