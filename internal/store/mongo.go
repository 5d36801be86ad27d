// Package store is the persistence gateway: everything durable goes through
// MongoDB here. Vote toggles are serialized by conditional updates so two
// concurrent toggles on the same pin never lose an increment.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yhkiel05/team-map/internal/domain"
)

// ErrNotFound is returned when an identifier does not resolve to a document.
var ErrNotFound = errors.New("store: not found")

const toggleAttempts = 3

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) rooms() *mongo.Collection { return s.db.Collection("rooms") }
func (s *Store) pins() *mongo.Collection  { return s.db.Collection("pins") }
func (s *Store) users() *mongo.Collection { return s.db.Collection("users") }

// EnsureIndexes declares the 2dsphere index backing geo queries. CreateOne is
// idempotent, so this runs on every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.pins().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("create 2dsphere index: %w", err)
	}
	return nil
}

// --- rooms ---

func (s *Store) InsertRoom(ctx context.Context, room *domain.Room) error {
	_, err := s.rooms().InsertOne(ctx, room)
	return err
}

func (s *Store) FindRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	err := s.rooms().FindOne(ctx, bson.M{"id": id}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) ListActiveRooms(ctx context.Context) ([]domain.Room, error) {
	cursor, err := s.rooms().Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rooms := []domain.Room{}
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// AddRoomMember grows the durable member list. $addToSet keeps it
// duplicate-free, so re-joining is a no-op that still succeeds.
func (s *Store) AddRoomMember(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	res, err := s.rooms().UpdateOne(ctx,
		bson.M{"id": roomID},
		bson.M{"$addToSet": bson.M{"members": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateRoom(ctx context.Context, roomID domain.RoomID) error {
	res, err := s.rooms().UpdateOne(ctx,
		bson.M{"id": roomID},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- pins ---

func (s *Store) InsertPin(ctx context.Context, pin *domain.Pin) error {
	_, err := s.pins().InsertOne(ctx, pin)
	return err
}

func (s *Store) FindPin(ctx context.Context, id domain.PinID) (*domain.Pin, error) {
	var pin domain.Pin
	err := s.pins().FindOne(ctx, bson.M{"id": id}).Decode(&pin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

func (s *Store) PinsInRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Pin, error) {
	cursor, err := s.pins().Find(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pins := []domain.Pin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// PinsNear returns pins within maxMeters of the point, nearest first.
func (s *Store) PinsNear(ctx context.Context, longitude, latitude float64, maxMeters int) ([]domain.Pin, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{longitude, latitude},
				},
				"$maxDistance": maxMeters,
			},
		},
	}
	cursor, err := s.pins().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pins := []domain.Pin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (s *Store) DeletePin(ctx context.Context, id domain.PinID) error {
	res, err := s.pins().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleVote adds or removes userID from the pin's voter set and adjusts the
// counter in the same update, keeping votes == len(voted_by). Each branch only
// matches when its precondition on voted_by still holds, so interleaved
// toggles for the same pin cannot double-count; when both branches miss
// because of an interleave, the loop re-reads and tries again.
func (s *Store) ToggleVote(ctx context.Context, pinID domain.PinID, userID domain.UserID) (domain.VoteAction, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		res, err := s.pins().UpdateOne(ctx,
			bson.M{"id": pinID, "voted_by": userID},
			bson.M{
				"$pull": bson.M{"voted_by": userID},
				"$inc":  bson.M{"votes": -1},
			},
		)
		if err != nil {
			return "", err
		}
		if res.MatchedCount == 1 {
			return domain.VoteRemoved, nil
		}

		res, err = s.pins().UpdateOne(ctx,
			bson.M{"id": pinID, "voted_by": bson.M{"$ne": userID}},
			bson.M{
				"$addToSet": bson.M{"voted_by": userID},
				"$inc":      bson.M{"votes": 1},
			},
		)
		if err != nil {
			return "", err
		}
		if res.MatchedCount == 1 {
			return domain.VoteAdded, nil
		}

		// Neither branch matched: the pin is gone, or a concurrent toggle
		// slipped between the two updates.
		if _, err := s.FindPin(ctx, pinID); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("store: vote toggle contended for pin %s", pinID)
}

// Centroid averages the coordinates of a room's pins in the database.
// ErrNotFound means the room has no pins.
func (s *Store) Centroid(ctx context.Context, roomID domain.RoomID) (*domain.Centroid, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "room_id", Value: roomID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_lng", Value: bson.D{{Key: "$avg", Value: bson.D{
				{Key: "$arrayElemAt", Value: bson.A{"$location.coordinates", 0}},
			}}}},
			{Key: "avg_lat", Value: bson.D{{Key: "$avg", Value: bson.D{
				{Key: "$arrayElemAt", Value: bson.A{"$location.coordinates", 1}},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.pins().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		AvgLng float64 `bson:"avg_lng"`
		AvgLat float64 `bson:"avg_lat"`
		Count  int     `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0].Count == 0 {
		return nil, ErrNotFound
	}
	return &domain.Centroid{
		Longitude: results[0].AvgLng,
		Latitude:  results[0].AvgLat,
		Type:      "centroid",
	}, nil
}

// --- users ---

func (s *Store) InsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.users().InsertOne(ctx, user)
	return err
}

func (s *Store) FindUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	err := s.users().FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
