// Package mongo is a document-database ProfileStore backend.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/eigolab/kaiwa/core"
)

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// profileDoc is the persisted document shape; _id is the external user id,
// which gives first-contact idempotency for free.
type profileDoc struct {
	UserID              string    `bson:"_id"`
	LevelScheme         string    `bson:"level_scheme"`
	LevelValue          string    `bson:"level_value"`
	UsageScene          string    `bson:"usage_scene"`
	ToneDefault         string    `bson:"tone_default"`
	StyleVariant        string    `bson:"style_variant"`
	LastSourceText      string    `bson:"last_source_text"`
	LastGeneratedOutput string    `bson:"last_generated_output"`
	LastReverseSource   string    `bson:"last_reverse_source"`
	LastReverseOutput   string    `bson:"last_reverse_output"`
	LastMode            string    `bson:"last_mode"`
	CreatedAt           time.Time `bson:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at"`
}

// Open connects to uri and uses the profiles collection of database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection("profiles"),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) GetOrCreate(ctx context.Context, userID string) (*core.Profile, error) {
	def := core.NewProfile(userID)
	insert := bson.M{
		"level_scheme":          string(def.LevelScheme),
		"level_value":           def.LevelValue,
		"usage_scene":           string(def.UsageScene),
		"tone_default":          string(def.ToneDefault),
		"style_variant":         string(def.StyleVariant),
		"last_source_text":      "",
		"last_generated_output": "",
		"last_reverse_source":   "",
		"last_reverse_output":   "",
		"last_mode":             "",
		"created_at":            def.CreatedAt,
		"updated_at":            def.UpdatedAt,
	}

	var doc profileDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$setOnInsert": insert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, unavailable("upsert profile", err)
	}
	return doc.toProfile(), nil
}

func (s *Store) Update(ctx context.Context, userID string, patch core.ProfilePatch) (*core.Profile, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.LevelScheme != nil {
		set["level_scheme"] = string(*patch.LevelScheme)
	}
	if patch.LevelValue != nil {
		set["level_value"] = *patch.LevelValue
	}
	if patch.UsageScene != nil {
		set["usage_scene"] = string(*patch.UsageScene)
	}
	if patch.ToneDefault != nil {
		set["tone_default"] = string(*patch.ToneDefault)
	}
	if patch.StyleVariant != nil {
		set["style_variant"] = string(*patch.StyleVariant)
	}
	if patch.Forward != nil {
		set["last_source_text"] = patch.Forward.Source
		set["last_generated_output"] = patch.Forward.Output
	}
	if patch.Reverse != nil {
		set["last_reverse_source"] = patch.Reverse.Source
		set["last_reverse_output"] = patch.Reverse.Output
	}
	if patch.LastMode != nil {
		set["last_mode"] = string(*patch.LastMode)
	}

	var doc profileDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, unavailable("update profile", err)
	}
	return doc.toProfile(), nil
}

func (d *profileDoc) toProfile() *core.Profile {
	return &core.Profile{
		UserID:              d.UserID,
		LevelScheme:         core.LevelScheme(d.LevelScheme),
		LevelValue:          d.LevelValue,
		UsageScene:          core.UsageScene(d.UsageScene),
		ToneDefault:         core.Tone(d.ToneDefault),
		StyleVariant:        core.StyleVariant(d.StyleVariant),
		LastSourceText:      d.LastSourceText,
		LastGeneratedOutput: d.LastGeneratedOutput,
		LastReverseSource:   d.LastReverseSource,
		LastReverseOutput:   d.LastReverseOutput,
		LastMode:            core.Mode(d.LastMode),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("mongo: %s: %w: %v", op, core.ErrStoreUnavailable, err)
}
