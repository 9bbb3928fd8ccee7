package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/event-easy-go/models"
)

const UsersCollection = "Users"

// UserDirectory resolves user references into display summaries.
type UserDirectory struct {
	col *mongo.Collection
}

func NewUserDirectory(db *mongo.Database) *UserDirectory {
	return &UserDirectory{col: db.Collection(UsersCollection)}
}

func NewUserDirectoryFromCollection(col *mongo.Collection) *UserDirectory {
	return &UserDirectory{col: col}
}

// Summaries looks up all ids in one query. Unknown ids are absent from the result.
func (d *UserDirectory) Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	out := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	proj := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
	cursor, err := d.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, storeErr("find users", err)
	}
	var users []models.UserSummary
	if err := cursor.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
