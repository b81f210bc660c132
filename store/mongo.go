package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"taskmanager/models"
)

const (
	defaultMongoDatabase = "taskmanager"
	tasksCollection      = "tasks"
	usersCollection      = "users"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	OwnerID     string             `bson:"owner,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type MongoStore struct {
	client *mongo.Client
	tasks  *mongo.Collection
	users  *mongo.Collection
}

// OpenMongo connects, pings the primary and ensures indexes.
func OpenMongo(ctx context.Context, uri string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	s := NewMongoStore(client.Database(mongoDatabaseName(uri)))
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: db.Client(),
		tasks:  db.Collection(tasksCollection),
		users:  db.Collection(usersCollection),
	}
}

func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users index: %w", err)
	}

	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating tasks index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateTask(ctx context.Context, task *models.Task) error {
	ts := now()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		OwnerID:     task.OwnerID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	*task = doc.toModel()
	return nil
}

func (s *MongoStore) GetTask(ctx context.Context, id, ownerID string) (*models.Task, error) {
	filter, err := taskFilterByID(id, ownerID)
	if err != nil {
		return nil, err
	}

	var doc taskDocument
	if err := s.tasks.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoError("finding task", err)
	}
	task := doc.toModel()
	return &task, nil
}

func (s *MongoStore) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner"] = f.OwnerID
	}
	if f.Completed != nil {
		filter["completed"] = *f.Completed
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Skip > 0 {
		opts.SetSkip(int64(f.Skip))
	}

	cursor, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.toModel())
	}
	return tasks, nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	filter, err := taskFilterByID(id, ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.DueDate != nil {
		set["dueDate"] = *patch.DueDate
	}
	update := bson.M{"$set": set}
	if patch.ClearDueDate {
		update["$unset"] = bson.M{"dueDate": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := s.tasks.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, mongoError("updating task", err)
	}
	task := doc.toModel()
	return &task, nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id, ownerID string) error {
	filter, err := taskFilterByID(id, ownerID)
	if err != nil {
		return err
	}

	res, err := s.tasks.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now(),
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	*user = doc.toModel()
	return nil
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoError("finding user", err)
	}
	user := doc.toModel()
	return &user, nil
}

func taskFilterByID(id, ownerID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	filter := bson.M{"_id": oid}
	if ownerID != "" {
		filter["owner"] = ownerID
	}
	return filter, nil
}

func mongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (d taskDocument) toModel() models.Task {
	return models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}
