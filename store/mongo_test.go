package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"taskmanager/models"
)

func taskDoc(oid primitive.ObjectID, title string, ts time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "title", Value: title},
		{Key: "description", Value: ""},
		{Key: "completed", Value: false},
		{Key: "priority", Value: "medium"},
		{Key: "owner", Value: "alice"},
		{Key: "createdAt", Value: ts},
		{Key: "updatedAt", Value: ts},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ns := "taskmanager.tasks"

	mt.Run("create task assigns object id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		task := &models.Task{Title: "Plan sprint", Priority: models.PriorityHigh}
		if err := s.CreateTask(context.Background(), task); err != nil {
			mt.Fatalf("CreateTask() error = %v", err)
		}
		if !primitive.IsValidObjectID(task.ID) {
			mt.Errorf("CreateTask() id %q is not an ObjectID", task.ID)
		}
		if task.CreatedAt.IsZero() || !task.CreatedAt.Equal(task.UpdatedAt) {
			mt.Errorf("timestamps not set: %+v", task)
		}
	})

	mt.Run("get task", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, taskDoc(oid, "Plan sprint", ts)))

		got, err := s.GetTask(context.Background(), oid.Hex(), "alice")
		if err != nil {
			mt.Fatalf("GetTask() error = %v", err)
		}
		if got.ID != oid.Hex() || got.Title != "Plan sprint" || got.OwnerID != "alice" {
			mt.Errorf("GetTask() = %+v", got)
		}
	})

	mt.Run("get missing task", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.GetTask(context.Background(), primitive.NewObjectID().Hex(), "")
		if !errors.Is(err, models.ErrNotFound) {
			mt.Errorf("GetTask() error = %v, want ErrNotFound", err)
		}
	})

	mt.Run("invalid object id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)

		if _, err := s.GetTask(context.Background(), "123", ""); !errors.Is(err, models.ErrInvalidID) {
			mt.Errorf("GetTask() error = %v, want ErrInvalidID", err)
		}
		if err := s.DeleteTask(context.Background(), "zzz", ""); !errors.Is(err, models.ErrInvalidID) {
			mt.Errorf("DeleteTask() error = %v, want ErrInvalidID", err)
		}
	})

	mt.Run("list tasks", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			taskDoc(primitive.NewObjectID(), "newer", ts.Add(time.Hour)),
			taskDoc(primitive.NewObjectID(), "older", ts),
		))

		got, err := s.ListTasks(context.Background(), models.TaskFilter{OwnerID: "alice", Limit: 10})
		if err != nil {
			mt.Fatalf("ListTasks() error = %v", err)
		}
		if len(got) != 2 || got[0].Title != "newer" {
			mt.Errorf("ListTasks() = %+v", got)
		}
	})

	mt.Run("update task", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: taskDoc(oid, "Renamed", ts)}))

		title := "Renamed"
		got, err := s.UpdateTask(context.Background(), oid.Hex(), "alice", models.TaskPatch{Title: &title})
		if err != nil {
			mt.Fatalf("UpdateTask() error = %v", err)
		}
		if got.Title != "Renamed" {
			mt.Errorf("UpdateTask() = %+v", got)
		}
	})

	mt.Run("delete task", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		id := primitive.NewObjectID().Hex()
		if err := s.DeleteTask(context.Background(), id, ""); err != nil {
			mt.Fatalf("DeleteTask() error = %v", err)
		}
		if err := s.DeleteTask(context.Background(), id, ""); !errors.Is(err, models.ErrNotFound) {
			mt.Errorf("DeleteTask() error = %v, want ErrNotFound", err)
		}
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := s.CreateUser(context.Background(), &models.User{Username: "alice", PasswordHash: "hash"})
		if !errors.Is(err, models.ErrDuplicate) {
			mt.Errorf("CreateUser() error = %v, want ErrDuplicate", err)
		}
	})

	mt.Run("ping", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := s.Ping(context.Background()); err != nil {
			mt.Errorf("Ping() error = %v", err)
		}
	})
}

func TestMongoDatabaseName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "mongodb://localhost:27017/taskmanager", want: "taskmanager"},
		{uri: "mongodb://localhost:27017/other?retryWrites=true", want: "other"},
		{uri: "mongodb://localhost:27017", want: defaultMongoDatabase},
		{uri: "mongodb+srv://user:pw@cluster.example.net/prod", want: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := mongoDatabaseName(tt.uri); got != tt.want {
				t.Errorf("mongoDatabaseName() = %q, want %q", got, tt.want)
			}
		})
	}
}
