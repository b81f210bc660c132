package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"taskmanager/models"
)

const (
	defaultBoltFileMode = 0600
	defaultBoltTimeout  = 5 * time.Second
)

// BoltStore keeps tasks and users in a single bbolt file.
type BoltStore struct {
	store *bolthold.Store
}

func OpenBolt(ctx context.Context, path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("bolt database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating bolt directory: %w", err)
	}

	timeout := defaultBoltTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	store, err := bolthold.Open(path, defaultBoltFileMode, &bolthold.Options{
		Options: &bolt.Options{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	return &BoltStore{store: store}, nil
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Bolt().View(func(tx *bolt.Tx) error { return nil })
}

func (s *BoltStore) Close(ctx context.Context) error {
	return s.store.Close()
}

func (s *BoltStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := now()
	task.ID = uuid.NewString()
	task.CreatedAt = ts
	task.UpdatedAt = ts

	if err := s.store.Insert(task.ID, *task); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *BoltStore) GetTask(ctx context.Context, id, ownerID string) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}

	var task models.Task
	if err := s.store.Get(id, &task); err != nil {
		return nil, boltError("getting task", err)
	}
	if !ownedBy(&task, ownerID) {
		return nil, models.ErrNotFound
	}
	return &task, nil
}

func (s *BoltStore) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var q *bolthold.Query
	where := func(field string, value interface{}) {
		if q == nil {
			q = bolthold.Where(field).Eq(value)
			return
		}
		q = q.And(field).Eq(value)
	}
	if f.OwnerID != "" {
		where("OwnerID", f.OwnerID)
	}
	if f.Completed != nil {
		where("Completed", *f.Completed)
	}
	if f.Priority != "" {
		where("Priority", f.Priority)
	}
	if q == nil {
		q = &bolthold.Query{}
	}
	q = q.SortBy("CreatedAt").Reverse()
	if f.Skip > 0 {
		q = q.Skip(f.Skip)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	tasks := []models.Task{}
	if err := s.store.Find(&tasks, q); err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	return tasks, nil
}

func (s *BoltStore) UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}

	var task models.Task
	err := s.store.Bolt().Update(func(tx *bolt.Tx) error {
		if err := s.store.TxGet(tx, id, &task); err != nil {
			return err
		}
		if !ownedBy(&task, ownerID) {
			return bolthold.ErrNotFound
		}
		task.Apply(patch, now())
		return s.store.TxUpdate(tx, id, task)
	})
	if err != nil {
		return nil, boltError("updating task", err)
	}
	return &task, nil
}

func (s *BoltStore) DeleteTask(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}

	err := s.store.Bolt().Update(func(tx *bolt.Tx) error {
		var task models.Task
		if err := s.store.TxGet(tx, id, &task); err != nil {
			return err
		}
		if !ownedBy(&task, ownerID) {
			return bolthold.ErrNotFound
		}
		return s.store.TxDelete(tx, id, task)
	})
	if err != nil {
		return boltError("deleting task", err)
	}
	return nil
}

// CreateUser checks and inserts inside one write transaction so usernames stay unique.
func (s *BoltStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	user.ID = uuid.NewString()
	user.CreatedAt = now()
	record := *user
	record.Password = ""

	err := s.store.Bolt().Update(func(tx *bolt.Tx) error {
		var existing []models.User
		if err := s.store.TxFind(tx, &existing, bolthold.Where("Username").Eq(user.Username)); err != nil {
			return err
		}
		if len(existing) > 0 {
			return models.ErrDuplicate
		}
		return s.store.TxInsert(tx, record.ID, record)
	})
	if errors.Is(err, models.ErrDuplicate) {
		return err
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *BoltStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.store.Find(&users, bolthold.Where("Username").Eq(username)); err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if len(users) == 0 {
		return nil, models.ErrNotFound
	}
	return &users[0], nil
}

func (s *BoltStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}

	var user models.User
	if err := s.store.Get(id, &user); err != nil {
		return nil, boltError("getting user", err)
	}
	return &user, nil
}

func ownedBy(task *models.Task, ownerID string) bool {
	return ownerID == "" || task.OwnerID == ownerID
}

func boltError(op string, err error) error {
	if errors.Is(err, bolthold.ErrNotFound) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
