package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"taskmanager/models"
)

// Store is the persistence boundary for tasks and users. Task operations
// scope to ownerID when it is non-empty; another owner's task reports
// models.ErrNotFound.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id, ownerID string) (*models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

const (
	BackendMongo    = "MongoDB"
	BackendPostgres = "PostgreSQL"
	BackendBolt     = "BoltDB"
)

// Open connects to the backend named by the URI scheme and verifies it is
// reachable within timeout. No listener should be bound until it returns nil.
func Open(ctx context.Context, uri string, timeout time.Duration) (Store, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("parsing database uri: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		s, err := OpenMongo(ctx, uri, timeout)
		return s, BackendMongo, err
	case "postgres", "postgresql":
		s, err := OpenPostgres(ctx, uri)
		return s, BackendPostgres, err
	case "bolt":
		s, err := OpenBolt(ctx, boltPath(u))
		return s, BackendBolt, err
	default:
		return nil, "", fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

// boltPath accepts bolt:///abs/file.db and bolt://relative/file.db.
func boltPath(u *url.URL) string {
	if u.Host == "" {
		return u.Path
	}
	return u.Host + u.Path
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
