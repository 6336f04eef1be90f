package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"project-status-tracker/internal/domain"
)

const keyPrefix = "tracker:project:"

// Redis stores JSON-encoded entries under tracker:project:<id>[:types].
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis(ctx context.Context, address, password string, db int, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, log: logger}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func projectKey(projectID string) string { return keyPrefix + projectID }

func typesKey(projectID string) string { return keyPrefix + projectID + ":types" }

func (r *Redis) GetProject(ctx context.Context, projectID string) (domain.Project, bool) {
	var p domain.Project
	if !r.get(ctx, projectKey(projectID), &p) {
		return domain.Project{}, false
	}
	return p, true
}

func (r *Redis) PutProject(ctx context.Context, project domain.Project) {
	r.set(ctx, projectKey(project.ID), project)
}

func (r *Redis) GetDocumentTypes(ctx context.Context, projectID string) ([]domain.DocumentType, bool) {
	var types []domain.DocumentType
	if !r.get(ctx, typesKey(projectID), &types) {
		return nil, false
	}
	return types, true
}

func (r *Redis) PutDocumentTypes(ctx context.Context, projectID string, types []domain.DocumentType) {
	if types == nil {
		types = []domain.DocumentType{}
	}
	r.set(ctx, typesKey(projectID), types)
}

func (r *Redis) Invalidate(ctx context.Context, projectID string) {
	if err := r.client.Del(ctx, projectKey(projectID), typesKey(projectID)).Err(); err != nil {
		r.log.Warn("cache invalidate failed", "project_id", projectID, "error", err)
	}
}

func (r *Redis) get(ctx context.Context, key string, out any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.log.Warn("cache entry unreadable", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Redis) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		r.log.Warn("cache entry not encodable", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.log.Warn("cache write failed", "key", key, "error", err)
	}
}
