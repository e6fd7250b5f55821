package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"CodeMart/config"
)

const operatorsKey = "chat:operators:online"

type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient initializes and pings a new client.
func NewRedisClient(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// OperatorInfo is the presence record mirrored to Redis for each connected
// support operator.
type OperatorInfo struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
}

// MarkOperatorOnline stores the operator in the online hash. The key expires
// after 24 hours so stale entries from a crashed process age out.
func (r *RedisClient) MarkOperatorOnline(ctx context.Context, info OperatorInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := r.Client.HSet(ctx, operatorsKey, info.AdminID, data).Err(); err != nil {
		return fmt.Errorf("failed to mark operator online: %w", err)
	}
	r.Client.Expire(ctx, operatorsKey, 24*time.Hour)
	return nil
}

func (r *RedisClient) MarkOperatorOffline(ctx context.Context, adminID string) error {
	if err := r.Client.HDel(ctx, operatorsKey, adminID).Err(); err != nil {
		return fmt.Errorf("failed to mark operator offline: %w", err)
	}
	return nil
}

// OnlineOperators returns every operator currently present in the hash.
func (r *RedisClient) OnlineOperators(ctx context.Context) ([]OperatorInfo, error) {
	result, err := r.Client.HGetAll(ctx, operatorsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch online operators: %w", err)
	}
	ops := make([]OperatorInfo, 0, len(result))
	for _, data := range result {
		var info OperatorInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}
		ops = append(ops, info)
	}
	return ops, nil
}
