package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService 在容器提供的客户端上创建缓存服务，
// 缓存与连通性探测共用同一个连接池
func NewRedisService(client *redis.Client) *RedisService {
	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheSetting caches a system setting value
func (s *RedisService) CacheSetting(key, value string, expiration time.Duration) error {
	return s.Client.Set(s.Ctx, "setting:"+key, value, expiration).Err()
}

// GetCachedSetting gets a system setting value from cache
func (s *RedisService) GetCachedSetting(key string) (string, error) {
	return s.Client.Get(s.Ctx, "setting:"+key).Result()
}

// InvalidateSetting removes a cached system setting
func (s *RedisService) InvalidateSetting(key string) error {
	return s.Client.Del(s.Ctx, "setting:"+key).Err()
}
