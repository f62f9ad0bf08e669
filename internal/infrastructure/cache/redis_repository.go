package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// Key prefixes, one per entity type. The protocol row lives under a single
// well-known key.
const (
	paymentKeyPrefix  = "payment:"
	userKeyPrefix     = "user:"
	dailyKeyPrefix    = "daily:"
	currencyKeyPrefix = "currency:"
	protocolKey       = "protocol:" + model.ProtocolStatID
)

// RedisRepository implements the EntityStore interface with one JSON
// document per entity. Documents never expire; aggregates are living
// records, not cache entries.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

// Ensure RedisRepository implements the EntityStore interface
var _ repository.EntityStore = (*RedisRepository)(nil)

// Ping verifies connectivity; bootstrap uses it to decide whether to fall
// back to the in-memory store.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

// get unmarshals the document at key into out, reporting false when the
// key does not exist.
func (r *RedisRepository) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// getAll fetches every document under a prefix with a pipelined multi-get.
func (r *RedisRepository) getAll(ctx context.Context, pattern string) ([]string, error) {
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	docs := make([]string, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue // Skip keys deleted between KEYS and GET
		}
		docs = append(docs, data)
	}
	return docs, nil
}

func (r *RedisRepository) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	var p model.Payment
	ok, err := r.get(ctx, paymentKeyPrefix+id, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *RedisRepository) SavePayment(ctx context.Context, p *model.Payment) error {
	return r.set(ctx, paymentKeyPrefix+p.ID, p)
}

func (r *RedisRepository) GetUser(ctx context.Context, address string) (*model.User, error) {
	var u model.User
	ok, err := r.get(ctx, userKeyPrefix+address, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (r *RedisRepository) SaveUser(ctx context.Context, u *model.User) error {
	return r.set(ctx, userKeyPrefix+u.Address, u)
}

func (r *RedisRepository) GetAllUsers(ctx context.Context) ([]*model.User, error) {
	docs, err := r.getAll(ctx, userKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	result := make([]*model.User, 0, len(docs))
	for _, doc := range docs {
		var u model.User
		if err := json.Unmarshal([]byte(doc), &u); err != nil {
			continue // Skip malformed data
		}
		result = append(result, &u)
	}
	return result, nil
}

func (r *RedisRepository) GetDailyStat(ctx context.Context, date int64) (*model.DailyStat, error) {
	var d model.DailyStat
	ok, err := r.get(ctx, dailyKey(date), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (r *RedisRepository) SaveDailyStat(ctx context.Context, d *model.DailyStat) error {
	return r.set(ctx, dailyKey(d.Date), d)
}

func (r *RedisRepository) GetAllDailyStats(ctx context.Context) ([]*model.DailyStat, error) {
	docs, err := r.getAll(ctx, dailyKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	result := make([]*model.DailyStat, 0, len(docs))
	for _, doc := range docs {
		var d model.DailyStat
		if err := json.Unmarshal([]byte(doc), &d); err != nil {
			continue
		}
		result = append(result, &d)
	}
	return result, nil
}

func (r *RedisRepository) GetCurrencyStat(ctx context.Context, currency string) (*model.CurrencyStat, error) {
	var c model.CurrencyStat
	ok, err := r.get(ctx, currencyKeyPrefix+currency, &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (r *RedisRepository) SaveCurrencyStat(ctx context.Context, c *model.CurrencyStat) error {
	return r.set(ctx, currencyKeyPrefix+c.Currency, c)
}

func (r *RedisRepository) GetAllCurrencyStats(ctx context.Context) ([]*model.CurrencyStat, error) {
	docs, err := r.getAll(ctx, currencyKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	result := make([]*model.CurrencyStat, 0, len(docs))
	for _, doc := range docs {
		var c model.CurrencyStat
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			continue
		}
		result = append(result, &c)
	}
	return result, nil
}

func (r *RedisRepository) GetProtocolStat(ctx context.Context) (*model.ProtocolStat, error) {
	var p model.ProtocolStat
	ok, err := r.get(ctx, protocolKey, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *RedisRepository) SaveProtocolStat(ctx context.Context, p *model.ProtocolStat) error {
	return r.set(ctx, protocolKey, p)
}

func dailyKey(date int64) string {
	return dailyKeyPrefix + strconv.FormatInt(date, 10)
}
