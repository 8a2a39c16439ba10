package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"kiosk/internal/authcode/models"
	"kiosk/pkg/platform/sentinel"
)

const codeKeyPrefix = "authcode:"

// Redis is the registry for multi-instance deployments: several kiosk
// terminals sharing one code space. SET NX makes the collision check and the
// insert a single atomic operation, and redis expires entries natively so
// Sweep has nothing to do.
type Redis struct {
	client   redis.Cmdable
	generate Generate
	ttl      time.Duration
}

func NewRedis(client redis.Cmdable, generate Generate, ttl time.Duration) *Redis {
	return &Redis{client: client, generate: generate, ttl: ttl}
}

func (s *Redis) Issue(ctx context.Context, userID models.UserID) (models.Code, error) {
	value := fmt.Sprintf("%d|%d", userID, time.Now().Unix())

	for {
		code := s.generate()
		ok, err := s.client.SetNX(ctx, codeKey(code), value, s.ttl).Result()
		if err != nil {
			return 0, fmt.Errorf("issue auth code: %w", err)
		}
		if ok {
			return code, nil
		}
		// Slot occupied by another outstanding authorization; redraw.
	}
}

func (s *Redis) Lookup(ctx context.Context, code models.Code) (models.Pending, error) {
	value, err := s.client.Get(ctx, codeKey(code)).Result()
	if err == redis.Nil {
		// Native expiry removes stale keys, so a miss and an expired code
		// are indistinguishable here. Both mean "not redeemable".
		return models.Pending{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Pending{}, fmt.Errorf("lookup auth code: %w", err)
	}
	return parsePending(value)
}

func (s *Redis) Remove(ctx context.Context, code models.Code) (bool, error) {
	n, err := s.client.Del(ctx, codeKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("remove auth code: %w", err)
	}
	return n > 0, nil
}

func (s *Redis) Active(ctx context.Context) (map[models.Code]models.UserID, error) {
	active := make(map[models.Code]models.UserID)

	iter := s.client.Scan(ctx, 0, codeKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		code, err := strconv.Atoi(strings.TrimPrefix(key, codeKeyPrefix))
		if err != nil {
			continue
		}
		value, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot active codes: %w", err)
		}
		pending, err := parsePending(value)
		if err != nil {
			return nil, err
		}
		active[models.Code(code)] = pending.UserID
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("snapshot active codes: %w", err)
	}
	return active, nil
}

// Sweep is a no-op: redis enforces the TTL itself.
func (s *Redis) Sweep(context.Context, time.Time) int {
	return 0
}

func codeKey(code models.Code) string {
	return codeKeyPrefix + code.String()
}

func parsePending(value string) (models.Pending, error) {
	uidPart, issuedPart, ok := strings.Cut(value, "|")
	if !ok {
		return models.Pending{}, fmt.Errorf("malformed registry entry %q", value)
	}
	uid, err := strconv.ParseInt(uidPart, 10, 64)
	if err != nil {
		return models.Pending{}, fmt.Errorf("malformed registry entry %q", value)
	}
	issued, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return models.Pending{}, fmt.Errorf("malformed registry entry %q", value)
	}
	return models.Pending{UserID: models.UserID(uid), IssuedAt: time.Unix(issued, 0)}, nil
}
