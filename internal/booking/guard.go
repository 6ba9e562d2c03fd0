package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-booking/pkg/logging"
)

// SubmitGuard caps how many appointment submissions one user may make per
// window. It fails open: if Redis is unreachable the submission proceeds.
type SubmitGuard struct {
	redis  *redis.Client
	logger *logging.Logger
	config GuardConfig
}

// GuardConfig contains submission guard limits.
type GuardConfig struct {
	MaxPerWindow int
	Window       time.Duration
}

// DefaultGuardConfig returns default submission limits.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxPerWindow: 5,
		Window:       10 * time.Minute,
	}
}

// GuardResult contains the result of a guard check.
type GuardResult struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
	Message      string
}

// NewSubmitGuard creates a new submission guard.
func NewSubmitGuard(redisClient *redis.Client, config GuardConfig, logger *logging.Logger) *SubmitGuard {
	if logger == nil {
		logger = logging.Default()
	}
	if config.MaxPerWindow <= 0 || config.Window <= 0 {
		config = DefaultGuardConfig()
	}
	return &SubmitGuard{
		redis:  redisClient,
		logger: logger,
		config: config,
	}
}

// Check counts one submission attempt for userID and reports whether it is
// within the limit.
func (g *SubmitGuard) Check(ctx context.Context, userID string) (*GuardResult, error) {
	if g == nil || g.redis == nil {
		return &GuardResult{Allowed: true}, nil
	}
	key := submitKey(userID)

	count, expiry, err := g.incrementAndGet(ctx, key, g.config.Window)
	if err != nil {
		g.logger.Error("submit guard check failed", "error", err, "key", key)
		return &GuardResult{Allowed: true, Message: "submit guard unavailable"}, nil
	}

	result := &GuardResult{
		Allowed:      count <= g.config.MaxPerWindow,
		CurrentCount: count,
		MaxAllowed:   g.config.MaxPerWindow,
		WindowExpiry: expiry,
	}
	if !result.Allowed {
		result.Message = fmt.Sprintf("exceeded %d submissions in %s", g.config.MaxPerWindow, g.config.Window)
		g.logger.Warn("submit guard exceeded",
			"user_id", userID,
			"count", count,
			"max", g.config.MaxPerWindow,
		)
	}
	return result, nil
}

// Reset clears the counter for userID.
func (g *SubmitGuard) Reset(ctx context.Context, userID string) error {
	if g == nil || g.redis == nil {
		return nil
	}
	return g.redis.Del(ctx, submitKey(userID)).Err()
}

// incrementAndGet increments a counter and returns the new value with expiry time.
func (g *SubmitGuard) incrementAndGet(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	// Expiry is set on the first increment so the window is fixed. A counter
	// left without one (EXPIRE failed earlier) is re-armed here.
	ttl, err := g.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 || ttl < 0 {
		if err := g.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("set submit window: %w", err)
		}
		ttl = window
	}
	return int(count), time.Now().Add(ttl), nil
}

func submitKey(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "booking:submit:" + userID
}
