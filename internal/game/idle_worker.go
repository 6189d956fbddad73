package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tiltmaze/backend/internal/config"
)

const (
	// IdleSetKey is the sorted set of session ids scored by expiry deadline.
	IdleSetKey = "session_idle"
	// EventsChannel carries session events to every server instance.
	EventsChannel = "game_events"
)

func lastActiveKey(sessionID string) string {
	return "last_active:session:" + sessionID
}

// TrackActivity stores the last activity time and pushes the session's
// expiry deadline forward.
func TrackActivity(ctx context.Context, rdb *redis.Client, sessionID string, idleSeconds int) error {
	if rdb == nil {
		return nil
	}
	now := time.Now().Unix()
	pipe := rdb.Pipeline()
	pipe.Set(ctx, lastActiveKey(sessionID), strconv.FormatInt(now, 10), time.Duration(2*idleSeconds)*time.Second)
	pipe.ZAdd(ctx, IdleSetKey, redis.Z{Score: float64(now + int64(idleSeconds)), Member: sessionID})
	_, err := pipe.Exec(ctx)
	return err
}

// ForgetActivity drops idle tracking for an ended session.
func ForgetActivity(ctx context.Context, rdb *redis.Client, sessionID string) {
	if rdb == nil {
		return
	}
	rdb.ZRem(ctx, IdleSetKey, sessionID)
	rdb.Del(ctx, lastActiveKey(sessionID))
}

// PublishEvent publishes a JSON payload on the events channel.
func PublishEvent(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, EventsChannel, b).Err()
}

// PublishOutcome announces the end of a play-through.
func PublishOutcome(ctx context.Context, rdb *redis.Client, f Frame) error {
	msg, action := f.Outcome.Message()
	return PublishEvent(ctx, rdb, map[string]interface{}{
		"type":       "outcome",
		"session_id": f.SessionID,
		"outcome":    f.Outcome,
		"message":    msg,
		"action":     action,
		"ball":       f.Ball.Position,
	})
}

// StartIdleWorker expires sessions whose deadline in the idle sorted set has
// passed. Without Redis it falls back to an in-process sweep.
func StartIdleWorker(ctx context.Context, m *Manager, rdb *redis.Client, cfg *config.Config) {
	if m == nil || cfg == nil {
		log.Println("[IDLE] Manager or config missing; idle worker not started")
		return
	}
	if rdb == nil {
		log.Println("[IDLE] Redis not configured; using in-process idle sweep")
		go runIdleSweep(ctx, m, cfg)
		return
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.IdleWorkerPollInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				processIdle(ctx, m, rdb, cfg)
			}
		}
	}()
}

func processIdle(ctx context.Context, m *Manager, rdb *redis.Client, cfg *config.Config) {
	now := time.Now().Unix()
	members, err := rdb.ZRangeByScore(ctx, IdleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}

	for _, id := range members {
		// Only the instance that removes the member handles it.
		if removed, _ := rdb.ZRem(ctx, IdleSetKey, id).Result(); removed == 0 {
			continue
		}
		last, _ := rdb.Get(ctx, lastActiveKey(id)).Result()
		lastTs, _ := strconv.ParseInt(last, 10, 64)
		if deadline, idle := idleDeadline(now, lastTs, cfg.IdleExpireSeconds); !idle {
			// Activity arrived after the deadline was written; re-arm it.
			if err := rdb.ZAdd(ctx, IdleSetKey, redis.Z{Score: float64(deadline), Member: id}).Err(); err != nil {
				log.Printf("[IDLE] re-arm failed: session=%s err=%v", id, err)
			}
			continue
		}

		if err := m.End(id); err != nil {
			log.Printf("[IDLE] session %s not on this instance: %v", id, err)
		}
		rdb.Del(ctx, lastActiveKey(id))

		payload := map[string]interface{}{"type": "session_expired", "session_id": id, "message": "Session expired due to inactivity"}
		if err := PublishEvent(ctx, rdb, payload); err != nil {
			log.Printf("[IDLE] publish expiry failed: session=%s err=%v", id, err)
		} else {
			log.Printf("[IDLE] expired session %s", id)
		}
	}
}

// idleDeadline reports whether a session last active at lastTs is idle at
// now. A session that is still active gets its next deadline. A missing
// timestamp (0) counts as idle.
func idleDeadline(now, lastTs int64, idleSeconds int) (int64, bool) {
	if lastTs <= 0 {
		return 0, true
	}
	deadline := lastTs + int64(idleSeconds)
	if now < deadline {
		return deadline, false
	}
	return 0, true
}

func runIdleSweep(ctx context.Context, m *Manager, cfg *config.Config) {
	ticker := time.NewTicker(time.Duration(cfg.IdleWorkerPollInterval) * time.Second)
	defer ticker.Stop()

	maxIdle := time.Duration(cfg.IdleExpireSeconds) * time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range m.ExpireIdle(maxIdle, now) {
				log.Printf("[IDLE] expired session %s", id)
			}
		}
	}
}
