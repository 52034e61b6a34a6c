package notifications

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence is mirrored into Redis so every instance agrees on who holds an
// open feed connection. The keys live alongside the feed pub/sub channels.
const (
	presenceOnlineSetKey   = "feed:online_users"
	presenceLastSeenPrefix = "feed:last_seen:"
	presenceTTL            = 90 * time.Second
	presenceOfflineGrace   = 5 * time.Second
	presenceSweepInterval  = 60 * time.Second
)

// userPresence is the per-user slice of tracker state.
type userPresence struct {
	conns       int
	graceTimer  *time.Timer
	wentOffline bool
}

// presenceTracker counts open feed connections per user, mirrors them into
// Redis, and reports online/offline transitions. A disconnect only becomes
// an offline transition after a grace window passes with no reconnect, so
// page reloads do not flap.
type presenceTracker struct {
	rdb *redis.Client

	mu    sync.Mutex
	users map[uint]*userPresence
	grace time.Duration

	onOnline  func(userID uint)
	onOffline func(userID uint)

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newPresenceTracker(rdb *redis.Client) *presenceTracker {
	t := &presenceTracker{
		rdb:    rdb,
		users:  make(map[uint]*userPresence),
		grace:  presenceOfflineGrace,
		stopCh: make(chan struct{}),
	}
	if rdb != nil {
		go t.sweepLoop()
	}
	return t
}

func (t *presenceTracker) setCallbacks(onOnline, onOffline func(userID uint)) {
	t.mu.Lock()
	t.onOnline = onOnline
	t.onOffline = onOffline
	t.mu.Unlock()
}

func (t *presenceTracker) setGrace(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	t.grace = d
	t.mu.Unlock()
}

func (t *presenceTracker) stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.mu.Lock()
		for _, u := range t.users {
			if u.graceTimer != nil {
				u.graceTimer.Stop()
				u.graceTimer = nil
			}
		}
		t.mu.Unlock()
	})
}

// connected records one more open connection for userID.
func (t *presenceTracker) connected(ctx context.Context, userID uint) {
	wasOnline := t.online(ctx, userID)

	t.mu.Lock()
	u := t.user(userID)
	if u.graceTimer != nil {
		u.graceTimer.Stop()
		u.graceTimer = nil
	}
	u.conns++
	u.wentOffline = false
	cb := t.onOnline
	t.mu.Unlock()

	t.refresh(ctx, userID)
	if !wasOnline && cb != nil {
		cb(userID)
	}
}

// disconnected records a closed connection. When it was the user's last one
// an offline check is scheduled after the grace window.
func (t *presenceTracker) disconnected(userID uint) {
	t.mu.Lock()
	u := t.user(userID)
	if u.conns > 0 {
		u.conns--
	}
	if u.conns > 0 {
		t.mu.Unlock()
		return
	}
	if u.graceTimer != nil {
		u.graceTimer.Stop()
	}
	u.graceTimer = time.AfterFunc(t.grace, func() {
		t.settleOffline(userID)
	})
	t.mu.Unlock()
}

// refresh extends the Redis presence mirror for userID. Runs on connect and
// on every pong so long-lived connections never look stale.
func (t *presenceTracker) refresh(ctx context.Context, userID uint) {
	if t.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := t.rdb.SAdd(ctx, presenceOnlineSetKey, uid).Err(); err != nil {
		log.Printf("presence SADD failed for user %d: %v", userID, err)
	}
	if err := t.rdb.SetEx(ctx, presenceLastSeenKey(userID),
		strconv.FormatInt(time.Now().Unix(), 10), presenceTTL).Err(); err != nil {
		log.Printf("presence SETEX failed for user %d: %v", userID, err)
	}
}

// online reports presence across instances: local connections first, then
// the Redis last-seen mirror.
func (t *presenceTracker) online(ctx context.Context, userID uint) bool {
	t.mu.Lock()
	u, ok := t.users[userID]
	local := ok && u.conns > 0
	t.mu.Unlock()
	if local {
		return true
	}
	if t.rdb == nil {
		return false
	}
	exists, err := t.rdb.Exists(ctx, presenceLastSeenKey(userID)).Result()
	return err == nil && exists > 0
}

// settleOffline runs once the grace window elapses. The user is only
// reported offline when no reconnect happened here and no other instance
// still sees them.
func (t *presenceTracker) settleOffline(userID uint) {
	t.mu.Lock()
	u := t.user(userID)
	u.graceTimer = nil
	if u.conns > 0 {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	ctx := context.Background()
	if t.rdb != nil {
		exists, err := t.rdb.Exists(ctx, presenceLastSeenKey(userID)).Result()
		if err == nil && exists > 0 {
			// Another instance refreshed presence. Keep the user online.
			return
		}
		_ = t.rdb.SRem(ctx, presenceOnlineSetKey, strconv.FormatUint(uint64(userID), 10)).Err()
	}

	t.reportOffline(userID)
}

// sweep drops online-set members whose last-seen key expired, catching
// instances that died without unregistering their connections.
func (t *presenceTracker) sweep(ctx context.Context) {
	if t.rdb == nil {
		return
	}
	members, err := t.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return
	}
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := t.rdb.Exists(ctx, presenceLastSeenKey(userID)).Result()
		if existsErr != nil || exists > 0 {
			continue
		}
		_ = t.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()

		t.mu.Lock()
		u, ok := t.users[userID]
		hasLocal := ok && u.conns > 0
		t.mu.Unlock()
		if !hasLocal {
			t.reportOffline(userID)
		}
	}
}

func (t *presenceTracker) sweepLoop() {
	ticker := time.NewTicker(presenceSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.sweep(context.Background())
		}
	}
}

// reportOffline fires the offline callback once per offline episode.
// A reconnect resets the episode.
func (t *presenceTracker) reportOffline(userID uint) {
	t.mu.Lock()
	u := t.user(userID)
	if u.wentOffline {
		t.mu.Unlock()
		return
	}
	u.wentOffline = true
	cb := t.onOffline
	t.mu.Unlock()
	if cb != nil {
		cb(userID)
	}
}

// user returns the state entry for userID, creating it if needed.
// Callers must hold t.mu.
func (t *presenceTracker) user(userID uint) *userPresence {
	u, ok := t.users[userID]
	if !ok {
		u = &userPresence{}
		t.users[userID] = u
	}
	return u
}

func presenceLastSeenKey(userID uint) string {
	return presenceLastSeenPrefix + strconv.FormatUint(uint64(userID), 10)
}
