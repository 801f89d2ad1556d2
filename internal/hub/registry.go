package hub

import (
	"hash/fnv"
	"sync"
)

const registryShards = 16

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % registryShards
}

// connRegistry is a sharded key → connection map. Registering under an
// existing key replaces the prior connection (a reconnection).
type connRegistry struct {
	shards [registryShards]struct {
		mu    sync.RWMutex
		conns map[string]*Client
	}
}

func newConnRegistry() *connRegistry {
	r := &connRegistry{}
	for i := range r.shards {
		r.shards[i].conns = make(map[string]*Client)
	}
	return r
}

// Register stores the connection and returns the one it replaced, if any.
func (r *connRegistry) Register(key string, c *Client) *Client {
	shard := &r.shards[shardFor(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	prev := shard.conns[key]
	shard.conns[key] = c
	return prev
}

// Unregister removes the connection, but only if it is still the one
// registered under the key. A reconnection must not evict its successor.
func (r *connRegistry) Unregister(key string, c *Client) bool {
	shard := &r.shards[shardFor(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if shard.conns[key] != c {
		return false
	}
	delete(shard.conns, key)
	return true
}

// Get returns the connection registered under the key.
func (r *connRegistry) Get(key string) (*Client, bool) {
	shard := &r.shards[shardFor(key)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	c, ok := shard.conns[key]
	return c, ok
}

// ForEach visits every registered connection.
func (r *connRegistry) ForEach(fn func(key string, c *Client)) {
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		for key, c := range shard.conns {
			fn(key, c)
		}
		shard.mu.RUnlock()
	}
}

// spectatorRegistry maps gameID → set of (userID, connection).
type spectatorRegistry struct {
	shards [registryShards]struct {
		mu    sync.RWMutex
		games map[string]map[string]*Client
	}
}

func newSpectatorRegistry() *spectatorRegistry {
	r := &spectatorRegistry{}
	for i := range r.shards {
		r.shards[i].games = make(map[string]map[string]*Client)
	}
	return r
}

// Register adds a spectator, returning any connection it replaced.
func (r *spectatorRegistry) Register(gameID, userID string, c *Client) *Client {
	shard := &r.shards[shardFor(gameID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	set := shard.games[gameID]
	if set == nil {
		set = make(map[string]*Client)
		shard.games[gameID] = set
	}
	prev := set[userID]
	set[userID] = c
	return prev
}

// Unregister removes a spectator if the connection still matches.
func (r *spectatorRegistry) Unregister(gameID, userID string, c *Client) {
	shard := &r.shards[shardFor(gameID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	set := shard.games[gameID]
	if set == nil || set[userID] != c {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(shard.games, gameID)
	}
}

// ForEach visits every spectator of one game.
func (r *spectatorRegistry) ForEach(gameID string, fn func(userID string, c *Client)) {
	shard := &r.shards[shardFor(gameID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	for userID, c := range shard.games[gameID] {
		fn(userID, c)
	}
}
