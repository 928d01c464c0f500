package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Cache remembers recently indexed document ids so that Kafka re-deliveries
// of the same story do not hit Elasticsearch twice. Entries expire after the
// ttl; when the cache is full the oldest entry is evicted first.
type Cache struct {
	mu    sync.Mutex
	ids   map[string]*list.Element
	queue *list.List // front = oldest
	cap   int
	ttl   time.Duration
}

type seenAt struct {
	id string
	at time.Time
}

// NewCache creates a cache holding at most capacity ids for at most ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		ids:   make(map[string]*list.Element, capacity),
		queue: list.New(),
		cap:   capacity,
		ttl:   ttl,
	}
}

// IsSeen reports whether the id was marked inside the ttl window. It never
// marks; pair it with MarkSeen after the document is safely indexed.
func (c *Cache) IsSeen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.ids[id]
	if !ok {
		return false
	}
	if time.Since(el.Value.(seenAt).at) > c.ttl {
		c.remove(el)
		return false
	}
	return true
}

// MarkSeen records the id, refreshing its position if already present.
func (c *Cache) MarkSeen(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.ids[id]; ok {
		c.remove(el)
	}
	c.ids[id] = c.queue.PushBack(seenAt{id: id, at: time.Now()})
	c.evict()
}

func (c *Cache) evict() {
	cutoff := time.Now().Add(-c.ttl)
	for c.queue.Len() > 0 {
		front := c.queue.Front()
		v := front.Value.(seenAt)
		if c.queue.Len() <= c.cap && !v.at.Before(cutoff) {
			return
		}
		c.remove(front)
	}
}

func (c *Cache) remove(el *list.Element) {
	delete(c.ids, el.Value.(seenAt).id)
	c.queue.Remove(el)
}
