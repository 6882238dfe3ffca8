package tread

// FileIdentity names a file independently of its paths. Two directory
// entries with equal identity are hardlinks to the same underlying file.
type FileIdentity struct {
	Dev uint64
	Ino uint64
}

const nilIndex = -1

// cacheNode is one slot in the identityCache arena.
type cacheNode struct {
	ident FileIdentity
	prev  int
	next  int
}

// identityCache remembers recently seen file identities within a fixed
// capacity. A map locates slots by identity and an arena-backed doubly
// linked list keeps recency order, so admit and evict are both O(1).
// Once full, admitting a new identity evicts the least recently touched
// one; an identity evicted long ago can therefore be admitted again.
type identityCache struct {
	cap   int
	index map[FileIdentity]int
	arena []cacheNode
	head  int // most recently touched
	tail  int // least recently touched
}

func newIdentityCache(capacity int) *identityCache {
	if capacity < 1 {
		capacity = 1
	}
	hint := capacity
	if hint > 4096 {
		hint = 4096
	}
	return &identityCache{
		cap:   capacity,
		index: make(map[FileIdentity]int, hint),
		arena: make([]cacheNode, 0, hint),
		head:  nilIndex,
		tail:  nilIndex,
	}
}

// admit reports whether ident was absent. A hit refreshes the
// identity's recency and reports false; a miss records it, evicting the
// least recently touched identity when the cache is full.
func (c *identityCache) admit(ident FileIdentity) bool {
	if i, ok := c.index[ident]; ok {
		c.moveToFront(i)
		return false
	}
	var i int
	if len(c.arena) < c.cap {
		c.arena = append(c.arena, cacheNode{ident: ident})
		i = len(c.arena) - 1
	} else {
		// Reuse the tail slot for the newcomer.
		i = c.tail
		c.unlink(i)
		delete(c.index, c.arena[i].ident)
		c.arena[i].ident = ident
	}
	c.index[ident] = i
	c.pushFront(i)
	return true
}

func (c *identityCache) len() int { return len(c.index) }

func (c *identityCache) pushFront(i int) {
	c.arena[i].prev = nilIndex
	c.arena[i].next = c.head
	if c.head != nilIndex {
		c.arena[c.head].prev = i
	}
	c.head = i
	if c.tail == nilIndex {
		c.tail = i
	}
}

func (c *identityCache) unlink(i int) {
	prev, next := c.arena[i].prev, c.arena[i].next
	if prev != nilIndex {
		c.arena[prev].next = next
	} else {
		c.head = next
	}
	if next != nilIndex {
		c.arena[next].prev = prev
	} else {
		c.tail = prev
	}
}

func (c *identityCache) moveToFront(i int) {
	if c.head == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}
