// Package spatial provides cache-efficient spatial data structures.
//
// This file backs the territory-area rankings behind Room.Leaderboard: an
// augmented skip list keyed by player id, ordered by current territory
// area descending, with span counts carried on each forward pointer so a
// rank lookup or a "top N" slice never has to walk the whole list.
package spatial

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

const (
	skipListMaxHeight = 32   // supports well beyond any room's live-player count
	skipListBranching  = 0.25 // P(level up) — the standard balance for this height
)

// SkipListEntry is one ranked player: their id and current territory area
// (the game package's Leaderboard re-scores this on every tick).
type SkipListEntry struct {
	Key   string  // player id
	Score float64 // current territory area
}

// rankNode is one player's slot in the skip list: the entry itself, a
// forward pointer per level it participates in, and the span (player
// count) each of those pointers skips over, which is what lets GetRank
// and GetByRank run in O(log n) instead of walking level 0.
type rankNode struct {
	entry SkipListEntry
	next  []*rankNode
	span  []int
}

// SkipList ranks players by territory area with O(log n) rank/insert and
// is safe for concurrent use: Room.Tick calls Insert once per live player
// every tick while an HTTP handler may concurrently read GetTop/GetRank
// for /api/leaderboard.
type SkipList struct {
	head   *rankNode
	level  int32 // current max participating level, atomic for lock-free reads
	length int32 // live entry count, atomic
	mu     sync.RWMutex
	rng    *rand.Rand
}

// NewSkipList builds an empty, ready-to-use ranking.
func NewSkipList() *SkipList {
	head := &rankNode{
		next: make([]*rankNode, skipListMaxHeight),
		span: make([]int, skipListMaxHeight),
	}
	return &SkipList{
		head:  head,
		level: 1,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

// randomHeight draws a new node's level from a geometric distribution so
// higher levels get exponentially rarer, the classic skip-list coin flip.
func (sl *SkipList) randomHeight() int {
	h := 1
	for h < skipListMaxHeight && sl.rng.Float64() < skipListBranching {
		h++
	}
	return h
}

// Insert records playerID's current territory area, ranking strictly by
// score descending (bigger territory ranks higher) and breaking ties by
// player id ascending for a stable order. Re-inserting an existing player
// id repositions them at their new score.
func (sl *SkipList) Insert(playerID string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	update := make([]*rankNode, skipListMaxHeight)
	rankAtLevel := make([]int, skipListMaxHeight)

	cur := sl.head
	for lvl := int(atomic.LoadInt32(&sl.level)) - 1; lvl >= 0; lvl-- {
		if lvl == int(sl.level)-1 {
			rankAtLevel[lvl] = 0
		} else {
			rankAtLevel[lvl] = rankAtLevel[lvl+1]
		}

		for cur.next[lvl] != nil && (cur.next[lvl].entry.Score > score ||
			(cur.next[lvl].entry.Score == score && cur.next[lvl].entry.Key < playerID)) {
			rankAtLevel[lvl] += cur.span[lvl]
			cur = cur.next[lvl]
		}
		update[lvl] = cur
	}

	if cur.next[0] != nil && cur.next[0].entry.Key == playerID {
		sl.removeNode(cur.next[0], update)
		sl.mu.Unlock()
		sl.Insert(playerID, score)
		sl.mu.Lock()
		return
	}

	newHeight := sl.randomHeight()
	curHeight := int(sl.level)

	if newHeight > curHeight {
		for lvl := curHeight; lvl < newHeight; lvl++ {
			rankAtLevel[lvl] = 0
			update[lvl] = sl.head
			update[lvl].span[lvl] = int(sl.length)
		}
		atomic.StoreInt32(&sl.level, int32(newHeight))
	}

	node := &rankNode{
		entry: SkipListEntry{Key: playerID, Score: score},
		next:  make([]*rankNode, newHeight),
		span:  make([]int, newHeight),
	}

	for lvl := 0; lvl < newHeight; lvl++ {
		node.next[lvl] = update[lvl].next[lvl]
		update[lvl].next[lvl] = node

		node.span[lvl] = update[lvl].span[lvl] - (rankAtLevel[0] - rankAtLevel[lvl])
		update[lvl].span[lvl] = (rankAtLevel[0] - rankAtLevel[lvl]) + 1
	}

	for lvl := newHeight; lvl < int(sl.level); lvl++ {
		update[lvl].span[lvl]++
	}

	atomic.AddInt32(&sl.length, 1)
}

// Remove drops a player from the ranking, e.g. when they disconnect or a
// bot is reaped. Reports whether the player was present.
func (sl *SkipList) Remove(playerID string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	update := make([]*rankNode, skipListMaxHeight)
	cur := sl.head

	for lvl := int(sl.level) - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && cur.next[lvl].entry.Key < playerID {
			cur = cur.next[lvl]
		}
		update[lvl] = cur
	}

	cur = cur.next[0]
	if cur == nil || cur.entry.Key != playerID {
		return false
	}

	sl.removeNode(cur, update)
	return true
}

// removeNode unlinks node given the per-level predecessors update found
// during the preceding downward walk, repairing span counts as it goes.
func (sl *SkipList) removeNode(node *rankNode, update []*rankNode) {
	for lvl := 0; lvl < int(sl.level); lvl++ {
		if update[lvl].next[lvl] == node {
			update[lvl].span[lvl] += node.span[lvl] - 1
			update[lvl].next[lvl] = node.next[lvl]
		} else {
			update[lvl].span[lvl]--
		}
	}

	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		atomic.AddInt32(&sl.level, -1)
	}

	atomic.AddInt32(&sl.length, -1)
}

// GetRank returns playerID's 1-indexed rank (1 = largest territory), or 0
// if they aren't currently ranked.
func (sl *SkipList) GetRank(playerID string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	rank := 0
	cur := sl.head

	for lvl := int(sl.level) - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && cur.next[lvl].entry.Key <= playerID {
			rank += cur.span[lvl]
			cur = cur.next[lvl]
			if cur.entry.Key == playerID {
				return rank
			}
		}
	}

	return 0
}

// GetByRank returns the entry holding a given 1-indexed rank, or nil if
// rank is out of range.
func (sl *SkipList) GetByRank(rank int) *SkipListEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if rank <= 0 || rank > int(sl.length) {
		return nil
	}

	traversed := 0
	cur := sl.head

	for lvl := int(sl.level) - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && traversed+cur.span[lvl] <= rank {
			traversed += cur.span[lvl]
			cur = cur.next[lvl]
		}
		if traversed == rank {
			return &cur.entry
		}
	}

	return nil
}

// GetRange returns entries ranked [start, end] inclusive (1-indexed),
// the slice GetTop/GetAroundPlayer in Leaderboard build on.
func (sl *SkipList) GetRange(start, end int) []SkipListEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start <= 0 {
		start = 1
	}
	if end > int(sl.length) {
		end = int(sl.length)
	}
	if start > end {
		return nil
	}

	result := make([]SkipListEntry, 0, end-start+1)

	traversed := 0
	cur := sl.head

	for lvl := int(sl.level) - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && traversed+cur.span[lvl] < start {
			traversed += cur.span[lvl]
			cur = cur.next[lvl]
		}
	}

	cur = cur.next[0]
	for cur != nil && traversed < end {
		traversed++
		if traversed >= start {
			result = append(result, cur.entry)
		}
		cur = cur.next[0]
	}

	return result
}

// GetScore returns playerID's current tracked score (territory area) and
// whether they are currently ranked at all.
func (sl *SkipList) GetScore(playerID string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	cur := sl.head
	for lvl := int(sl.level) - 1; lvl >= 0; lvl-- {
		for cur.next[lvl] != nil && cur.next[lvl].entry.Key < playerID {
			cur = cur.next[lvl]
		}
	}

	cur = cur.next[0]
	if cur != nil && cur.entry.Key == playerID {
		return cur.entry.Score, true
	}
	return 0, false
}

// Length returns how many players are currently ranked.
func (sl *SkipList) Length() int {
	return int(atomic.LoadInt32(&sl.length))
}

// Clear empties the ranking, e.g. when a room resets between matches.
func (sl *SkipList) Clear() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for lvl := range sl.head.next {
		sl.head.next[lvl] = nil
		sl.head.span[lvl] = 0
	}
	atomic.StoreInt32(&sl.level, 1)
	atomic.StoreInt32(&sl.length, 0)
}

// ForEach walks every ranked player from largest to smallest territory,
// stopping early if fn returns false.
func (sl *SkipList) ForEach(fn func(rank int, entry SkipListEntry) bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	rank := 0
	cur := sl.head.next[0]
	for cur != nil {
		rank++
		if !fn(rank, cur.entry) {
			break
		}
		cur = cur.next[0]
	}
}
