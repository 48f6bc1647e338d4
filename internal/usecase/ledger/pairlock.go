package ledger

import (
	"hash/fnv"
	"sort"
	"sync"
)

// pairLocks serializes ledger mutations per user pair. The key is the
// sorted pair, so A->B and B->A transfers contend on the same lock while
// unrelated pairs proceed in parallel. Striping keeps the lock table
// bounded regardless of how many pairs exist.
const numStripes = 64

type pairLocks struct {
	stripes [numStripes]sync.Mutex
}

// pairKey returns the canonical key for a user pair, independent of
// direction.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

func (l *pairLocks) lock(key string) *sync.Mutex {
	mu := &l.stripes[stripeFor(key)]
	mu.Lock()
	return mu
}

// lockAll locks the stripes for every given pair key and returns an unlock
// func. Stripes are deduplicated and locked in index order so two callers
// holding overlapping key sets cannot deadlock.
func (l *pairLocks) lockAll(keys []string) func() {
	seen := make(map[int]bool, len(keys))
	stripes := make([]int, 0, len(keys))
	for _, key := range keys {
		if i := stripeFor(key); !seen[i] {
			seen[i] = true
			stripes = append(stripes, i)
		}
	}
	sort.Ints(stripes)
	for _, i := range stripes {
		l.stripes[i].Lock()
	}
	return func() {
		for j := len(stripes) - 1; j >= 0; j-- {
			l.stripes[stripes[j]].Unlock()
		}
	}
}

func stripeFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % numStripes)
}
