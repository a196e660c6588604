package crawler

import (
	"container/heap"
	"context"
	"sync"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// Frontier is a thread-safe breadth-first queue of admitted requests.
// Requests come out by depth, then by admission order.
type Frontier struct {
	mu     sync.Mutex
	pq     priorityQueue
	cond   *sync.Cond
	closed bool
}

// NewFrontier creates a new Frontier.
func NewFrontier() *Frontier {
	f := &Frontier{
		pq: make(priorityQueue, 0, 64),
	}
	f.cond = sync.NewCond(&f.mu)
	heap.Init(&f.pq)
	return f
}

// Push adds a request to the frontier.
func (f *Frontier) Push(req *types.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	heap.Push(&f.pq, &pqItem{request: req})
	f.cond.Signal()
}

// Pop removes and returns the next request. It blocks until a request is
// available, the frontier is closed, or ctx is done; in the latter two
// cases it returns nil.
func (f *Frontier) Pop(ctx context.Context) *types.Request {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for f.pq.Len() == 0 && !f.closed && ctx.Err() == nil {
		f.cond.Wait()
	}
	if ctx.Err() != nil || f.pq.Len() == 0 {
		return nil
	}
	return heap.Pop(&f.pq).(*pqItem).request
}

// Len returns the number of requests in the frontier.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pq.Len()
}

// Close closes the frontier, unblocking any waiting Pop calls.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

type pqItem struct {
	request *types.Request
	index   int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i].request, pq[j].request
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.Seq < b.Seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pqItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
