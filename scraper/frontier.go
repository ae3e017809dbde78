package scraper

import (
	"sync"

	"github.com/aluiziolira/go-scrape-chunk/catalog"
)

type taskKind int

const (
	productTask taskKind = iota
	listingTask
)

func (k taskKind) String() string {
	if k == productTask {
		return "product"
	}
	return "listing"
}

// task is one page fetch. Listing tasks carry the page number of their
// category; product tasks carry the category that discovered them.
type task struct {
	kind     taskKind
	url      string
	category catalog.Category
	page     int
	attempt  int

	// Set while the request is handled by the worker that owns the task.
	status  int
	sinkErr error
}

// frontier is the crawl queue. Product fetches always leave before listing
// fetches, so the products of a listing page are dispatched ahead of the
// next page of that category. pending counts queued, in-flight and
// retry-held tasks; Next reports false once it drops to zero.
type frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	products []*task
	listings []*task
	pending  int
	closed   bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push queues a new task.
func (f *frontier) Push(t *task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.pending++
	f.enqueueLocked(t)
}

// Next blocks until a task is available, the crawl is drained, or the
// frontier is closed.
func (f *frontier) Next() (*task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if f.closed {
			return nil, false
		}
		if len(f.products) > 0 {
			t := f.products[0]
			f.products[0] = nil
			f.products = f.products[1:]
			return t, true
		}
		if len(f.listings) > 0 {
			t := f.listings[0]
			f.listings[0] = nil
			f.listings = f.listings[1:]
			return t, true
		}
		if f.pending == 0 {
			return nil, false
		}
		f.cond.Wait()
	}
}

// Done marks a task returned by Next as finished.
func (f *frontier) Done() {
	f.release()
}

// Close stops the crawl: waiting workers wake up and queued tasks are
// dropped.
func (f *frontier) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Pending returns the number of unfinished tasks.
func (f *frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// hold reserves a pending slot for a task that will be queued later.
func (f *frontier) hold() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.pending++
	return true
}

// pushHeld queues a task whose slot was reserved with hold.
func (f *frontier) pushHeld(t *task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.enqueueLocked(t)
}

func (f *frontier) release() {
	f.mu.Lock()
	f.pending--
	drained := f.pending <= 0
	f.mu.Unlock()
	if drained {
		f.cond.Broadcast()
	}
}

func (f *frontier) enqueueLocked(t *task) {
	if t.kind == productTask {
		f.products = append(f.products, t)
	} else {
		f.listings = append(f.listings, t)
	}
	f.cond.Signal()
}
