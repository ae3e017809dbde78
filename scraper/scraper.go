package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-scrape-chunk/catalog"
	"github.com/aluiziolira/go-scrape-chunk/config"
	"github.com/aluiziolira/go-scrape-chunk/document"
	"github.com/aluiziolira/go-scrape-chunk/extract"
	"github.com/aluiziolira/go-scrape-chunk/models"
)

const (
	taskKey  = "task"
	startKey = "start"

	productLinkSelector = "section.product-grid a[href]"
	nextPageSelector    = ".pagination a[rel='next']"
)

// ErrAlreadyRun is returned when Run is called a second time. Every run
// starts from an empty visited set, so a new run needs a new Scraper.
var ErrAlreadyRun = errors.New("scraper: already run")

// ErrInterrupted wraps the context error when a run stops because its
// context ended. The partial result is still returned.
var ErrInterrupted = errors.New("scraper: crawl interrupted")

// Sink receives every assembled product record exactly once.
type Sink interface {
	Process(records ...*models.ProductRecord) error
}

// Scraper walks the selected category listings and turns every newly
// discovered product page into a record for the sink.
type Scraper struct {
	cfg        *config.Config
	base       *url.URL
	categories []catalog.Category
	collector  *colly.Collector
	frontier   *frontier
	visited    *VisitedSet
	retry      *retryManager
	assembler  *extract.Assembler
	Metrics    *Metrics

	sink Sink
	ran  atomic.Bool

	requestCount   int64
	pageCount      int64
	errorCount     int64
	productCount   int64
	duplicateCount int64

	mu              sync.Mutex
	failedURLs      []string
	errorsByType    map[string]int
	pagesByCategory map[string]int

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg. The category
// filter is resolved here, so an unusable filter fails before any request.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	categories, err := catalog.Resolve(cfg.Categories)
	if err != nil {
		return nil, err
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(newDecodingTransport(&http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}))

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	s := &Scraper{
		cfg:             cfg,
		base:            parsed,
		categories:      categories,
		collector:       collector,
		frontier:        newFrontier(),
		visited:         NewVisitedSet(),
		assembler:       extract.NewAssembler(),
		errorsByType:    make(map[string]int),
		pagesByCategory: make(map[string]int),
		Metrics:         NewMetrics(),
	}
	s.retry = newRetryManager(s.frontier, cfg, s.Metrics)
	return s, nil
}

// Categories returns the categories this scraper will walk.
func (s *Scraper) Categories() []catalog.Category {
	out := make([]catalog.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Visited exposes the product paths discovered so far.
func (s *Scraper) Visited() *VisitedSet {
	return s.visited
}

// Run crawls until every listing has reached its last page and every
// discovered product has been fetched, or until ctx is cancelled. Failed
// requests are logged and recorded in the result; they do not stop the run.
// A cancelled run returns its partial result with an ErrInterrupted error.
func (s *Scraper) Run(ctx context.Context, sink Sink) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	s.sink = sink
	s.retry.SetContext(ctx)
	s.configureHandlers()

	start := time.Now()
	for _, c := range s.categories {
		s.frontier.Push(&task{
			kind:     listingTask,
			url:      s.categoryURL(c),
			category: c,
			page:     1,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, s.frontier.Close)
	defer stop()

	for i := 0; i < s.cfg.Parallelism; i++ {
		g.Go(func() error {
			return s.work()
		})
	}
	err := g.Wait()
	s.retry.Stop()

	result := &models.CrawlResult{
		StartTime:          start,
		EndTime:            time.Now(),
		TotalCount:         int(atomic.LoadInt64(&s.productCount)),
		ErrorCount:         int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:         s.snapshotFailedURLs(),
		ErrorsByType:       s.snapshotErrors(),
		RetryCount:         s.retry.TotalRetries(),
		RequestCount:       int(atomic.LoadInt64(&s.requestCount)),
		PageCount:          int(atomic.LoadInt64(&s.pageCount)),
		PagesByCategory:    s.snapshotPages(),
		ProductsDiscovered: s.visited.Len(),
		DuplicateLinks:     int(atomic.LoadInt64(&s.duplicateCount)),
	}
	if err != nil {
		return result, fmt.Errorf("crawl aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return result, nil
}

// sameHost reports whether ref points at the host the page was served from.
func sameHost(page *url.URL, ref string) bool {
	if page == nil {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, page.Host)
}

func (s *Scraper) categoryURL(c catalog.Category) string {
	return s.base.ResolveReference(&url.URL{Path: c.Path()}).String()
}

// work drains the frontier. Each request is synchronous, so a page is
// parsed and its follow-up tasks queued before the task is marked done.
func (s *Scraper) work() error {
	for {
		t, ok := s.frontier.Next()
		if !ok {
			return nil
		}

		ctx := colly.NewContext()
		ctx.Put(taskKey, t)
		if err := s.collector.Request(http.MethodGet, t.url, nil, ctx, nil); err != nil {
			s.handleFailure(t, err)
		}
		s.frontier.Done()

		if t.sinkErr != nil {
			return t.sinkErr
		}
	}
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put(startKey, time.Now())
			current := atomic.AddInt64(&s.requestCount, 1)
			if t, ok := r.Ctx.GetAny(taskKey).(*task); ok && s.Metrics != nil {
				s.Metrics.IncRequest(t.kind.String())
			}
			if current%50 == 0 {
				slog.Debug("crawler request progress",
					slog.Int64("requests", current),
					slog.Int64("pages", atomic.LoadInt64(&s.pageCount)),
					slog.String("url", r.URL.String()),
				)
			}
		})

		s.collector.OnResponse(func(r *colly.Response) {
			if s.Metrics != nil {
				if start, ok := r.Ctx.GetAny(startKey).(time.Time); ok {
					s.Metrics.ObserveDuration(time.Since(start))
				}
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			if r == nil || r.Ctx == nil {
				return
			}
			if t, ok := r.Ctx.GetAny(taskKey).(*task); ok {
				t.status = r.StatusCode
			}
		})

		s.collector.OnHTML("html", func(e *colly.HTMLElement) {
			t, ok := e.Request.Ctx.GetAny(taskKey).(*task)
			if !ok {
				return
			}
			doc := document.FromSelection(e.DOM, e.Request.URL)
			switch t.kind {
			case listingTask:
				s.handleListing(doc, t)
			case productTask:
				s.handleProduct(doc, t)
			}
		})
	})
}

// handleListing queues a product fetch for every product link not seen
// before in this run, then the next listing page while the category is
// under its page budget.
func (s *Scraper) handleListing(doc document.Document, t *task) {
	atomic.AddInt64(&s.pageCount, 1)
	label := t.category.Label()
	s.mu.Lock()
	s.pagesByCategory[label]++
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.IncListingPage(label)
	}

	found, skipped := 0, 0
	for _, a := range doc.Find(productLinkSelector) {
		href, _ := a.Attr("href")
		abs := doc.AbsoluteURL(href)
		if !sameHost(doc.URL(), abs) {
			continue
		}
		path, ok := extract.ProductPath(abs)
		if !ok {
			continue
		}
		if !s.visited.TryAdd(path) {
			skipped++
			if s.Metrics != nil {
				s.Metrics.IncDuplicate()
			}
			continue
		}
		found++
		s.frontier.Push(&task{
			kind:     productTask,
			url:      doc.AbsoluteURL(path),
			category: t.category,
		})
	}
	atomic.AddInt64(&s.duplicateCount, int64(skipped))

	slog.Debug("listing page parsed",
		slog.String("category", label),
		slog.Int("page", t.page),
		slog.Int("new_products", found),
		slog.Int("already_seen", skipped),
	)

	if t.page >= s.cfg.MaxPages {
		return
	}
	next, ok := document.FirstAttr(doc.Find(nextPageSelector), "href")
	if !ok || strings.TrimSpace(next) == "" {
		return
	}
	s.frontier.Push(&task{
		kind:     listingTask,
		url:      doc.AbsoluteURL(next),
		category: t.category,
		page:     t.page + 1,
	})
}

func (s *Scraper) handleProduct(doc document.Document, t *task) {
	record := s.assembler.Assemble(doc, t.category.Label())
	atomic.AddInt64(&s.productCount, 1)
	if s.Metrics != nil {
		s.Metrics.IncProducts()
	}
	if s.sink == nil {
		return
	}
	if err := s.sink.Process(record); err != nil {
		slog.Error("sink process error",
			slog.String("url", record.ProductURL),
			slog.Any("error", err),
		)
		t.sinkErr = err
	}
}

// handleFailure classifies a failed request, retries it when the failure
// is transient, and otherwise records the URL as failed.
func (s *Scraper) handleFailure(t *task, err error) {
	atomic.AddInt64(&s.errorCount, 1)
	classified := classifyError(err, t.status)
	label := errorTypeLabel(classified)

	s.mu.Lock()
	s.errorsByType[label]++
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.IncError(label)
	}

	slog.Error("request error",
		slog.String("url", t.url),
		slog.String("kind", t.kind.String()),
		slog.String("category", t.category.Label()),
		slog.String("error_type", label),
		slog.Int("attempt", t.attempt),
		slog.Any("error", err),
	)

	if retryable(label) && s.retry.Schedule(t) {
		return
	}
	s.mu.Lock()
	s.failedURLs = append(s.failedURLs, t.url)
	s.mu.Unlock()
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

func (s *Scraper) snapshotPages() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.pagesByCategory))
	for k, v := range s.pagesByCategory {
		out[k] = v
	}
	return out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, colly.ErrRobotsTxtBlocked) {
		return ErrRobotsBlocked{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case statusCode == http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode >= http.StatusInternalServerError:
			return ErrServer{Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
