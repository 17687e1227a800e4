package alert

import (
	"bytes"
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/metrics"
	"ticket-price-tracker/internal/types"
)

// ErrCycleInProgress is returned by RunCycle while another cycle is running.
var ErrCycleInProgress = errors.New("price check cycle already running")

// Store reads watch items and applies price updates.
type Store interface {
	ListWatchItems(ctx context.Context) ([]types.WatchItem, error)
	UpdateWatchItem(ctx context.Context, id int64, u types.PriceUpdate) error
}

// Fetcher produces the current best quote for a ticket page. ok is false
// when no usable price was found.
type Fetcher interface {
	FetchQuote(ctx context.Context, url string) (quote types.Quote, ok bool)
}

// Notifier delivers price drop notifications.
type Notifier interface {
	Notify(ctx context.Context, n types.Notification) error
}

// CycleReport summarises one sweep over the watchlist.
type CycleReport struct {
	Items        int
	NoQuote      int
	Unchanged    int
	Updated      int
	Notified     int
	NotifyFailed int
	Gone         int
	Failed       int
	Duration     time.Duration
}

// Service polls every watch item on a fixed interval.
type Service struct {
	store    Store
	fetcher  Fetcher
	notifier Notifier
	metrics  *metrics.Metrics
	interval time.Duration

	// cycleMu is held for the whole duration of a cycle; ticks that cannot
	// acquire it are skipped.
	cycleMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the monitor. interval defaults to one minute.
func NewService(store Store, fetcher Fetcher, notifier Notifier, m *metrics.Metrics, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Service{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		metrics:  m,
		interval: interval,
	}
}

// Start launches the ticker. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)

	log.Infof("🚀 Price monitor started, checking every %s.", s.interval)
}

// Stop cancels the ticker and waits for an in-flight cycle to return.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	log.Info("Price monitor stopped.")
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Ticks fire on wall-clock time, not after the previous cycle.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.tick(ctx)
			}()
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	report, err := s.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		s.metrics.CyclesSkipped.Inc()
		log.Warn("⏭️ Previous price check still running, skipping this tick.")
	case err != nil:
		log.Errorf("❌ Price check cycle failed: %v", err)
	default:
		log.Debugf("✅ Price check completed: %+v", report)
	}
}

// RunCycle checks every watch item once, in the order the store returns
// them. Failures of single items are logged and do not stop the sweep.
func (s *Service) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	if !s.cycleMu.TryLock() {
		return report, ErrCycleInProgress
	}
	defer s.cycleMu.Unlock()

	start := time.Now()
	log.Debug("🔄 Checking ticket prices...")

	items, err := s.store.ListWatchItems(ctx)
	if err != nil {
		return report, errors.Wrap(err, "could not list watch items")
	}
	report.Items = len(items)
	s.metrics.WatchItems.Set(float64(len(items)))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, errors.Wrap(err, "price check cycle interrupted")
		}
		s.checkItem(ctx, item, &report)
	}

	report.Duration = time.Since(start)
	s.metrics.CyclesCompleted.Inc()
	return report, nil
}

func (s *Service) checkItem(ctx context.Context, item types.WatchItem, report *CycleReport) {
	logger := log.WithFields(log.Fields{"id": item.ID, "concert": item.ConcertName})

	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			logger.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
			report.Failed++
			s.metrics.ItemsFailed.Inc()
		}
	}()

	quote, ok := s.fetcher.FetchQuote(ctx, item.TicketURL)
	if !ok {
		report.NoQuote++
		s.metrics.QuotesMissing.Inc()
		logger.Info("⚠️ No price found this cycle")
		return
	}
	s.metrics.QuotesFetched.Inc()
	logger.Infof("Scraped price: %.2f %s", quote.Price, quote.Link)

	d := Evaluate(item, quote)
	if d.Outcome == OutcomeUnchanged {
		report.Unchanged++
		return
	}

	if err := s.store.UpdateWatchItem(ctx, item.ID, d.Update); err != nil {
		if errors.Is(err, types.ErrWatchItemNotFound) {
			report.Gone++
			logger.Info("Watch item was removed during the cycle")
			return
		}
		report.Failed++
		s.metrics.ItemsFailed.Inc()
		logger.Errorf("❌ Failed to save %s price: %v", d.Outcome, err)
		return
	}
	report.Updated++

	if d.Notification == nil {
		return
	}
	if err := s.notifier.Notify(ctx, *d.Notification); err != nil {
		report.NotifyFailed++
		s.metrics.NotificationsFailed.Inc()
		logger.Errorf("❌ Failed to send price drop notification: %v", err)
		return
	}
	report.Notified++
	s.metrics.NotificationsSent.Inc()
	logger.Infof("✅ Price drop notification sent to %s", item.Email)
}
