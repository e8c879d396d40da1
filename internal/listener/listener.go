// Package listener applies delivered Event Records to a queue at most once
// per submission id, whichever channel delivers first.
package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/metrics"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

const (
	defaultCacheSize = 10000
	defaultCacheTTL  = time.Hour
)

// Queue receives pushed records. The debug flag is already stripped.
type Queue interface {
	Push(ctx context.Context, record datalayer.EventRecord, channel datalayer.Channel) error
}

// QueueFunc adapts a function to Queue.
type QueueFunc func(ctx context.Context, record datalayer.EventRecord, channel datalayer.Channel) error

func (f QueueFunc) Push(ctx context.Context, record datalayer.EventRecord, channel datalayer.Channel) error {
	return f(ctx, record, channel)
}

// Listener owns the set of already pushed submission ids. Each id moves
// from unseen to pushed once and never back, until the cache entry expires.
type Listener struct {
	queue  Queue
	log    logger.Logger
	mu     sync.Mutex
	pushed *expirable.LRU[string, time.Time]
	now    func() time.Time
}

type Option func(*Listener)

func WithClock(now func() time.Time) Option {
	return func(l *Listener) {
		l.now = now
	}
}

func New(queue Queue, log logger.Logger, size int, ttl time.Duration, opts ...Option) *Listener {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	l := &Listener{
		queue:  queue,
		log:    log,
		pushed: expirable.NewLRU[string, time.Time](size, nil, ttl),
		now:    utils.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Deliver pushes record unless its submission id was already pushed. It
// reports whether this call did the push. A record without a submission id
// gets a temporary one and so never matches a later delivery.
func (l *Listener) Deliver(ctx context.Context, record *datalayer.EventRecord, channel datalayer.Channel) (bool, error) {
	span, ctx := tracing.StartTracerSpan(ctx, "Listener.Deliver")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)
	span.LogFields(log.String("channel", string(channel)))

	if record == nil {
		return false, nil
	}

	id := record.SubmissionID
	if id == "" {
		id = fmt.Sprintf("temp_%d", l.now().UnixMilli())
	}
	tracing.TagEntity(span, id)

	l.mu.Lock()
	if l.pushed.Contains(id) {
		l.mu.Unlock()
		l.log.Debugf("submission %s already pushed, ignoring %s delivery", id, channel)
		metrics.DuplicatePushesTotal.WithLabelValues(string(channel)).Inc()
		return false, nil
	}
	l.pushed.Add(id, l.now())
	l.mu.Unlock()

	debug := record.Debug
	stripped := record.Stripped()
	stripped.SubmissionID = id

	if err := l.queue.Push(ctx, stripped, channel); err != nil {
		l.pushed.Remove(id)
		tracing.TraceErr(span, err)
		return false, err
	}

	metrics.PushesTotal.WithLabelValues(string(channel)).Inc()
	if debug {
		l.log.Infof("dataLayer push via %s: %+v", channel, stripped)
	}
	return true, nil
}

// Pushed reports whether id is in the pushed set.
func (l *Listener) Pushed(id string) bool {
	return l.pushed.Contains(id)
}
