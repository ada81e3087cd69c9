package service

import (
	"context"
	"sync"

	"rate-history-service/internal/domain/model"
	"rate-history-service/internal/domain/ports"
	"rate-history-service/internal/metrics"
	"rate-history-service/pkg/logger"
)

// QueryController is the stateful façade a presentation layer drives. It owns
// one consumer session's query state, runs an aggregation per change, and
// guarantees that only the most recently started run can commit its result:
// a slow earlier run that completes after a newer one has started is
// discarded without touching the observed state.
//
// States follow Idle → Loading → {Ready, Failed}; a new OnQueryChange while
// Loading is permitted and supersedes the in-flight run.
type QueryController struct {
	service ports.RateService
	log     *logger.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mutex       sync.Mutex
	seq         uint64
	closed      bool
	result      model.QueryResult
	pending     []model.QueryResult
	wake        chan struct{}
	subscribers map[uint64]func(model.QueryResult)
	nextSubID   uint64
}

func NewQueryController(service ports.RateService, log *logger.Logger, m *metrics.Metrics) *QueryController {
	ctx, cancel := context.WithCancel(context.Background())

	c := &QueryController{
		service:     service,
		log:         log,
		metrics:     m,
		ctx:         ctx,
		cancel:      cancel,
		wake:        make(chan struct{}, 1),
		subscribers: make(map[uint64]func(model.QueryResult)),
	}

	go c.dispatch()

	return c
}

// OnQueryChange starts a new aggregation run for state. An empty base
// currency or empty target list is declined silently: the controller stays
// in its current state and no fetch is issued.
func (c *QueryController) OnQueryChange(state model.QueryState) {
	if state.BaseCurrency == "" || len(state.TargetCurrencies) == 0 {
		return
	}

	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return
	}

	c.seq++
	run := c.seq
	c.result = model.QueryResult{
		Rows:      c.result.Rows,
		IsLoading: true,
	}
	c.metrics.QueryChangesTotal.Inc()
	c.enqueueLocked(c.result)
	c.mutex.Unlock()

	go c.runQuery(run, state)
}

func (c *QueryController) runQuery(run uint64, state model.QueryState) {
	table, err := c.service.BuildTable(c.ctx, state.BaseCurrency, state.TargetCurrencies, state.ReferenceDate)

	c.mutex.Lock()
	if c.closed || run != c.seq {
		c.mutex.Unlock()
		c.log.Debug("Discarding superseded query result", "run", run)
		return
	}

	if err != nil {
		c.result = model.QueryResult{
			Rows:  []model.RateRow{},
			Error: err.Error(),
		}
	} else {
		c.result = model.QueryResult{
			Rows: table.Rows,
		}
	}

	c.enqueueLocked(c.result)
	c.mutex.Unlock()
}

// Result returns the currently observable state.
func (c *QueryController) Result() model.QueryResult {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.result
}

// Subscribe registers fn to be called on every state commit. The returned
// function unsubscribes.
func (c *QueryController) Subscribe(fn func(model.QueryResult)) func() {
	c.mutex.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mutex.Unlock()

	return func() {
		c.mutex.Lock()
		delete(c.subscribers, id)
		c.mutex.Unlock()
	}
}

// Close tears the session down; in-flight runs complete but their results
// are discarded.
func (c *QueryController) Close() {
	c.mutex.Lock()
	c.closed = true
	c.subscribers = make(map[uint64]func(model.QueryResult))
	c.mutex.Unlock()

	c.cancel()
}

// enqueueLocked appends a committed state to the delivery queue; callers hold
// the state mutex, so queue order is commit order.
func (c *QueryController) enqueueLocked(result model.QueryResult) {
	c.pending = append(c.pending, result)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dispatch delivers queued states to subscribers one at a time, in commit
// order, holding no locks during the callbacks. Observers therefore never see
// a newer run's Loading transition before an older commit.
func (c *QueryController) dispatch() {
	for {
		select {
		case <-c.wake:
		case <-c.ctx.Done():
			return
		}

		for {
			c.mutex.Lock()
			if len(c.pending) == 0 {
				c.mutex.Unlock()
				break
			}
			result := c.pending[0]
			c.pending = c.pending[1:]

			subscribers := make([]func(model.QueryResult), 0, len(c.subscribers))
			for _, fn := range c.subscribers {
				subscribers = append(subscribers, fn)
			}
			c.mutex.Unlock()

			for _, fn := range subscribers {
				fn(result)
			}
		}
	}
}
