package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Gopher0727/MessageBoard/internal/model"
	"github.com/Gopher0727/MessageBoard/internal/utils"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

type EventType string

const (
	EventMessageCreated EventType = "message.created"
	EventMessageDeleted EventType = "message.deleted"
	EventMessageLiked   EventType = "message.liked"
	EventMessageUnliked EventType = "message.unliked"
)

// Event 留言相关的领域事件
type Event struct {
	Type       EventType      `json:"type"`
	MessageID  uint           `json:"message_id"`
	ActorID    string         `json:"actor_id"`
	AuthorID   string         `json:"author_id"`
	Message    *model.Message `json:"message,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventPublisher is implemented by the Kafka producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// EventDispatcher 将事件提交到协程池异步投递，投递失败只记录日志
type EventDispatcher struct {
	publisher EventPublisher
	pool      *utils.WorkerPool
	logger    *logger.Logger
	timeout   time.Duration
}

// NewEventDispatcher returns a dispatcher; a nil publisher disables publishing.
func NewEventDispatcher(publisher EventPublisher, pool *utils.WorkerPool, log *logger.Logger) *EventDispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventDispatcher{
		publisher: publisher,
		pool:      pool,
		logger:    log,
		timeout:   5 * time.Second,
	}
}

func (d *EventDispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil || d.publisher == nil {
		return
	}
	ev.TraceID = logger.GetTraceID(ctx)
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	// 请求结束后 ctx 会被取消，这里只保留其中的值
	base := context.WithoutCancel(ctx)
	job := func() {
		pubCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		if err := d.publisher.Publish(pubCtx, strconv.FormatUint(uint64(ev.MessageID), 10), ev); err != nil {
			d.logger.WarnContext(base, "failed to publish event",
				zap.String("type", string(ev.Type)),
				zap.Uint("message_id", ev.MessageID),
				zap.Error(err),
			)
		}
	}

	if d.pool == nil {
		job()
		return
	}
	if err := d.pool.TrySubmit(job); err != nil {
		d.logger.WarnContext(ctx, "event dropped",
			zap.String("type", string(ev.Type)),
			zap.Uint("message_id", ev.MessageID),
			zap.Error(err),
		)
	}
}
