package jobs

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	giInterfaces "github.com/veloxpay/gateway-integration/interfaces"
	giModels "github.com/veloxpay/gateway-integration/models"
	giStorage "github.com/veloxpay/gateway-integration/storage"
)

const (
	DefaultQueue = "default"

	queueKeyPrefix = "gateway:jobs:"
	scheduledKey   = "gateway:jobs:scheduled"
)

// jobEnvelope is the wire form of a queued job. Attempt counts completed
// runs, so a fresh job carries 0.
type jobEnvelope struct {
	ID         string               `json:"id"`
	Attempt    int                  `json:"attempt"`
	EnqueuedAt time.Time            `json:"enqueued_at"`
	Job        *giModels.JobRequest `json:"job"`
}

func (e *jobEnvelope) queueName() string {
	if e.Job == nil || e.Job.Queue == "" {
		return DefaultQueue
	}
	return e.Job.Queue
}

// Queue is a redis-backed job queue. Immediate jobs live in per-queue lists,
// delayed jobs in one sorted set scored by their due time; PollDue moves due
// jobs over to their list.
type Queue struct {
	rdb *redis.Client
}

var _ giInterfaces.Enqueuer = &Queue{}

func NewQueue(instance *giStorage.RedisInstance) *Queue {
	return &Queue{rdb: instance.RDB}
}

func (q *Queue) Enqueue(ctx context.Context, job *giModels.JobRequest) error {
	if job == nil || job.Name == "" {
		return eris.New("job request without a name")
	}

	env := &jobEnvelope{
		ID:         uuid.NewString(),
		EnqueuedAt: time.Now().UTC(),
		Job:        job,
	}
	return q.push(ctx, env, time.Duration(job.Delay)*time.Second)
}

func (q *Queue) push(ctx context.Context, env *jobEnvelope, delay time.Duration) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return eris.Wrap(err, "marshalling job envelope")
	}

	if delay > 0 {
		err = q.rdb.ZAdd(ctx, scheduledKey, redis.Z{
			Score:  float64(time.Now().Add(delay).Unix()),
			Member: raw,
		}).Err()
		if err != nil {
			return eris.Wrapf(err, "scheduling job %s", env.Job.Name)
		}
		return nil
	}

	if err := q.rdb.LPush(ctx, queueKey(env.queueName()), raw).Err(); err != nil {
		return eris.Wrapf(err, "enqueueing job %s", env.Job.Name)
	}
	return nil
}

// PollDue moves every scheduled job whose due time has passed onto its queue
// list. Safe to call from multiple workers; a job moved twice would be run
// twice, which at-least-once delivery already permits.
func (q *Queue) PollDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	members, err := q.rdb.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return eris.Wrap(err, "listing due jobs")
	}

	for _, raw := range members {
		var env jobEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			// Unreadable entries would block the schedule forever, drop them.
			q.rdb.ZRem(ctx, scheduledKey, raw)
			continue
		}

		pipe := q.rdb.TxPipeline()
		pipe.LPush(ctx, queueKey(env.queueName()), raw)
		pipe.ZRem(ctx, scheduledKey, raw)
		if _, err := pipe.Exec(ctx); err != nil {
			return eris.Wrapf(err, "promoting due job %s", env.ID)
		}
	}
	return nil
}

// Dequeue blocks up to timeout for the next job on the given queue. A nil
// envelope with a nil error means the timeout elapsed without work.
func (q *Queue) Dequeue(ctx context.Context, queue string, timeout time.Duration) (*jobEnvelope, error) {
	res, err := q.rdb.BRPop(ctx, timeout, queueKey(queue)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "dequeueing from %s", queue)
	}
	if len(res) != 2 {
		return nil, eris.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	var env jobEnvelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		return nil, eris.Wrap(err, "unmarshalling job envelope")
	}
	return &env, nil
}

func (q *Queue) retry(ctx context.Context, env *jobEnvelope) error {
	env.Attempt++
	return q.push(ctx, env, retryDelay(env.Attempt))
}

// retryDelay backs off linearly per attempt, capped at five minutes.
func retryDelay(attempt int) time.Duration {
	d := time.Duration(attempt) * 30 * time.Second
	if d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}

func queueKey(queue string) string {
	return queueKeyPrefix + queue
}
