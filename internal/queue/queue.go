// Package queue moves email jobs from the API to the worker through redis.
//
// Ready jobs live in a list (LPUSH/BRPOP). Jobs waiting for a retry live in a
// sorted set scored by their due time and are moved back onto the list by
// PromoteDue. Jobs that used up their attempts go to a dead-letter list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/queue/redisclient"
	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Dequeue when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue empty")

type Queue struct {
	rdb *redis.Client
	now func() time.Time

	readyKey   string
	delayedKey string
	deadKey    string
}

func New(c *redisclient.Client, name string) *Queue {
	if name == "" {
		name = "tourhub:emails"
	}

	return &Queue{
		rdb:        c.Raw(),
		now:        time.Now,
		readyKey:   name + ":ready",
		delayedKey: name + ":delayed",
		deadKey:    name + ":dead",
	}
}

func (q *Queue) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.rdb.LPush(ctx, q.readyKey, b).Err()
}

// Dequeue blocks up to timeout for the next ready job.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.readyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, ErrEmpty
		}
		return jobs.Job{}, err
	}

	// BRPOP answers [key, value]
	if len(res) != 2 {
		return jobs.Job{}, fmt.Errorf("unexpected BRPOP reply: %v", res)
	}

	var j jobs.Job
	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return jobs.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return j, nil
}

// Retry schedules j to become ready again after delay.
func (q *Queue) Retry(ctx context.Context, j jobs.Job, delay time.Duration) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	due := q.now().Add(delay).UnixMilli()
	return q.rdb.ZAdd(ctx, q.delayedKey, redis.Z{Score: float64(due), Member: b}).Err()
}

func (q *Queue) DeadLetter(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.rdb.LPush(ctx, q.deadKey, b).Err()
}

// PromoteDue moves every delayed job whose time has come onto the ready list.
// Several workers may race here; ZREM decides which one moves a given job.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	max := strconv.FormatInt(q.now().UnixMilli(), 10)

	due, err := q.rdb.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: 100,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := q.rdb.ZRem(ctx, q.delayedKey, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}

		if err := q.rdb.LPush(ctx, q.readyKey, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}

	return moved, nil
}

type Depth struct {
	Ready   int64 `json:"ready"`
	Delayed int64 `json:"delayed"`
	Dead    int64 `json:"dead"`
}

func (q *Queue) Depth(ctx context.Context) (Depth, error) {
	pipe := q.rdb.Pipeline()
	ready := pipe.LLen(ctx, q.readyKey)
	delayed := pipe.ZCard(ctx, q.delayedKey)
	dead := pipe.LLen(ctx, q.deadKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return Depth{}, err
	}

	return Depth{Ready: ready.Val(), Delayed: delayed.Val(), Dead: dead.Val()}, nil
}
