package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry records a job that exhausted its retries.
type DLQEntry struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Error    string          `json:"error"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

// SendToDLQ parks a permanently failed job for manual inspection.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, errMsg string, attempts int) {
	entry := DLQEntry{
		Type:     jobType,
		Payload:  payload,
		Error:    errMsg,
		Attempts: attempts,
		FailedAt: time.Now(),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("type", jobType).Msg("failed to marshal DLQ entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, encoded).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to push to DLQ")
		return
	}
	log.Error().
		Str("type", jobType).
		Str("queue", queue).
		Int("attempts", attempts).
		Str("error", errMsg).
		Msg("job sent to DLQ")
}

// DLQLength reports how many jobs are parked in a queue's DLQ.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
