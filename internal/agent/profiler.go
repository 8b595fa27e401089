// In file: internal/agent/profiler.go
package agent

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-agents/internal/version"
)

// latencyAlpha weights the newest run in the moving latency average.
const latencyAlpha = 0.1

// VariantProfile tracks usage, reliability and user ratings for one variant.
type VariantProfile struct {
	Variant          VariantID `json:"variant" redis:"variant"`
	Runs             int64     `json:"runs" redis:"runs"`
	Failures         int64     `json:"failures" redis:"failures"`
	ToolCalls        int64     `json:"tool_calls" redis:"tool_calls"`
	ToolErrors       int64     `json:"tool_errors" redis:"tool_errors"`
	PromptTokens     int64     `json:"prompt_tokens" redis:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens" redis:"completion_tokens"`
	AvgLatencyMS     int64     `json:"avg_latency_ms" redis:"avg_latency_ms"`
	Ratings          int64     `json:"ratings" redis:"ratings"`
	RatingSum        int64     `json:"rating_sum" redis:"rating_sum"`
	LastRun          time.Time `json:"last_run" redis:"last_run"`
}

// AverageRating is the mean of all recorded ratings, or 0 when there are none.
func (p VariantProfile) AverageRating() float64 {
	if p.Ratings == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.Ratings)
}

// ErrorRate is the share of runs that ended in an error.
func (p VariantProfile) ErrorRate() float64 {
	if p.Runs == 0 {
		return 0
	}
	return float64(p.Failures) / float64(p.Runs)
}

// Profiler persists per-variant statistics in Redis. A nil *Profiler, or one
// built without a client, silently records nothing.
type Profiler struct {
	rdb *redis.Client
}

func NewProfiler(rdb *redis.Client) *Profiler {
	return &Profiler{rdb: rdb}
}

// Enabled reports whether statistics are actually stored.
func (p *Profiler) Enabled() bool {
	return p != nil && p.rdb != nil
}

func (p *Profiler) getProfileKey(variant VariantID) string {
	return version.VersionedKey("profile", string(variant))
}

// RecordRun adds one orchestrator run to the variant's profile.
func (p *Profiler) RecordRun(ctx context.Context, variant VariantID, stats RunStats, runErr error) {
	if !p.Enabled() {
		return
	}
	key := p.getProfileKey(variant)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		runs, err := tx.HGet(ctx, key, "runs").Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		currentLatency, err := tx.HGet(ctx, key, "avg_latency_ms").Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		newLatency := stats.Latency.Milliseconds()
		if runs > 0 {
			newLatency = int64(latencyAlpha*float64(stats.Latency.Milliseconds()) + (1.0-latencyAlpha)*float64(currentLatency))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "variant", string(variant), "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating latency for %s: %v", variant, err)
	}

	pipe := p.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "runs", 1)
	if runErr != nil {
		pipe.HIncrBy(ctx, key, "failures", 1)
	}
	pipe.HIncrBy(ctx, key, "tool_calls", int64(stats.ToolCalls))
	pipe.HIncrBy(ctx, key, "tool_errors", int64(stats.ToolErrors))
	pipe.HIncrBy(ctx, key, "prompt_tokens", int64(stats.Usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "completion_tokens", int64(stats.Usage.CompletionTokens))
	pipe.HSet(ctx, key, "last_run", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error in run update pipeline for %s: %v", variant, err)
	}
}

// RecordRating adds one user rating (1-5) to the variant's profile.
func (p *Profiler) RecordRating(ctx context.Context, variant VariantID, rating int) {
	if !p.Enabled() {
		return
	}
	key := p.getProfileKey(variant)
	pipe := p.rdb.Pipeline()
	pipe.HSet(ctx, key, "variant", string(variant))
	pipe.HIncrBy(ctx, key, "ratings", 1)
	pipe.HIncrBy(ctx, key, "rating_sum", int64(rating))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error recording rating for %s: %v", variant, err)
	}
}

// GetProfile reads a variant's profile. A variant with no history yields a
// zero profile, not an error.
func (p *Profiler) GetProfile(ctx context.Context, variant VariantID) (*VariantProfile, error) {
	profile := &VariantProfile{Variant: variant}
	if !p.Enabled() {
		return profile, nil
	}

	data, err := p.rdb.HGetAll(ctx, p.getProfileKey(variant)).Result()
	if err != nil {
		return nil, err
	}
	profile.Runs, _ = strconv.ParseInt(data["runs"], 10, 64)
	profile.Failures, _ = strconv.ParseInt(data["failures"], 10, 64)
	profile.ToolCalls, _ = strconv.ParseInt(data["tool_calls"], 10, 64)
	profile.ToolErrors, _ = strconv.ParseInt(data["tool_errors"], 10, 64)
	profile.PromptTokens, _ = strconv.ParseInt(data["prompt_tokens"], 10, 64)
	profile.CompletionTokens, _ = strconv.ParseInt(data["completion_tokens"], 10, 64)
	profile.AvgLatencyMS, _ = strconv.ParseInt(data["avg_latency_ms"], 10, 64)
	profile.Ratings, _ = strconv.ParseInt(data["ratings"], 10, 64)
	profile.RatingSum, _ = strconv.ParseInt(data["rating_sum"], 10, 64)
	profile.LastRun, _ = time.Parse(time.RFC3339Nano, data["last_run"])
	return profile, nil
}
