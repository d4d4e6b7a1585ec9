package talon

import (
	"context"
	"fmt"
	"strconv"
)

// -----------------------------------------------------------------------------
// Sorted Set Commands
// -----------------------------------------------------------------------------

// ZMemberScore is a sorted-set member with its score.
type ZMemberScore struct {
	Member []byte
	Score  float64
}

// ZAddOptions refine ZAdd. OnlyIfExists/OnlyIfAbsent and
// GreaterThan/LessThan are each mutually exclusive pairs; Changed switches
// the return value from "added" to "added or updated".
type ZAddOptions struct {
	OnlyIfExists bool
	OnlyIfAbsent bool
	GreaterThan  bool
	LessThan     bool
	Changed      bool
}

func (o ZAddOptions) appendTo(args [][]byte) ([][]byte, error) {
	if o.OnlyIfExists && o.OnlyIfAbsent {
		return nil, fmt.Errorf("zadd: OnlyIfExists and OnlyIfAbsent are mutually exclusive")
	}
	if o.GreaterThan && o.LessThan {
		return nil, fmt.Errorf("zadd: GreaterThan and LessThan are mutually exclusive")
	}
	if o.OnlyIfAbsent && (o.GreaterThan || o.LessThan) {
		return nil, fmt.Errorf("zadd: GT/LT cannot be combined with OnlyIfAbsent")
	}
	if o.OnlyIfExists {
		args = append(args, arg("XX"))
	}
	if o.OnlyIfAbsent {
		args = append(args, arg("NX"))
	}
	if o.GreaterThan {
		args = append(args, arg("GT"))
	}
	if o.LessThan {
		args = append(args, arg("LT"))
	}
	if o.Changed {
		args = append(args, arg("CH"))
	}
	return args, nil
}

// ZAdd adds members with scores and returns the number of new members.
func (c *baseClient) ZAdd(ctx context.Context, key string, members ...ZMemberScore) (int64, error) {
	return c.ZAddWithOptions(ctx, key, ZAddOptions{}, members...)
}

// ZAddWithOptions adds members with conditional options.
func (c *baseClient) ZAddWithOptions(ctx context.Context, key string, opts ZAddOptions, members ...ZMemberScore) (int64, error) {
	args, err := opts.appendTo([][]byte{arg(key)})
	if err != nil {
		return 0, err
	}
	for _, m := range members {
		args = append(args, argFloat(m.Score), m.Member)
	}
	res, err := c.exec(ctx, "ZADD", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZAddIncr increments member's score by delta (ZADD INCR) and returns the
// new score. ok is false when a conditional add did not take effect.
func (c *baseClient) ZAddIncr(ctx context.Context, key string, opts ZAddOptions, member []byte, delta float64) (float64, bool, error) {
	args, err := opts.appendTo([][]byte{arg(key)})
	if err != nil {
		return 0, false, err
	}
	args = append(args, arg("INCR"), argFloat(delta), member)
	res, err := c.exec(ctx, "ZADD", args...)
	if err != nil {
		return 0, false, err
	}
	if res == nil {
		return 0, false, nil
	}
	score, err := toFloat64(res)
	return score, err == nil, err
}

// ZIncrBy increments member's score by delta and returns the new score.
func (c *baseClient) ZIncrBy(ctx context.Context, key string, delta float64, member []byte) (float64, error) {
	res, err := c.exec(ctx, "ZINCRBY", arg(key), argFloat(delta), member)
	if err != nil {
		return 0, err
	}
	return toFloat64(res)
}

// ZRem removes members and returns how many were removed.
func (c *baseClient) ZRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "ZREM", append([][]byte{arg(key)}, members...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZScore returns member's score, with ok=false when the member is missing.
func (c *baseClient) ZScore(ctx context.Context, key string, member []byte) (float64, bool, error) {
	res, err := c.exec(ctx, "ZSCORE", arg(key), member)
	if err != nil {
		return 0, false, err
	}
	if res == nil {
		return 0, false, nil
	}
	score, err := toFloat64(res)
	return score, err == nil, err
}

// ZMScore returns the scores of members in order; missing members yield nil
// entries.
func (c *baseClient) ZMScore(ctx context.Context, key string, members ...[]byte) ([]*float64, error) {
	res, err := c.exec(ctx, "ZMSCORE", append([][]byte{arg(key)}, members...)...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]*float64, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		f, err := toFloat64(item)
		if err != nil {
			return nil, err
		}
		out[i] = &f
	}
	return out, nil
}

// ZCard returns the cardinality of the sorted set at key.
func (c *baseClient) ZCard(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "ZCARD", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// Score boundary helpers for range-by-score queries.

// NegInfScore and PosInfScore are the open score boundaries.
const (
	NegInfScore = "-inf"
	PosInfScore = "+inf"
)

// ScoreBound formats a score boundary; exclusive bounds get the "("
// protocol prefix.
func ScoreBound(score float64, inclusive bool) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if inclusive {
		return s
	}
	return "(" + s
}

// Lex boundary helpers for range-by-lex queries.

// NegInfLex and PosInfLex are the open lexicographic boundaries.
const (
	NegInfLex = "-"
	PosInfLex = "+"
)

// LexBound formats a lexicographic boundary with the protocol "[" or "("
// prefix.
func LexBound(value string, inclusive bool) string {
	if inclusive {
		return "[" + value
	}
	return "(" + value
}

// ZCount counts members with scores inside [min, max]; boundaries are
// built with ScoreBound or the infinity constants.
func (c *baseClient) ZCount(ctx context.Context, key, min, max string) (int64, error) {
	res, err := c.exec(ctx, "ZCOUNT", arg(key), arg(min), arg(max))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZRank returns member's ascending rank, with ok=false when missing.
func (c *baseClient) ZRank(ctx context.Context, key string, member []byte) (int64, bool, error) {
	return c.zrank(ctx, "ZRANK", key, member)
}

// ZRevRank returns member's descending rank, with ok=false when missing.
func (c *baseClient) ZRevRank(ctx context.Context, key string, member []byte) (int64, bool, error) {
	return c.zrank(ctx, "ZREVRANK", key, member)
}

func (c *baseClient) zrank(ctx context.Context, name, key string, member []byte) (int64, bool, error) {
	res, err := c.exec(ctx, name, arg(key), member)
	if err != nil {
		return 0, false, err
	}
	if res == nil {
		return 0, false, nil
	}
	rank, err := toInt64(res)
	return rank, err == nil, err
}

// RankScore is a rank paired with a score, returned by the WITHSCORE rank
// variants.
type RankScore struct {
	Rank  int64
	Score float64
}

// ZRankWithScore returns member's ascending rank and score.
func (c *baseClient) ZRankWithScore(ctx context.Context, key string, member []byte) (*RankScore, error) {
	return c.zrankWithScore(ctx, "ZRANK", key, member)
}

// ZRevRankWithScore returns member's descending rank and score.
func (c *baseClient) ZRevRankWithScore(ctx context.Context, key string, member []byte) (*RankScore, error) {
	return c.zrankWithScore(ctx, "ZREVRANK", key, member)
}

func (c *baseClient) zrankWithScore(ctx context.Context, name, key string, member []byte) (*RankScore, error) {
	res, err := c.exec(ctx, name, arg(key), member, arg("WITHSCORE"))
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	items, err := toSlice(res)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, errMalformedReply(name, res)
	}
	rank, err := toInt64(items[0])
	if err != nil {
		return nil, err
	}
	score, err := toFloat64(items[1])
	if err != nil {
		return nil, err
	}
	return &RankScore{Rank: rank, Score: score}, nil
}

// RangeLimit restricts a by-score or by-lex range to a window.
type RangeLimit struct {
	Offset int64
	Count  int64
}

// ZRangeQuery selects the addressing mode of ZRange: by index, by score or
// by lexicographic order. The Reverse flag follows the protocol's REV
// semantics, so reversed score and lex queries take the higher boundary as
// Start.
type ZRangeQuery interface {
	rangeArgs(key string) [][]byte
	withScores() bool
}

// RangeByIndex addresses elements by rank.
type RangeByIndex struct {
	Start, Stop int64
	Reverse     bool
}

func (q RangeByIndex) rangeArgs(key string) [][]byte {
	args := [][]byte{arg(key), argInt(q.Start), argInt(q.Stop)}
	if q.Reverse {
		args = append(args, arg("REV"))
	}
	return args
}

func (RangeByIndex) withScores() bool { return true }

// RangeByScore addresses elements by score boundaries (see ScoreBound).
type RangeByScore struct {
	Start, Stop string
	Reverse     bool
	Limit       *RangeLimit
}

func (q RangeByScore) rangeArgs(key string) [][]byte {
	args := [][]byte{arg(key), arg(q.Start), arg(q.Stop), arg("BYSCORE")}
	if q.Reverse {
		args = append(args, arg("REV"))
	}
	if q.Limit != nil {
		args = append(args, arg("LIMIT"), argInt(q.Limit.Offset), argInt(q.Limit.Count))
	}
	return args
}

func (RangeByScore) withScores() bool { return true }

// RangeByLex addresses elements by lexicographic boundaries (see LexBound).
type RangeByLex struct {
	Start, Stop string
	Reverse     bool
	Limit       *RangeLimit
}

func (q RangeByLex) rangeArgs(key string) [][]byte {
	args := [][]byte{arg(key), arg(q.Start), arg(q.Stop), arg("BYLEX")}
	if q.Reverse {
		args = append(args, arg("REV"))
	}
	if q.Limit != nil {
		args = append(args, arg("LIMIT"), argInt(q.Limit.Offset), argInt(q.Limit.Count))
	}
	return args
}

func (RangeByLex) withScores() bool { return false }

// ZRange returns the members selected by the query, in range order.
func (c *baseClient) ZRange(ctx context.Context, key string, query ZRangeQuery) ([][]byte, error) {
	res, err := c.exec(ctx, "ZRANGE", query.rangeArgs(key)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// ZRangeWithScores returns the members selected by the query together with
// their scores. Lex queries are rejected, matching the protocol.
func (c *baseClient) ZRangeWithScores(ctx context.Context, key string, query ZRangeQuery) ([]ZMemberScore, error) {
	if !query.withScores() {
		return nil, fmt.Errorf("zrange: WITHSCORES is not applicable to lex queries")
	}
	args := append(query.rangeArgs(key), arg("WITHSCORES"))
	res, err := c.exec(ctx, "ZRANGE", args...)
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZRemRangeByRank removes the members with ranks inside [start, stop].
func (c *baseClient) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	res, err := c.exec(ctx, "ZREMRANGEBYRANK", arg(key), argInt(start), argInt(stop))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZRemRangeByScore removes the members with scores inside [min, max].
func (c *baseClient) ZRemRangeByScore(ctx context.Context, key, min, max string) (int64, error) {
	res, err := c.exec(ctx, "ZREMRANGEBYSCORE", arg(key), arg(min), arg(max))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZRemRangeByLex removes the members inside the lexicographic range.
func (c *baseClient) ZRemRangeByLex(ctx context.Context, key, min, max string) (int64, error) {
	res, err := c.exec(ctx, "ZREMRANGEBYLEX", arg(key), arg(min), arg(max))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZPopMin removes and returns the member with the lowest score.
func (c *baseClient) ZPopMin(ctx context.Context, key string) (*ZMemberScore, error) {
	return c.zpop(ctx, "ZPOPMIN", key)
}

// ZPopMax removes and returns the member with the highest score.
func (c *baseClient) ZPopMax(ctx context.Context, key string) (*ZMemberScore, error) {
	return c.zpop(ctx, "ZPOPMAX", key)
}

func (c *baseClient) zpop(ctx context.Context, name, key string) (*ZMemberScore, error) {
	res, err := c.exec(ctx, name, arg(key))
	if err != nil {
		return nil, err
	}
	ms, err := toMemberScores(res)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return &ms[0], nil
}

// ZPopMinCount removes and returns up to count members with the lowest
// scores.
func (c *baseClient) ZPopMinCount(ctx context.Context, key string, count int64) ([]ZMemberScore, error) {
	res, err := c.exec(ctx, "ZPOPMIN", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZPopMaxCount removes and returns up to count members with the highest
// scores.
func (c *baseClient) ZPopMaxCount(ctx context.Context, key string, count int64) ([]ZMemberScore, error) {
	res, err := c.exec(ctx, "ZPOPMAX", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZRandMember returns a random member, or nil when the set is empty.
func (c *baseClient) ZRandMember(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "ZRANDMEMBER", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// ZRandMemberCount returns up to count random members.
func (c *baseClient) ZRandMemberCount(ctx context.Context, key string, count int64) ([][]byte, error) {
	res, err := c.exec(ctx, "ZRANDMEMBER", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// ZRandMemberCountWithScores returns up to count random members with their
// scores.
func (c *baseClient) ZRandMemberCountWithScores(ctx context.Context, key string, count int64) ([]ZMemberScore, error) {
	res, err := c.exec(ctx, "ZRANDMEMBER", arg(key), argInt(count), arg("WITHSCORES"))
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// Aggregate selects how combined scores are merged.
type Aggregate string

const (
	AggregateSum Aggregate = "SUM"
	AggregateMin Aggregate = "MIN"
	AggregateMax Aggregate = "MAX"
)

// ZCombineOptions refine ZInter/ZUnion. Weights, when present, must match
// the number of keys.
type ZCombineOptions struct {
	Weights   []float64
	Aggregate Aggregate
}

func (o ZCombineOptions) appendTo(args [][]byte, numKeys int) ([][]byte, error) {
	if len(o.Weights) > 0 {
		if len(o.Weights) != numKeys {
			return nil, fmt.Errorf("weights count %d does not match key count %d", len(o.Weights), numKeys)
		}
		args = append(args, arg("WEIGHTS"))
		for _, w := range o.Weights {
			args = append(args, argFloat(w))
		}
	}
	if o.Aggregate != "" {
		args = append(args, arg("AGGREGATE"), arg(string(o.Aggregate)))
	}
	return args, nil
}

func numKeysArgs(keys []string) [][]byte {
	return append([][]byte{argInt(int64(len(keys)))}, stringsToArgs(keys)...)
}

// ZDiff returns the members of the first set absent from the others.
func (c *baseClient) ZDiff(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "ZDIFF", numKeysArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// ZDiffWithScores is ZDiff with scores attached.
func (c *baseClient) ZDiffWithScores(ctx context.Context, keys ...string) ([]ZMemberScore, error) {
	args := append(numKeysArgs(keys), arg("WITHSCORES"))
	res, err := c.exec(ctx, "ZDIFF", args...)
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZDiffStore stores the difference in destination and returns its
// cardinality.
func (c *baseClient) ZDiffStore(ctx context.Context, destination string, keys ...string) (int64, error) {
	args := append([][]byte{arg(destination)}, numKeysArgs(keys)...)
	res, err := c.exec(ctx, "ZDIFFSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZInter returns the intersection of the given sorted sets.
func (c *baseClient) ZInter(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "ZINTER", numKeysArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// ZInterWithScores is ZInter with weights, aggregation and scores.
func (c *baseClient) ZInterWithScores(ctx context.Context, opts ZCombineOptions, keys ...string) ([]ZMemberScore, error) {
	args, err := opts.appendTo(numKeysArgs(keys), len(keys))
	if err != nil {
		return nil, err
	}
	args = append(args, arg("WITHSCORES"))
	res, err := c.exec(ctx, "ZINTER", args...)
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZInterStore stores the intersection in destination and returns its
// cardinality.
func (c *baseClient) ZInterStore(ctx context.Context, destination string, opts ZCombineOptions, keys ...string) (int64, error) {
	args, err := opts.appendTo(append([][]byte{arg(destination)}, numKeysArgs(keys)...), len(keys))
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, "ZINTERSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZInterCard returns the cardinality of the intersection; a non-zero limit
// stops counting early.
func (c *baseClient) ZInterCard(ctx context.Context, limit int64, keys ...string) (int64, error) {
	args := numKeysArgs(keys)
	if limit > 0 {
		args = append(args, arg("LIMIT"), argInt(limit))
	}
	res, err := c.exec(ctx, "ZINTERCARD", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZUnion returns the union of the given sorted sets.
func (c *baseClient) ZUnion(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "ZUNION", numKeysArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// ZUnionWithScores is ZUnion with weights, aggregation and scores.
func (c *baseClient) ZUnionWithScores(ctx context.Context, opts ZCombineOptions, keys ...string) ([]ZMemberScore, error) {
	args, err := opts.appendTo(numKeysArgs(keys), len(keys))
	if err != nil {
		return nil, err
	}
	args = append(args, arg("WITHSCORES"))
	res, err := c.exec(ctx, "ZUNION", args...)
	if err != nil {
		return nil, err
	}
	return toMemberScores(res)
}

// ZUnionStore stores the union in destination and returns its cardinality.
func (c *baseClient) ZUnionStore(ctx context.Context, destination string, opts ZCombineOptions, keys ...string) (int64, error) {
	args, err := opts.appendTo(append([][]byte{arg(destination)}, numKeysArgs(keys)...), len(keys))
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, "ZUNIONSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// ZScan iterates the sorted set at key. The initial cursor is "0";
// iteration is complete when the returned cursor is "0" again.
func (c *baseClient) ZScan(ctx context.Context, key, cursor string, opts ScanOptions) (string, []ZMemberScore, error) {
	args := [][]byte{arg(key), arg(cursor)}
	args = opts.appendTo(args, false)
	res, err := c.exec(ctx, "ZSCAN", args...)
	if err != nil {
		return "", nil, err
	}
	next, items, err := splitScanReply(res)
	if err != nil {
		return "", nil, err
	}
	ms, err := toMemberScores(items)
	if err != nil {
		return "", nil, err
	}
	return next, ms, nil
}

// toMemberScores handles both the RESP3 array-of-pairs form and the RESP2
// flat member-score form.
func toMemberScores(v any) ([]ZMemberScore, error) {
	items, err := toSlice(v)
	if err != nil || items == nil {
		return nil, err
	}
	if len(items) > 0 {
		if _, nested := items[0].([]any); nested {
			out := make([]ZMemberScore, 0, len(items))
			for i, item := range items {
				pair, ok := item.([]any)
				if !ok || len(pair) != 2 {
					return nil, fmt.Errorf("element %d: malformed member-score pair", i)
				}
				member, err := toBytes(pair[0])
				if err != nil {
					return nil, err
				}
				score, err := toFloat64(pair[1])
				if err != nil {
					return nil, err
				}
				out = append(out, ZMemberScore{Member: member, Score: score})
			}
			return out, nil
		}
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("member-score array has odd length %d", len(items))
	}
	out := make([]ZMemberScore, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		member, err := toBytes(items[i])
		if err != nil {
			return nil, err
		}
		score, err := toFloat64(items[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, ZMemberScore{Member: member, Score: score})
	}
	return out, nil
}
