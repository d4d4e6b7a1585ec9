package talon

import "context"

// -----------------------------------------------------------------------------
// Set Commands
// -----------------------------------------------------------------------------

// SAdd adds members to the set at key and returns how many were new.
func (c *baseClient) SAdd(ctx context.Context, key string, members ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "SADD", append([][]byte{arg(key)}, members...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SRem removes members from the set at key and returns how many were
// removed.
func (c *baseClient) SRem(ctx context.Context, key string, members ...[]byte) (int64, error) {
	res, err := c.exec(ctx, "SREM", append([][]byte{arg(key)}, members...)...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SMembers returns all members of the set at key.
func (c *baseClient) SMembers(ctx context.Context, key string) ([][]byte, error) {
	res, err := c.exec(ctx, "SMEMBERS", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SCard returns the cardinality of the set at key.
func (c *baseClient) SCard(ctx context.Context, key string) (int64, error) {
	res, err := c.exec(ctx, "SCARD", arg(key))
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SIsMember reports whether member is in the set at key.
func (c *baseClient) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	res, err := c.exec(ctx, "SISMEMBER", arg(key), member)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// SMIsMember reports membership for each given member, in order.
func (c *baseClient) SMIsMember(ctx context.Context, key string, members ...[]byte) ([]bool, error) {
	res, err := c.exec(ctx, "SMISMEMBER", append([][]byte{arg(key)}, members...)...)
	if err != nil {
		return nil, err
	}
	items, err := toSlice(res)
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]bool, len(items))
	for i, item := range items {
		b, err := toBool(item)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// SPop removes and returns a random member, or nil when the set is empty.
func (c *baseClient) SPop(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "SPOP", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// SPopCount removes and returns up to count random members.
func (c *baseClient) SPopCount(ctx context.Context, key string, count int64) ([][]byte, error) {
	res, err := c.exec(ctx, "SPOP", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SRandMember returns a random member without removing it, or nil when the
// set is empty.
func (c *baseClient) SRandMember(ctx context.Context, key string) ([]byte, error) {
	res, err := c.exec(ctx, "SRANDMEMBER", arg(key))
	if err != nil {
		return nil, err
	}
	return toBytes(res)
}

// SRandMemberCount returns up to count random members. A negative count
// allows repetitions.
func (c *baseClient) SRandMemberCount(ctx context.Context, key string, count int64) ([][]byte, error) {
	res, err := c.exec(ctx, "SRANDMEMBER", arg(key), argInt(count))
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SMove moves member from source to destination atomically.
func (c *baseClient) SMove(ctx context.Context, source, destination string, member []byte) (bool, error) {
	res, err := c.exec(ctx, "SMOVE", arg(source), arg(destination), member)
	if err != nil {
		return false, err
	}
	return toBool(res)
}

// SInter returns the intersection of the given sets.
func (c *baseClient) SInter(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "SINTER", stringsToArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SInterCard returns the cardinality of the intersection. A non-zero limit
// stops counting early.
func (c *baseClient) SInterCard(ctx context.Context, limit int64, keys ...string) (int64, error) {
	args := append([][]byte{argInt(int64(len(keys)))}, stringsToArgs(keys)...)
	if limit > 0 {
		args = append(args, arg("LIMIT"), argInt(limit))
	}
	res, err := c.exec(ctx, "SINTERCARD", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SUnion returns the union of the given sets.
func (c *baseClient) SUnion(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "SUNION", stringsToArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SDiff returns the members of the first set not present in the others.
func (c *baseClient) SDiff(ctx context.Context, keys ...string) ([][]byte, error) {
	res, err := c.exec(ctx, "SDIFF", stringsToArgs(keys)...)
	if err != nil {
		return nil, err
	}
	return toBytesSlice(res)
}

// SInterStore stores the intersection in destination and returns its
// cardinality.
func (c *baseClient) SInterStore(ctx context.Context, destination string, keys ...string) (int64, error) {
	args := append([][]byte{arg(destination)}, stringsToArgs(keys)...)
	res, err := c.exec(ctx, "SINTERSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SUnionStore stores the union in destination and returns its cardinality.
func (c *baseClient) SUnionStore(ctx context.Context, destination string, keys ...string) (int64, error) {
	args := append([][]byte{arg(destination)}, stringsToArgs(keys)...)
	res, err := c.exec(ctx, "SUNIONSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SDiffStore stores the difference in destination and returns its
// cardinality.
func (c *baseClient) SDiffStore(ctx context.Context, destination string, keys ...string) (int64, error) {
	args := append([][]byte{arg(destination)}, stringsToArgs(keys)...)
	res, err := c.exec(ctx, "SDIFFSTORE", args...)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

// SScan iterates the set at key. The initial cursor is "0"; iteration is
// complete when the returned cursor is "0" again.
func (c *baseClient) SScan(ctx context.Context, key, cursor string, opts ScanOptions) (string, [][]byte, error) {
	args := [][]byte{arg(key), arg(cursor)}
	args = opts.appendTo(args, false)
	res, err := c.exec(ctx, "SSCAN", args...)
	if err != nil {
		return "", nil, err
	}
	next, items, err := splitScanReply(res)
	if err != nil {
		return "", nil, err
	}
	members, err := toBytesSlice(items)
	if err != nil {
		return "", nil, err
	}
	return next, members, nil
}
