package store

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// traced adds logrus trace lines on each store call
type traced struct {
	s Store
}

func (t traced) trace(name string, args ...interface{}) {
	log.Debugf("%s: %#v", name, args)
}

func (t traced) Get(ctx context.Context, key string) (v string, ok bool, err error) {
	defer func() { t.trace("Get", key, v, ok, err) }()
	return t.s.Get(ctx, key)
}

func (t traced) Set(ctx context.Context, key, value string) (err error) {
	defer func() { t.trace("Set", key, value, err) }()
	return t.s.Set(ctx, key, value)
}

func (t traced) Delete(ctx context.Context, key string) (err error) {
	defer func() { t.trace("Delete", key, err) }()
	return t.s.Delete(ctx, key)
}

func (t traced) Incr(ctx context.Context, key string) (n int64, err error) {
	defer func() { t.trace("Incr", key, n, err) }()
	return t.s.Incr(ctx, key)
}

func (t traced) SAdd(ctx context.Context, key, member string) (changed bool, err error) {
	defer func() { t.trace("SAdd", key, member, changed, err) }()
	return t.s.SAdd(ctx, key, member)
}

func (t traced) SRem(ctx context.Context, key, member string) (changed bool, err error) {
	defer func() { t.trace("SRem", key, member, changed, err) }()
	return t.s.SRem(ctx, key, member)
}

func (t traced) SMembers(ctx context.Context, key string) (members []string, err error) {
	defer func() { t.trace("SMembers", key, members, err) }()
	return t.s.SMembers(ctx, key)
}

func (t traced) MGet(ctx context.Context, keys ...string) (values []*string, err error) {
	defer func() { t.trace("MGet", keys, len(values), err) }()
	return t.s.MGet(ctx, keys...)
}

func (t traced) Close() (err error) {
	defer func() { t.trace("Close", err) }()
	return t.s.Close()
}
