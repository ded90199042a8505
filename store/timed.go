package store

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/instrument"
)

// timed adds prometheus timings to another store implementation
type timed struct {
	s        Store
	Duration *prometheus.HistogramVec
}

func (t timed) errorCode(err error) string {
	switch err {
	case nil:
		return "200"
	case ErrNotInteger:
		return "400"
	default:
		return "500"
	}
}

func (t timed) timeRequest(ctx context.Context, method string, f func(context.Context) error) error {
	return instrument.TimeRequestHistogramStatus(ctx, method, t.Duration, t.errorCode, f)
}

func (t timed) Get(ctx context.Context, key string) (v string, ok bool, err error) {
	t.timeRequest(ctx, "Get", func(ctx context.Context) error {
		v, ok, err = t.s.Get(ctx, key)
		return err
	})
	return
}

func (t timed) Set(ctx context.Context, key, value string) error {
	return t.timeRequest(ctx, "Set", func(ctx context.Context) error {
		return t.s.Set(ctx, key, value)
	})
}

func (t timed) Delete(ctx context.Context, key string) error {
	return t.timeRequest(ctx, "Delete", func(ctx context.Context) error {
		return t.s.Delete(ctx, key)
	})
}

func (t timed) Incr(ctx context.Context, key string) (n int64, err error) {
	t.timeRequest(ctx, "Incr", func(ctx context.Context) error {
		n, err = t.s.Incr(ctx, key)
		return err
	})
	return
}

func (t timed) SAdd(ctx context.Context, key, member string) (changed bool, err error) {
	t.timeRequest(ctx, "SAdd", func(ctx context.Context) error {
		changed, err = t.s.SAdd(ctx, key, member)
		return err
	})
	return
}

func (t timed) SRem(ctx context.Context, key, member string) (changed bool, err error) {
	t.timeRequest(ctx, "SRem", func(ctx context.Context) error {
		changed, err = t.s.SRem(ctx, key, member)
		return err
	})
	return
}

func (t timed) SMembers(ctx context.Context, key string) (members []string, err error) {
	t.timeRequest(ctx, "SMembers", func(ctx context.Context) error {
		members, err = t.s.SMembers(ctx, key)
		return err
	})
	return
}

func (t timed) MGet(ctx context.Context, keys ...string) (values []*string, err error) {
	t.timeRequest(ctx, "MGet", func(ctx context.Context) error {
		values, err = t.s.MGet(ctx, keys...)
		return err
	})
	return
}

func (t timed) Close() error {
	return t.s.Close()
}
