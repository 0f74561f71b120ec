package cachesvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

type summary struct {
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Set(ctx, "attendance:summary:c1", summary{Total: 10, Percent: 70}))
	require.NoError(t, c.Set(ctx, "fee:summary:s1", summary{Total: 3}))

	var got summary
	require.NoError(t, c.Get(ctx, "attendance:summary:c1", &got))
	assert.Equal(t, summary{Total: 10, Percent: 70}, got)

	assert.Equal(t, core.ErrCacheMiss, c.Get(ctx, "missing", &got))

	require.NoError(t, c.Invalidate(ctx, "attendance:"))
	assert.Equal(t, core.ErrCacheMiss, c.Get(ctx, "attendance:summary:c1", &got))
	assert.NoError(t, c.Get(ctx, "fee:summary:s1", &got))

	now = now.Add(time.Minute)
	assert.Equal(t, core.ErrCacheMiss, c.Get(ctx, "fee:summary:s1", &got))
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c core.Cache = NoopCache{}
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	assert.Equal(t, core.ErrCacheMiss, c.Get(ctx, "k", &v))
	assert.NoError(t, c.Invalidate(ctx, ""))
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "shule:*"},
		{"fee:", "shule:fee:*"},
		{"a*b?[c]", `shule:a\*b\?\[c\]*`},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, matchPattern(tt.prefix))
		})
	}
}
