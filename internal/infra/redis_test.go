package infra

import (
	"testing"

	"campaignflow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalOptions(t *testing.T) {
	opts, err := universalOptions(config.RedisConfig{Host: "localhost", Port: 6379, DB: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
	assert.Equal(t, 2, opts.DB)

	opts, err = universalOptions(config.RedisConfig{Mode: "sentinel", MasterName: "mymaster", SentinelAddrs: []string{"s1:26379"}})
	require.NoError(t, err)
	assert.Equal(t, "mymaster", opts.MasterName)

	opts, err = universalOptions(config.RedisConfig{Mode: "cluster", ClusterAddrs: []string{"n1:7000", "n2:7000"}, DB: 3})
	require.NoError(t, err)
	assert.Len(t, opts.Addrs, 2)
	assert.Equal(t, 0, opts.DB)
}

func TestUniversalOptions_Invalid(t *testing.T) {
	_, err := universalOptions(config.RedisConfig{Mode: "sentinel"})
	assert.Error(t, err)
	_, err = universalOptions(config.RedisConfig{Mode: "cluster"})
	assert.Error(t, err)
	_, err = universalOptions(config.RedisConfig{Mode: "memcached"})
	assert.Error(t, err)
}
