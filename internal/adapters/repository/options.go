package repository

// Default store configuration.
const (
	defaultCapacity = 1000
	defaultRedisKey = "matchwinner:history"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	capacity int
	redisKey string
}

func newOptions(opts []Option) options {
	o := options{capacity: defaultCapacity, redisKey: defaultRedisKey}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCapacity bounds how many entries the memory and redis backends keep.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithRedisKey sets the list key used by the redis backend.
func WithRedisKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.redisKey = key
		}
	}
}
