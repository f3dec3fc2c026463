package redis

const (
	DefaultRequestStream = "guard-requests"
	DefaultResultStream  = "guard-results"
	DefaultGroup         = "guard-group"

	// PayloadField holds the JSON body of every stream entry.
	PayloadField = "payload"
)

type RedisStreamConfig struct {
	RedisAddr     string
	RedisPassword string
	RequestStream string
	ResultStream  string
	Group         string
	ConsumerName  string
}

func NewRedisStreamConfig(redisAddr, redisPassword, requestStream, resultStream, group, consumerName string) *RedisStreamConfig {
	cfg := &RedisStreamConfig{
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		RequestStream: requestStream,
		ResultStream:  resultStream,
		Group:         group,
		ConsumerName:  consumerName,
	}
	if cfg.RequestStream == "" {
		cfg.RequestStream = DefaultRequestStream
	}
	if cfg.ResultStream == "" {
		cfg.ResultStream = DefaultResultStream
	}
	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = "guard-consumer"
	}
	return cfg
}
