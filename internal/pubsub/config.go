package pubsub

type Config struct {
	Brokers []string `yaml:"brokers"`
	Topics  []string `yaml:"topics"`
}

func (c Config) Enabled() bool {
	return len(c.Brokers) > 0 && len(c.Topics) > 0
}
