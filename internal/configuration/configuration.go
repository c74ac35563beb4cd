package configuration

import (
	"strings"
	"time"
)

type Configuration struct {
	HttpAddr        string        `usage:"HTTP control address"`
	Target          string        `usage:"UDP address probes are sent to"`
	Interval        time.Duration `usage:"time between transmit rounds"`
	Allocator       string        `usage:"packet allocator: bytes | arena"`
	ArenaFrames     int           `usage:"number of frames mapped by the arena allocator"`
	FrameSize       int           `usage:"size in bytes of one arena frame"`
	SizeHint        int           `usage:"expected number of flows"`
	TemplateCache   int           `usage:"number of cached header templates"`
	KafkaBrokers    string        `usage:"comma separated Kafka brokers, empty disables the consumer"`
	KafkaTopic      string        `usage:"Kafka topic commands are read from"`
	KafkaReplyTopic string        `usage:"Kafka topic responses are written to, empty disables replies"`
	KafkaGroup      string        `usage:"Kafka consumer group"`
	ShowConfig      bool          `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:      "127.0.0.1:8042",
		Target:        "127.0.0.1:4242",
		Interval:      time.Second,
		Allocator:     "bytes",
		ArenaFrames:   4096,
		FrameSize:     256,
		SizeHint:      1024,
		TemplateCache: 256,
		KafkaTopic:    "flowprobe-commands",
		KafkaGroup:    "flowprobe",
	}
}

// Brokers splits KafkaBrokers, dropping empty entries.
func (c Configuration) Brokers() []string {
	var brokers []string
	for broker := range strings.SplitSeq(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
