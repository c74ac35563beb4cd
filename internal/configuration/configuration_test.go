package configuration

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestBrokers(t *testing.T) {
	biff.Alternative("Brokers", func(a *biff.A) {
		c := Default()

		a.Alternative("Disabled by default", func(a *biff.A) {
			biff.AssertEqual(len(c.Brokers()), 0)
		})

		a.Alternative("Comma separated", func(a *biff.A) {
			c.KafkaBrokers = " kafka-1:9092,,kafka-2:9092 "
			biff.AssertEqual(c.Brokers(), []string{"kafka-1:9092", "kafka-2:9092"})
		})
	})
}
