package control_test

import (
	"io"
	"log"
	"net/netip"
	"testing"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/djdv/go-flowpool/buffer"
	"github.com/djdv/go-flowpool/control"
	"github.com/djdv/go-flowpool/packet"
)

var (
	quiet     = log.New(io.Discard, "", 0)
	stampTime = time.Unix(1_700_000_000, 0)
)

func newService(tb testing.TB) (*control.Service[*bytebufferpool.ByteBuffer], *buffer.BytePool) {
	tb.Helper()
	allocator := new(buffer.BytePool)
	service, err := control.NewService[*bytebufferpool.ByteBuffer](
		allocator, newBuilder(tb),
		control.WithLogger(quiet),
		control.WithClock(func() time.Time { return stampTime }),
	)
	if err != nil {
		tb.Fatal(err)
	}
	return service, allocator
}

func newBuilder(tb testing.TB) *packet.Builder {
	tb.Helper()
	builder, err := packet.NewBuilder(16)
	if err != nil {
		tb.Fatal(err)
	}
	return builder
}

func testFlow(id string, direction packet.Direction) control.Flow {
	return control.Flow{
		ID:        id,
		Direction: direction,
		Endpoint: packet.Endpoint{
			SrcMAC:  packet.MAC{0x02, 0, 0, 0, 0, 0x01},
			DstMAC:  packet.MAC{0x02, 0, 0, 0, 0, 0x02},
			SrcIP:   netip.MustParseAddr("192.0.2.1"),
			DstIP:   netip.MustParseAddr("192.0.2.2"),
			SrcPort: 58168,
			DstPort: 58168,
		},
	}
}

func flowIDs(flows []control.Flow) []string {
	ids := make([]string, len(flows))
	for i, flow := range flows {
		ids[i] = flow.ID
	}
	return ids
}
