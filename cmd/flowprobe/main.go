package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"
	"github.com/fulldump/goconfig"
	"github.com/valyala/bytebufferpool"

	"github.com/djdv/go-flowpool/buffer"
	"github.com/djdv/go-flowpool/control"
	"github.com/djdv/go-flowpool/internal/configuration"
	"github.com/djdv/go-flowpool/packet"
	"github.com/djdv/go-flowpool/transmit"
)

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	var err error
	switch c.Allocator {
	case "bytes":
		err = run[*bytebufferpool.ByteBuffer](c, &buffer.BytePool{})
	case "arena":
		var arena *buffer.Arena
		if arena, err = buffer.NewArena(c.ArenaFrames, c.FrameSize); err != nil {
			break
		}
		err = errors.Join(run[buffer.Frame](c, arena), arena.Close())
	default:
		err = fmt.Errorf("unknown allocator %q", c.Allocator)
	}
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
}

func run[Handle any](c configuration.Configuration, allocator buffer.Allocator[Handle]) error {
	builder, err := packet.NewBuilder(c.TemplateCache)
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	service, err := control.NewService(allocator, builder,
		control.WithSizeHint(c.SizeHint),
		control.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := service.Close(); err != nil {
			logger.Println("closing service:", err)
		}
	}()

	target, err := net.ResolveUDPAddr("udp", c.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return err
	}
	defer conn.Close()

	b := control.NewAPI(service, log.New(os.Stdout, "ACCESS: ", log.Lshortfile))
	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}
	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		return err
	}
	logger.Println("listening on", c.HttpAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var wg sync.WaitGroup
	wg.Go(func() {
		loop := transmit.Loop{
			Source:   service,
			Conn:     conn,
			Addr:     target,
			Interval: c.Interval,
			Logger:   logger,
		}
		if err := loop.Run(ctx); err != nil {
			logger.Println("transmit:", err)
		}
	})
	if brokers := c.Brokers(); len(brokers) > 0 {
		consumer := control.NewKafkaConsumer(control.KafkaConfig{
			Brokers:    brokers,
			Topic:      c.KafkaTopic,
			GroupID:    c.KafkaGroup,
			ReplyTopic: c.KafkaReplyTopic,
		}, service, logger)
		wg.Go(func() {
			defer consumer.Close()
			if err := consumer.Run(ctx); err != nil {
				logger.Println("kafka:", err)
			}
		})
	}
	go func() {
		<-ctx.Done()
		logger.Println("shutting down")
		s.Shutdown(context.Background())
	}()

	err = s.Serve(ln)
	stop()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
