package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/storedbg/internal/bridge"
	"github.com/danmuck/storedbg/internal/config"
	"github.com/danmuck/storedbg/internal/debugger"
	"github.com/danmuck/storedbg/internal/logging"
	"github.com/danmuck/storedbg/internal/observability"
	"github.com/danmuck/storedbg/internal/protocol"
	"github.com/danmuck/storedbg/internal/store"
)

func main() {
	configPath := flag.String("config", "cmd/stored/config.toml", "host config path")
	flag.Parse()

	logging.ConfigureRuntime()
	cfg, err := loadHostConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stored: %v\n", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" && os.Getenv(logging.EnvLogLevel) == "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "stored: %v\n", err)
		os.Exit(1)
	}
}

// host is one running instance: the stores, the stdin stack and the lock
// every access to the stores goes through.
type host struct {
	cfg    hostConfig
	stores []*store.Store
	dbg    *debugger.Debugger
	bottom protocol.Layer
	mu     sync.Mutex
}

func newHost(cfg hostConfig, out io.Writer) (*host, error) {
	fns := newBuiltins().funcs()
	h := &host{cfg: cfg, dbg: newDebugger(cfg)}
	for _, m := range cfg.Stores {
		s, err := config.BuildStore(m.Path, m.Mount, store.BuildOptions{Funcs: fns})
		if err != nil {
			return nil, err
		}
		if err := h.dbg.MapStore(s); err != nil {
			return nil, err
		}
		h.stores = append(h.stores, s)
		log.Info().Str("store", s.Name()).Str("path", m.Path).Msg("stored: store mapped")
	}
	h.bottom = protocol.Chain(h.layers(out)...)
	return h, nil
}

func newDebugger(cfg hostConfig) *debugger.Debugger {
	d := debugger.New()
	d.SetIdentification(cfg.Identification)
	d.SetVersions(cfg.Version)
	return d
}

// layers lists the stdin stack from the debugger down to out.
func (h *host) layers(out io.Writer) []protocol.Layer {
	layers := []protocol.Layer{h.dbg}
	if h.cfg.Stack.Print {
		layers = append(layers, protocol.NewPrintLayer(os.Stderr))
	}
	if h.cfg.Stack.Escape {
		layers = append(layers, protocol.NewAsciiEscapeLayer())
	}
	if h.cfg.Stack.Terminal {
		term := protocol.NewTerminalLayer(nil, out)
		term.NonDebug = passthrough{term}
		layers = append(layers, term)
	} else {
		layers = append(layers, protocol.NewBufferLayer(), &lineLayer{w: out})
	}
	return layers
}

// passthrough echoes non-debug input back to the terminal between frames.
type passthrough struct {
	term *protocol.TerminalLayer
}

func (p passthrough) Write(b []byte) (int, error) {
	p.term.Passthrough(b)
	return len(b), nil
}

// feed pushes received bytes through the stack.
func (h *host) feed(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bottom.Decode(b)
}

// readLoop feeds in until EOF. With a terminal layer the stream is passed
// in chunks; without one every line is a frame.
func (h *host) readLoop(in io.Reader) error {
	if !h.cfg.Stack.Terminal {
		return h.readLines(in)
	}

	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			h.feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readLines feeds one frame per line. A line longer than MaxBuffer is
// dropped up to its newline and reading carries on with the next one.
func (h *host) readLines(in io.Reader) error {
	r := bufio.NewReaderSize(in, protocol.MaxBuffer+1)
	dropping := false
	for {
		line, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !dropping {
				log.Warn().Int("limit", protocol.MaxBuffer).Msg("stored: line too long, dropped")
				observability.RecordLayerDrop("line", "overflow")
				dropping = true
			}
			continue
		}
		if len(line) > 0 && !dropping {
			line = bytes.TrimSuffix(line, []byte{'\n'})
			h.feed(bytes.TrimSuffix(line, []byte{'\r'}))
		}
		dropping = false
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func run(ctx context.Context, cfg hostConfig, in io.Reader, out io.Writer) error {
	h, err := newHost(cfg, out)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		errc := make(chan error, 1)
		go func() { errc <- h.readLoop(in) }()
		select {
		case <-gctx.Done():
			return nil
		case err := <-errc:
			log.Info().Err(err).Msg("stored: input closed")
			return err
		}
	})

	if cfg.HTTPAddr != "" {
		d := newDebugger(cfg)
		for _, s := range h.stores {
			if err := d.MapStore(s); err != nil {
				return err
			}
		}
		b := bridge.New(d, bridge.Options{Name: cfg.Identification, CorsOrigins: cfg.CorsOrigins, Lock: &h.mu})
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: b.HTTPRouter(), ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("stored: http bridge listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// lineLayer terminates a stack without terminal framing. It sits below a
// BufferLayer, so every call carries a whole response, written as one line.
type lineLayer struct {
	protocol.Base
	w io.Writer
}

func (l *lineLayer) Encode(buf []byte, last bool) {
	line := buf
	if last {
		line = append(slices.Clip(buf), '\n')
	}
	if _, err := l.w.Write(line); err != nil {
		log.Warn().Err(err).Msg("stored: write failed")
	}
}
