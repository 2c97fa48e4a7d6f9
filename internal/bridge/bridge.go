package bridge

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/storedbg/internal/debugger"
	"github.com/danmuck/storedbg/internal/observability"
	"github.com/danmuck/storedbg/internal/protocol"
	"github.com/danmuck/storedbg/internal/variant"
)

// MaxFrame bounds request bodies, matching the terminal frame limit.
const MaxFrame = protocol.MaxBuffer

type Options struct {
	Name        string
	CorsOrigins []string
	// Lock serializes access to the stores behind the debugger. Share it
	// with any other stack driving the same stores. nil uses a private one.
	Lock sync.Locker
}

// Bridge serves a debugger over HTTP. Every request is one frame through
// the same protocol the terminal stack speaks.
type Bridge struct {
	Name     string
	Appeared time.Time

	lock    sync.Locker
	dbg     *debugger.Debugger
	capture *protocol.CaptureLayer
	router  *gin.Engine
}

// New takes over d: responses are captured below it, so d must not be part
// of another stack.
func New(d *debugger.Debugger, opts Options) *Bridge {
	observability.RegisterMetrics()
	if opts.Name == "" {
		opts.Name = "stored"
	}
	lock := opts.Lock
	if lock == nil {
		lock = &sync.Mutex{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Component("bridge")))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	capture := protocol.NewCaptureLayer()
	protocol.Chain(d, capture)

	b := &Bridge{
		Name:     opts.Name,
		Appeared: time.Now(),
		lock:     lock,
		dbg:      d,
		capture:  capture,
		router:   r,
	}
	b.registerRoutes()
	return b
}

func (b *Bridge) HTTPRouter() *gin.Engine {
	return b.router
}

// Exchange runs one request frame through the debugger and returns the
// response frame.
func (b *Bridge) Exchange(req []byte) []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.capture.Take()
	b.dbg.Decode(bytes.Clone(req))
	return b.capture.Last()
}

type objectInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	TypeCode uint8  `json:"type_code"`
	Size     int    `json:"size"`
}

func (b *Bridge) objects() []objectInfo {
	b.lock.Lock()
	defer b.lock.Unlock()
	out := []objectInfo{}
	b.dbg.List(func(name string, v variant.DebugVariant) {
		out = append(out, objectInfo{Name: name, Type: v.Type().String(), TypeCode: uint8(v.Type()), Size: v.Size()})
	})
	return out
}

func (b *Bridge) lookup(path string) (objectInfo, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	v := b.dbg.Find(path)
	if !v.Valid() {
		return objectInfo{}, false
	}
	return objectInfo{Name: path, Type: v.Type().String(), TypeCode: uint8(v.Type()), Size: v.Size()}, true
}

func (b *Bridge) registerRoutes() {
	b.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(b.Appeared).String(),
			"service": b.Name,
			"stores":  b.stores(),
		})
	})

	b.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	b.router.POST("/frame", func(c *gin.Context) {
		req, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxFrame+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req) > MaxFrame {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": protocol.ErrFrameTooLarge.Error()})
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", b.Exchange(req))
	})

	b.router.GET("/objects", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"objects": b.objects()})
	})

	b.router.GET("/objects/*path", func(c *gin.Context) {
		path := c.Param("path")
		info, ok := b.lookup(path)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found", "name": path})
			return
		}
		resp := b.Exchange([]byte("r" + path))
		if string(resp) == string(debugger.Nack) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed", "name": path})
			return
		}
		c.JSON(http.StatusOK, gin.H{"object": info, "value": string(resp)})
	})

	b.router.PUT("/objects/*path", func(c *gin.Context) {
		path := c.Param("path")
		if _, ok := b.lookup(path); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found", "name": path})
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxFrame+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(body) > MaxFrame {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": protocol.ErrFrameTooLarge.Error(), "name": path})
			return
		}
		value := bytes.TrimSpace(body)
		resp := b.Exchange(append(append([]byte{debugger.CmdWrite}, value...), path...))
		if string(resp) != string(debugger.Ack) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value", "name": path})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (b *Bridge) stores() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.dbg.Stores()
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
