package health

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"lv-tradecore/internal/feed"
	"lv-tradecore/internal/httputil"
	"lv-tradecore/internal/risk"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultWarmup is how long the service reports ready without any cached
// quote.
const DefaultWarmup = 30 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type QuoteSource interface {
	Len() int
	LastUpdate() time.Time
}

type FeedSource interface {
	Status() []feed.ChannelStatus
}

type JobSource interface {
	Status() map[string]risk.JobStatus
}

type SubscriberCounter interface {
	Len() int
}

// Deps are the components health reports on. Any of them may be nil.
type Deps struct {
	Stores map[string]Pinger
	DB     *pgxpool.Pool
	Quotes QuoteSource
	Feed   FeedSource
	Jobs   JobSource
	Hub    SubscriberCounter
}

type Handler struct {
	deps        Deps
	startedAt   time.Time
	warmup      time.Duration
	httpAddr    string
	appMode     string
	internalTok string
	now         func() time.Time
}

func NewHandler(deps Deps, startedAt time.Time, httpAddr, appMode, internalToken string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		deps:        deps,
		startedAt:   start,
		warmup:      DefaultWarmup,
		httpAddr:    strings.TrimSpace(httpAddr),
		appMode:     strings.TrimSpace(appMode),
		internalTok: strings.TrimSpace(internalToken),
		now:         time.Now,
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type readinessResponse struct {
	Status    string               `json:"status"`
	Timestamp string               `json:"timestamp"`
	UptimeSec int64                `json:"uptime_sec"`
	Uptime    string               `json:"uptime"`
	Stores    map[string]storeStat `json:"stores"`
	Quotes    quoteStat            `json:"quotes"`
}

type storeStat struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

type quoteStat struct {
	Cached     int    `json:"cached"`
	LastUpdate string `json:"last_update,omitempty"`
	Warming    bool   `json:"warming"`
}

type fullResponse struct {
	readinessResponse
	App         appStats                  `json:"app"`
	Feed        []feed.ChannelStatus      `json:"feed"`
	Subscribers int                       `json:"subscribers"`
	Jobs        map[string]risk.JobStatus `json:"jobs"`
	Process     processStats              `json:"process"`
	Runtime     runtimeStats              `json:"runtime"`
	Memory      memoryStats               `json:"memory"`
	DBPool      *poolStats                `json:"db_pool,omitempty"`
	Build       buildStats                `json:"build"`
	Diagnostics map[string]string         `json:"diagnostics,omitempty"`
}

type appStats struct {
	HTTPAddr string `json:"http_addr"`
	AppMode  string `json:"app_mode"`
}

type processStats struct {
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
	GoOS     string `json:"go_os"`
	GoArch   string `json:"go_arch"`
}

type runtimeStats struct {
	GoVersion   string `json:"go_version"`
	Goroutines  int    `json:"goroutines"`
	GoMaxProcs  int    `json:"gomaxprocs"`
	CPUCount    int    `json:"cpu_count"`
	NumGC       uint32 `json:"num_gc"`
	LastGCMsAgo int64  `json:"last_gc_ms_ago"`
}

type memoryStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapInuseBytes  uint64 `json:"heap_inuse_bytes"`
	StackInuseBytes uint64 `json:"stack_inuse_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	HeapObjects     uint64 `json:"heap_objects"`
}

type poolStats struct {
	TotalConns           int32 `json:"total_conns"`
	IdleConns            int32 `json:"idle_conns"`
	AcquiredConns        int32 `json:"acquired_conns"`
	MaxConns             int32 `json:"max_conns"`
	AcquireCount         int64 `json:"acquire_count"`
	CanceledAcquireCount int64 `json:"canceled_acquire_count"`
	EmptyAcquireCount    int64 `json:"empty_acquire_count"`
	AcquireDurationMs    int64 `json:"acquire_duration_ms"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func secureTokenEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handler) requireInternalToken(w http.ResponseWriter, r *http.Request) bool {
	if h.internalTok == "" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "internal token is not configured"})
		return false
	}
	provided := strings.TrimSpace(r.Header.Get("X-Internal-Token"))
	if !secureTokenEqual(provided, h.internalTok) {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid internal token"})
		return false
	}
	return true
}

func (h *Handler) pingStores(ctx context.Context) map[string]storeStat {
	out := make(map[string]storeStat, len(h.deps.Stores))
	for name, st := range h.deps.Stores {
		start := time.Now()
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := st.Ping(pingCtx)
		cancel()
		stat := storeStat{Reachable: err == nil, PingMs: time.Since(start).Milliseconds()}
		if err != nil {
			stat.Error = err.Error()
		}
		out[name] = stat
	}
	return out
}

// readiness reports ok when every store answers and quotes are flowing, or
// the feed is still inside its warmup window.
func (h *Handler) readiness(ctx context.Context, now time.Time) (readinessResponse, bool) {
	uptime := h.uptime(now)
	resp := readinessResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Stores:    h.pingStores(ctx),
	}
	ready := true
	for _, st := range resp.Stores {
		if !st.Reachable {
			ready = false
		}
	}
	if h.deps.Quotes != nil {
		resp.Quotes.Cached = h.deps.Quotes.Len()
		if last := h.deps.Quotes.LastUpdate(); !last.IsZero() {
			resp.Quotes.LastUpdate = last.UTC().Format(time.RFC3339Nano)
		}
		if resp.Quotes.Cached == 0 {
			resp.Quotes.Warming = uptime < h.warmup
			if !resp.Quotes.Warming {
				ready = false
			}
		}
	}
	if !ready {
		resp.Status = "degraded"
	}
	return resp, ready
}

// Live does not touch any dependency.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp, ok := h.readiness(r.Context(), h.now().UTC())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Full returns full diagnostics and is protected by X-Internal-Token.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	if !h.requireInternalToken(w, r) {
		return
	}
	now := h.now().UTC()
	ready, ok := h.readiness(r.Context(), now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	lastGCMsAgo := int64(0)
	if mem.LastGC > 0 {
		lastGCMsAgo = now.Sub(time.Unix(0, int64(mem.LastGC))).Milliseconds()
		if lastGCMsAgo < 0 {
			lastGCMsAgo = 0
		}
	}
	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}
	host := ""
	if h, err := os.Hostname(); err == nil {
		host = h
	}

	resp := fullResponse{
		readinessResponse: ready,
		App:               appStats{HTTPAddr: h.httpAddr, AppMode: h.appMode},
		Process: processStats{
			PID:      os.Getpid(),
			Hostname: host,
			GoOS:     runtime.GOOS,
			GoArch:   runtime.GOARCH,
		},
		Runtime: runtimeStats{
			GoVersion:   runtime.Version(),
			Goroutines:  runtime.NumGoroutine(),
			GoMaxProcs:  runtime.GOMAXPROCS(0),
			CPUCount:    runtime.NumCPU(),
			NumGC:       mem.NumGC,
			LastGCMsAgo: lastGCMsAgo,
		},
		Memory: memoryStats{
			AllocBytes:      mem.Alloc,
			HeapAllocBytes:  mem.HeapAlloc,
			HeapInuseBytes:  mem.HeapInuse,
			StackInuseBytes: mem.StackInuse,
			SysBytes:        mem.Sys,
			HeapObjects:     mem.HeapObjects,
		},
		Build: build,
	}
	if h.deps.Feed != nil {
		resp.Feed = h.deps.Feed.Status()
	}
	if h.deps.Hub != nil {
		resp.Subscribers = h.deps.Hub.Len()
	}
	if h.deps.Jobs != nil {
		resp.Jobs = h.deps.Jobs.Status()
	}
	if h.deps.DB != nil {
		stat := h.deps.DB.Stat()
		resp.DBPool = &poolStats{
			TotalConns:           stat.TotalConns(),
			IdleConns:            stat.IdleConns(),
			AcquiredConns:        stat.AcquiredConns(),
			MaxConns:             stat.MaxConns(),
			AcquireCount:         stat.AcquireCount(),
			CanceledAcquireCount: stat.CanceledAcquireCount(),
			EmptyAcquireCount:    stat.EmptyAcquireCount(),
			AcquireDurationMs:    stat.AcquireDuration().Milliseconds(),
		}
	}

	diag := map[string]string{}
	for name, st := range ready.Stores {
		if st.Error != "" {
			diag["store_"+name] = st.Error
		}
	}
	for name, job := range resp.Jobs {
		if job.LastError != "" {
			diag["job_"+name] = job.LastError
		}
	}
	if len(diag) > 0 {
		resp.Diagnostics = diag
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
