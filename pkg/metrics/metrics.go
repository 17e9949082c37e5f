// Package metrics 定义 kitvault 的 Prometheus 指标.
// 导入接口记录 HTTP、签发与写入指标，导入客户端记录提交阶段与上传指标，
// 后台任务记录运行结果.
//
//	metrics.SubmissionsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/kitvault/pkg/configs"
)

// 结果标签取值.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// PresignedUploads 服务端签发的上传地址数.
	PresignedUploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kit_presigned_uploads_total",
			Help: "Total number of presigned upload URLs issued",
		},
	)

	// KitContentsCreated 服务端写入的内容数，按分类统计.
	KitContentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kit_contents_created_total",
			Help: "Total number of kit contents created",
		},
		[]string{"category"},
	)

	// KitsDiscarded 被丢弃的构建包数，reason 为 manual/expired.
	KitsDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kits_discarded_total",
			Help: "Total number of discarded kits",
		},
		[]string{"reason"},
	)

	// SubmissionsTotal 客户端提交次数，按结果统计.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_submissions_total",
			Help: "Total number of kit submissions",
		},
		[]string{"result"},
	)

	// PhaseDuration 客户端提交各阶段耗时.
	PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_phase_duration_seconds",
			Help:    "Duration of each submission phase in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"phase"},
	)

	// UploadsTotal 客户端二进制上传次数，按结果统计.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_uploads_total",
			Help: "Total number of binary uploads",
		},
		[]string{"result"},
	)

	// UploadedBytes 客户端已上传字节数.
	UploadedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_uploaded_bytes_total",
			Help: "Total number of bytes uploaded to the object store",
		},
	)

	// JobRuns 后台任务运行次数，按任务名与结果统计.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitvault_job_runs_total",
			Help: "Total number of background job runs",
		},
		[]string{"job", "result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

// InitMetrics 注册应用指标，未启用时不做任何事.
// config.Labels 作为常量标签附加到所有应用指标上.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			PresignedUploads, KitContentsCreated, KitsDiscarded,
			SubmissionsTotal, PhaseDuration, UploadsTotal, UploadedBytes,
			JobRuns,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}

		// 运行时收集器默认注册在全局 registry 中
		if !config.RuntimeMetrics {
			prometheus.Unregister(collectors.NewGoCollector())
			prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}
	})

	return err
}

// Gatherer 合并应用注册表与全局注册表，GORM 插件注册在全局注册表中.
func Gatherer() prometheus.Gatherer {
	return prometheus.Gatherers{registry, prometheus.DefaultGatherer}
}

// Mount 在 engine 上挂载指标端点，开启 Pprof 时一并挂载 /debug/pprof.
func Mount(config configs.MetricsConfig, engine *gin.Engine) {
	if !config.Enabled {
		return
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}
}

// GetRegistry 应用注册表，watermill 的指标也注册在这里.
func GetRegistry() *prometheus.Registry {
	return registry
}
