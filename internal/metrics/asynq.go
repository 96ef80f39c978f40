package metrics

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "worker 处理的导出任务数，按类型与结果区分。",
		},
		[]string{"task_type", "result"},
	)

	exportTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "单个导出任务渲染与上传的耗时（秒）。",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"task_type"},
	)

	exportTasksInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_in_progress",
			Help:      "正在处理的导出任务数。",
		},
		[]string{"task_type"},
	)
)

// AsynqMetricsMiddleware 记录导出任务的数量、耗时与并发。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			exportTasksInProgress.WithLabelValues(taskType).Inc()
			defer exportTasksInProgress.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			exportTaskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			exportTasksTotal.WithLabelValues(taskType, result(err)).Inc()
			return err
		})
	}
}
