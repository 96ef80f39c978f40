package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resumestudio"

var (
	resumeSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "简历持久化写入次数，按结果区分。",
		},
		[]string{"result"},
	)

	resumeUpdatesCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "updates_coalesced_total",
			Help:      "被后续编辑合并、未单独写入的更新次数。",
		},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "导出次数，按格式与结果区分。",
		},
		[]string{"format", "result"},
	)
)

// ObserveSave 记录一次持久化写入。
func ObserveSave(err error) {
	resumeSavesTotal.WithLabelValues(result(err)).Inc()
}

// ObserveCoalesced 记录一次被合并的更新。
func ObserveCoalesced() {
	resumeUpdatesCoalesced.Inc()
}

// ObserveExport 记录一次导出。
func ObserveExport(format string, err error) {
	exportsTotal.WithLabelValues(format, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
