package observability

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Metrics tracks counters for a single gemquality run.
type Metrics struct {
	// Fetch metrics
	DocumentsFetched atomic.Int64
	DocumentsFailed  atomic.Int64
	BytesDownloaded  atomic.Int64

	// Extraction metrics
	GemsExtracted  atomic.Int64
	GemsDropped    atomic.Int64
	MalformedPairs atomic.Int64

	// Resolution metrics
	QualitiesResolved   atomic.Int64
	QualitiesUnresolved atomic.Int64

	// Export metrics
	GemsStored atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type metric struct {
	name  string
	help  string
	value int64
}

func (m *Metrics) all() []metric {
	return []metric{
		{"gemquality_documents_fetched_total", "Total source documents fetched", m.DocumentsFetched.Load()},
		{"gemquality_documents_failed_total", "Total source documents that could not be fetched", m.DocumentsFailed.Load()},
		{"gemquality_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"gemquality_gems_extracted_total", "Total gems extracted", m.GemsExtracted.Load()},
		{"gemquality_gems_dropped_total", "Total gems dropped by the pipeline", m.GemsDropped.Load()},
		{"gemquality_malformed_pairs_total", "Total malformed quality pairs skipped", m.MalformedPairs.Load()},
		{"gemquality_qualities_resolved_total", "Total quality stats with a translation", m.QualitiesResolved.Load()},
		{"gemquality_qualities_unresolved_total", "Total quality stats without a translation", m.QualitiesUnresolved.Load()},
		{"gemquality_gems_stored_total", "Total gems exported", m.GemsStored.Load()},
	}
}

// WriteTo writes all counters in Prometheus text exposition format.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, metric := range m.all() {
		n, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n",
			metric.name, metric.help, metric.name, metric.name, metric.value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteFile dumps the counters to path for the node exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename metrics file: %w", err)
	}

	m.logger.Debug("metrics written", "path", path)
	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"documents_fetched":    m.DocumentsFetched.Load(),
		"documents_failed":     m.DocumentsFailed.Load(),
		"bytes_downloaded":     m.BytesDownloaded.Load(),
		"gems_extracted":       m.GemsExtracted.Load(),
		"gems_dropped":         m.GemsDropped.Load(),
		"malformed_pairs":      m.MalformedPairs.Load(),
		"qualities_resolved":   m.QualitiesResolved.Load(),
		"qualities_unresolved": m.QualitiesUnresolved.Load(),
		"gems_stored":          m.GemsStored.Load(),
	}
}

// LogSummary logs the run totals at info level.
func (m *Metrics) LogSummary() {
	m.logger.Info("run summary",
		"documents_fetched", m.DocumentsFetched.Load(),
		"documents_failed", m.DocumentsFailed.Load(),
		"gems_extracted", m.GemsExtracted.Load(),
		"gems_dropped", m.GemsDropped.Load(),
		"qualities_resolved", m.QualitiesResolved.Load(),
		"qualities_unresolved", m.QualitiesUnresolved.Load(),
		"malformed_pairs", m.MalformedPairs.Load(),
	)
}
