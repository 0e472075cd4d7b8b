package telemetry

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/born-ml/graphite/internal/engine"
)

// AllocatorCollector reports an Allocator's statistics at scrape time. Every
// metric carries the allocator's id as a constant label.
type AllocatorCollector struct {
	alloc *engine.Allocator

	allocations      *prometheus.Desc
	deallocations    *prometheus.Desc
	bytesAllocated   *prometheus.Desc
	bytesDeallocated *prometheus.Desc
	bytesInUse       *prometheus.Desc
	liveBuffers      *prometheus.Desc
	liveOperations   *prometheus.Desc
}

// NewAllocatorCollector creates a collector for alloc under namespace.
func NewAllocatorCollector(namespace string, alloc *engine.Allocator) *AllocatorCollector {
	labels := prometheus.Labels{"allocator": alloc.ID().String()}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "allocator", name), help, nil, labels)
	}

	return &AllocatorCollector{
		alloc:            alloc,
		allocations:      desc("allocations_total", "Buffers and operations registered."),
		deallocations:    desc("deallocations_total", "Buffers and operations freed."),
		bytesAllocated:   desc("allocated_bytes_total", "Bytes allocated, headers and storage."),
		bytesDeallocated: desc("deallocated_bytes_total", "Bytes released, headers and storage."),
		bytesInUse:       desc("in_use_bytes", "Bytes currently allocated."),
		liveBuffers:      desc("live_buffers", "Buffers not yet freed."),
		liveOperations:   desc("live_operations", "Operations not yet freed."),
	}
}

// Describe implements prometheus.Collector.
func (c *AllocatorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocations
	ch <- c.deallocations
	ch <- c.bytesAllocated
	ch <- c.bytesDeallocated
	ch <- c.bytesInUse
	ch <- c.liveBuffers
	ch <- c.liveOperations
}

// Collect implements prometheus.Collector.
func (c *AllocatorCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.alloc.Stats()

	ch <- prometheus.MustNewConstMetric(c.allocations, prometheus.CounterValue, float64(s.Allocations))
	ch <- prometheus.MustNewConstMetric(c.deallocations, prometheus.CounterValue, float64(s.Deallocations))
	ch <- prometheus.MustNewConstMetric(c.bytesAllocated, prometheus.CounterValue, float64(s.BytesAllocated))
	ch <- prometheus.MustNewConstMetric(c.bytesDeallocated, prometheus.CounterValue, float64(s.BytesDeallocated))
	ch <- prometheus.MustNewConstMetric(c.bytesInUse, prometheus.GaugeValue, float64(s.BytesInUse))
	ch <- prometheus.MustNewConstMetric(c.liveBuffers, prometheus.GaugeValue, float64(c.alloc.LiveBuffers()))
	ch <- prometheus.MustNewConstMetric(c.liveOperations, prometheus.GaugeValue, float64(c.alloc.LiveOperations()))
}

// WriteText gathers g and writes every family in the text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
