package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test_namespace")
			subsystemOpt := WithSubsystem("test_subsystem")
			metricPrefixOpt := WithMetricPrefix("test_prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})

		Convey("When zero values are passed", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "matchsim")
				So(m.subsystem, ShouldEqual, "engine")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})

			Convey("And metric names carry the namespace and prefix", func() {
				manager.ticksSimulated.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_test_prefix_ticks_simulated_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording engine metrics", func() {
			Convey("Then simulated matches are counted per outcome", func() {
				before := gathered("matchsim_engine_matches_simulated_total", "outcome", "draw")
				RecordMatchSimulated("draw")
				RecordMatchSimulated("draw")
				So(gathered("matchsim_engine_matches_simulated_total", "outcome", "draw"), ShouldEqual, before+2)
			})

			Convey("And swallowed snapshot failures are counted", func() {
				before := gathered("matchsim_engine_snapshot_publish_errors_total")
				RecordSnapshotPublishError()
				So(gathered("matchsim_engine_snapshot_publish_errors_total"), ShouldEqual, before+1)
			})

			Convey("And the remaining engine recorders do not panic", func() {
				So(func() {
					RecordSimulationDuration(12.5)
					RecordTicks(720)
					RecordScore("goal", 12)
					RecordScore("behind", 9)
					RecordInjury("minor")
					RecordInterchanges(40)
					RecordInjuryReplacements(1)
					RecordSnapshotPublished()
					RecordSimulationError("insufficient_roster")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording round and storage metrics", func() {
			Convey("Then gauges reflect the latest values", func() {
				UpdateMatchesPending(9)
				UpdateResultsStored(4)
				So(gathered("matchsim_engine_matches_pending"), ShouldEqual, 9)
				So(gathered("matchsim_engine_results_stored"), ShouldEqual, 4)
			})

			Convey("And stream clients move by delta", func() {
				before := gathered("matchsim_engine_stream_clients")
				UpdateStreamClients(1)
				UpdateStreamClients(1)
				UpdateStreamClients(-1)
				So(gathered("matchsim_engine_stream_clients"), ShouldEqual, before+1)
			})

			Convey("And the counters do not panic", func() {
				So(func() {
					RecordRoundSubmitted()
					RecordInjuryHistoryError("load")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/api/v1/matches", "POST", "200")
				RecordHTTPRequestDuration("/api/v1/matches", "POST", "200", 3.2)
			}, ShouldNotPanic)
		})

		Convey("When recording queue metrics", func() {
			UpdateQueueCapacity(100)
			UpdateQueueSize(25)
			UpdateQueueUtilization(0.25)

			Convey("Then the gauges hold the values", func() {
				So(gathered("matchsim_engine_queue_capacity"), ShouldEqual, 100)
				So(gathered("matchsim_engine_queue_size"), ShouldEqual, 25)
				So(gathered("matchsim_engine_queue_utilization_ratio"), ShouldEqual, 0.25)
			})

			Convey("And the counters do not panic", func() {
				So(func() {
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(0.4)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording worker metrics", func() {
			So(func() {
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerActiveCount(-1)
				RecordWorkerProcessingLatency(20)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording error metrics", func() {
			So(func() {
				RecordErrorByComponent("replay", "write")
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/api/v1/rounds", "POST", "bad_request")
				RecordErrorLatency("engine", "sink", 1.5)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		RecordTicks(1)
		families, err := GetRegistry().Gather()

		Convey("Then it exposes matchsim metrics only", func() {
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
			for _, mf := range families {
				So(strings.HasPrefix(mf.GetName(), "matchsim_"), ShouldBeTrue)
			}
		})
	})
}

// gathered reads a counter or gauge value from the global registry. The
// optional labelPair narrows the series by one label name and value.
func gathered(name string, labelPair ...string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if len(labelPair) == 2 && !hasLabel(m.GetLabel(), labelPair[0], labelPair[1]) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func hasLabel[L interface {
	GetName() string
	GetValue() string
}](labels []L, name, value string) bool {
	for _, l := range labels {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}
