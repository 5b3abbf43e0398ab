/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Command ap-softapd runs the Soft Access Point lifecycle manager: it wires
// C2-C8 into a running fsm.Manager (the C1 scan cache is not used here),
// drives its Loop in a goroutine, and
// exposes a Prometheus metrics endpoint alongside it. The driver adapter
// itself (internal/driveriface.Iface) is an injected, platform-specific
// collaborator — out of this package's scope per spec.md §1 — so main only
// ever talks to it through that interface.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"bg/internal/aplog"
	"bg/internal/boottime"
	"bg/internal/driverevent"
	"bg/internal/driveriface"
	"bg/internal/fsm"
	"bg/internal/mcpstate"
	"bg/internal/model"
)

var (
	pname = "ap-softapd"

	metricsAddr string
	logLevel    string
	ssid        string
	band        string
	countryCode string
)

var cleanup struct {
	wg sync.WaitGroup
}

func addDoneChan() chan bool {
	dc := make(chan bool, 1)
	cleanup.wg.Add(1)
	return dc
}

func signalHandler(wg *sync.WaitGroup, doneChan chan bool, slog interface{ Infof(string, ...interface{}) }) {
	defer wg.Done()

	sig := make(chan os.Signal, 3)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case s := <-sig:
			slog.Infof("received signal %v", s)
			return
		case <-doneChan:
			return
		}
	}
}

// metrics implements eventbus.MetricsSink over Prometheus counters.
type metrics struct {
	startSuccess  prometheus.Counter
	startFailure  *prometheus.CounterVec
	channelSwitch prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		startSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "softapd_start_success_total",
			Help: "Number of successful Soft-AP startups.",
		}),
		startFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "softapd_start_failure_total",
			Help: "Number of failed Soft-AP startups, by reason.",
		}, []string{"reason"}),
		channelSwitch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "softapd_channel_switch_total",
			Help: "Number of SoftApInfo changes from SOFT_AP_CHANNEL_SWITCHED events.",
		}),
	}
	prometheus.MustRegister(m.startSuccess, m.startFailure, m.channelSwitch)
	return m
}

func (m *metrics) IncStartSuccess() { m.startSuccess.Inc() }
func (m *metrics) IncStartFailure(reason model.FailureReason) {
	m.startFailure.WithLabelValues(reason.String()).Inc()
}
func (m *metrics) IncChannelSwitch() { m.channelSwitch.Inc() }

// listener implements eventbus.Listener, logging every callback. A real
// deployment would forward these onto whatever out-of-scope notification
// surface owns user-facing messaging (spec.md §1); here they are logged,
// the same placeholder role aputil.NewLogger-backed daemons give an
// unwired callback.
type listener struct {
	slog interface {
		Infof(string, ...interface{})
		Warnf(string, ...interface{})
	}
}

func (l *listener) OnStateChanged(newState model.ApState, reason model.FailureReason) {
	l.slog.Infof("state -> %s (reason=%v)", newState, reason)
}
func (l *listener) OnConnectedClientsChanged(clients []model.Client) {
	l.slog.Infof("connected clients: %d", len(clients))
}
func (l *listener) OnInfoChanged(info model.SoftApInfo) {
	l.slog.Infof("info changed: freq=%d bw=%v", info.FrequencyMHz, info.Bandwidth)
}
func (l *listener) OnStaConnected(mac model.MAC, count int) {
	l.slog.Infof("sta connected %s (count=%d)", mac, count)
}
func (l *listener) OnStaDisconnected(mac model.MAC, count int) {
	l.slog.Infof("sta disconnected %s (count=%d)", mac, count)
}
func (l *listener) OnBlockedClientConnecting(client model.Client, reason model.BlockReason) {
	l.slog.Warnf("blocked client %s: %s", client.MAC, reason)
}
func (l *listener) OnStarted() { l.slog.Infof("started") }
func (l *listener) OnStopped() { l.slog.Infof("stopped") }
func (l *listener) OnStartFailure(reason model.FailureReason) {
	l.slog.Warnf("start failure: %v", reason)
}

func run(cmd *cobra.Command, args []string) error {
	slog := aplog.New(pname)
	defer slog.Sync()
	if err := aplog.SetLevel(logLevel); err != nil {
		slog.Warnf("invalid log level %q: %v", logLevel, err)
	}
	slog.Infof("starting")

	mcp := mcpstate.New(func(prev, next mcpstate.State, _ time.Time) {
		slog.Infof("daemon state %s -> %s", prev, next)
	})
	mcp.SetState(mcpstate.Starting)

	cfg := model.SoftApConfiguration{
		SSID:        ssid,
		CountryCode: countryCode,
		AutoShutdown: true,
	}
	switch band {
	case "5GHZ":
		cfg.Band = model.Band5GHz
	case "ANY", "":
		cfg.Band = model.BandAny
	default:
		cfg.Band = model.Band2GHz
	}

	// driveriface.Fake stands in for the platform-specific hostapd/nl80211
	// adapter, which is an out-of-scope collaborator (spec.md §1): this
	// package only ever depends on the driveriface.Iface contract, so
	// swapping in a real adapter here is the only change a platform
	// build needs.
	driver := driveriface.New()
	promMetrics := newMetrics()

	// Capability is fixed at construction time (spec.md §9: "capability
	// traits consumed by constructor injection"); a real platform build
	// would query the driver/hal for its actual channel lists instead of
	// this stand-in.
	cap := model.SoftApCapability{
		Bits:       model.CapACSOffload | model.CapClientForceDisconnect,
		MaxClients: 16,
		ChannelsByBand: map[model.Band][]int{
			model.Band2GHz: {1, 6, 11},
			model.Band5GHz: {36, 40, 44, 48},
		},
		Supports5GHz: driver.Is5GHzBandSupported(),
	}

	manager := fsm.New(fsm.Config{
		Logger:     slog,
		Driver:     driver,
		Listener:   &listener{slog: slog},
		Broadcast:  nil,
		Metrics:    promMetrics,
		NowMS:      boottime.NowMS,
		TargetMode: model.ModeLocalOnly,
		Capability: cap,
	})
	if err := manager.SetRole(model.RoleLocalOnly); err != nil {
		slog.Warnf("SetRole: %v", err)
	}
	manager.UpdateConfiguration(cfg, false)

	// demux is the seam a control-socket reader goroutine would feed raw
	// driver lines/frames into via HandleStatusLine/HandleChannelSwitchLine/
	// HandleRadiotapFrame; that reader is part of the driver adapter
	// itself (out of scope here), so nothing drives demux yet.
	demux := driverevent.New(manager, slog)
	_ = demux

	go manager.Loop()
	manager.Start()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			slog.Warnf("metrics server: %v", err)
		}
	}()

	mcp.SetState(mcpstate.Online)

	go signalHandler(&cleanup.wg, addDoneChan(), slog)
	cleanup.wg.Wait()

	slog.Infof("cleaning up")
	manager.Stop()
	manager.Close()
	mcp.SetState(mcpstate.Offline)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   pname,
		Short: "Soft Access Point lifecycle manager",
		RunE:  run,
	}
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":7400",
		"address to serve /metrics on")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&ssid, "ssid", "", "Soft-AP SSID")
	rootCmd.PersistentFlags().StringVar(&band, "band", "ANY", "radio band: 2GHZ, 5GHZ, or ANY")
	rootCmd.PersistentFlags().StringVar(&countryCode, "country", "US", "regulatory country code")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", pname, err)
		os.Exit(1)
	}
}
