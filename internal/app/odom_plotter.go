// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/odom_plotter/internal/config"
	"github.com/relabs-tech/odom_plotter/internal/metrics"
	"github.com/relabs-tech/odom_plotter/internal/odometry"
	"github.com/relabs-tech/odom_plotter/internal/plot"
	"github.com/relabs-tech/odom_plotter/internal/trajectory"
)

const disconnectQuiesceMs = 250

// plotterNode wires the MQTT subscription to the sampler.
type plotterNode struct {
	cfg     *config.Config
	client  mqtt.Client
	metrics *metrics.Sampler
	sampler *trajectory.Sampler
	inbox   *inbox
	live    *liveView
}

func newPlotterNode(cfg *config.Config, client mqtt.Client) *plotterNode {
	n := &plotterNode{
		cfg:     cfg,
		client:  client,
		metrics: metrics.NewSampler(),
	}
	n.inbox = newInbox(cfg.OdomQueueDepth, n.metrics.InboxOverflow.Inc)

	opts := []trajectory.Option{
		trajectory.WithInterval(cfg.SampleEvery()),
		trajectory.WithMetrics(n.metrics),
	}
	if cfg.WebServerPort > 0 {
		n.live = newLiveView(n.metrics)
		opts = append(opts, trajectory.WithOnAccept(n.live.publish))
	}
	n.sampler = trajectory.NewSampler(opts...)
	return n
}

func (n *plotterNode) start() error {
	if token := n.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", n.cfg.MQTTBroker, token.Error())
	}
	log.Printf("plotter: connected to MQTT broker at %s", n.cfg.MQTTBroker)

	token := n.client.Subscribe(n.cfg.TopicOdom, 0, func(_ mqtt.Client, msg mqtt.Message) {
		n.inbox.push(odometry.RawMessage(msg.Payload()))
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", n.cfg.TopicOdom, token.Error())
	}
	log.Printf("plotter: subscribed to %s (queue depth %d)", n.cfg.TopicOdom, n.cfg.OdomQueueDepth)
	return nil
}

// spin blocks until ctx is done or a message cannot be handled.
func (n *plotterNode) spin(ctx context.Context) error {
	return spin(ctx, n.inbox.ch, n.sampler.Handle)
}

func (n *plotterNode) stopReceiving() {
	if token := n.client.Unsubscribe(n.cfg.TopicOdom); token.Wait() && token.Error() != nil {
		log.Printf("plotter: unsubscribe error: %v", token.Error())
	}
}

func (n *plotterNode) disconnect() {
	n.client.Disconnect(disconnectQuiesceMs)
	log.Println("plotter: disconnected")
}

func (n *plotterNode) logSummary() {
	s := n.sampler.Trajectory().Summary()
	log.Printf("plotter: %d samples, path length %.3f, x [%.3f, %.3f], y [%.3f, %.3f]",
		s.Samples, s.PathLength, s.MinX, s.MaxX, s.MinY, s.MaxY)
}

// newViewer picks the plot viewer named by cfg. onClose runs when a
// window viewer is dismissed, since that viewer never returns.
func newViewer(cfg *config.Config, onClose func()) (plot.Viewer, error) {
	size := plot.SizeInches(cfg.PlotWidthInches, cfg.PlotHeightInches)
	switch cfg.PlotViewer {
	case config.ViewerWindow:
		return plot.WindowViewer{Size: size, OnClose: onClose}, nil
	case config.ViewerExternal:
		return plot.NewExternalViewer(cfg.PlotViewerCommand, size)
	case config.ViewerFile:
		return plot.FileViewer{Path: cfg.PlotOutput, Size: size}, nil
	case config.ViewerNone:
		return plot.NoneViewer{}, nil
	default:
		return nil, fmt.Errorf("unknown plot viewer %q", cfg.PlotViewer)
	}
}

// RunOdomPlotter subscribes to the odometry topic, records throttled
// positions until ctx is cancelled, then renders the trajectory once and
// disconnects.
func RunOdomPlotter(ctx context.Context) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDPlotter).
		SetOrderMatters(true)

	return runOdomPlotter(ctx, cfg, mqtt.NewClient(opts))
}

func runOdomPlotter(ctx context.Context, cfg *config.Config, client mqtt.Client) error {
	viewer, err := newViewer(cfg, func() { client.Disconnect(disconnectQuiesceMs) })
	if err != nil {
		return err
	}

	n := newPlotterNode(cfg, client)
	if err := n.start(); err != nil {
		return err
	}

	webCtx, stopWeb := context.WithCancel(ctx)
	defer stopWeb()
	if n.live != nil {
		go func() {
			if err := n.live.serve(webCtx, cfg.WebServerPort); err != nil {
				log.Printf("web: %v", err)
			}
		}()
	}

	if err := n.spin(ctx); err != nil {
		n.disconnect()
		return fmt.Errorf("odometry callback: %w", err)
	}

	log.Println("plotter: interrupt received, rendering trajectory")
	n.stopReceiving()
	n.logSummary()

	if err := plot.Render(n.sampler.Trajectory(), viewer); err != nil {
		n.disconnect()
		return fmt.Errorf("render trajectory: %w", err)
	}

	n.disconnect()
	return nil
}
