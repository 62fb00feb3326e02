package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/odom_plotter/internal/config"
	"github.com/relabs-tech/odom_plotter/internal/odometry"
)

// RunOdomProducer publishes mock odometry on the odometry topic until ctx is done.
func RunOdomProducer(ctx context.Context) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(disconnectQuiesceMs)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	return publishOdometry(ctx, client, cfg.TopicOdom, odometry.NewMockSource(), cfg.ProduceEvery())
}

func publishOdometry(ctx context.Context, client mqtt.Client, topic string, src odometry.Source, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("producer: shutting down")
			return nil
		case <-ticker.C:
		}

		odom, err := src.Next()
		if err != nil {
			log.Printf("producer: error from odometry source: %v", err)
			continue
		}
		if err := publishJSON(client, topic, odom); err != nil {
			log.Printf("producer: %v", err)
		}
	}
}

func publishJSON(client mqtt.Client, topic string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, token.Error())
	}
	return nil
}
