package app

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/odom_plotter/internal/config"
	"github.com/relabs-tech/odom_plotter/internal/gps"
)

// RunGPSOdomProducer opens the GPS serial port, parses NMEA sentences, and
// publishes each valid RMC fix as odometry in a local plane.
func RunGPSOdomProducer(ctx context.Context) error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(disconnectQuiesceMs)
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// closing the port unblocks the reader on shutdown
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	proj := &gps.Projector{FrameID: "map"}
	err = readFixes(port, func(f gps.Fix) error {
		odom, ok := proj.Project(f, time.Now())
		if !ok {
			return nil
		}
		if err := publishJSON(client, cfg.TopicOdom, odom); err != nil {
			log.Printf("gps: %v", err)
			return nil
		}
		log.Printf("gps: published fix %+v as x=%.2f y=%.2f", f,
			odom.Pose.Pose.Position.X, odom.Pose.Pose.Position.Y)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readFixes scans NMEA lines from r and calls fn for every RMC sentence.
// Unparseable lines are skipped. It returns when r fails or fn does.
func readFixes(r io.Reader, fn func(gps.Fix) error) error {
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy GPS or partial sentences
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeRMC:
			if err := fn(gps.FixFromRMC(sentence.(nmea.RMC))); err != nil {
				return err
			}
		default:
			// GGA, GSA, GSV carry nothing the plane projection needs
		}
	}
}
