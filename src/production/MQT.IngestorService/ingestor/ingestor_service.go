package mqtingestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	config "github.com/haxx668/backendmonitoring/src/production/MQT.Config"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

// Forwarder is the API side of the ingest path
type Forwarder interface {
	ValidateAlat(ctx context.Context, idalat string) (bool, error)
	CreateReading(ctx context.Context, reading hardware_models.ReadingWithTopic) error
}

type Ingestor struct {
	cfg        *config.IngestorConfig
	forwarder  Forwarder
	mqttClient mqtt.Client
	msgCh      chan hardware_models.ReadingWithTopic
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	logger     *logger.Logger

	// publish sends feedback to the device; replaced in tests
	publish func(topic string, payload []byte) error
}

func New(cfg *config.IngestorConfig, forwarder Forwarder, log *logger.Logger) *Ingestor {
	i := &Ingestor{
		cfg:       cfg,
		forwarder: forwarder,
		msgCh:     make(chan hardware_models.ReadingWithTopic, 4096),
		stopCh:    make(chan struct{}),
		logger:    log.WithComponent("ingestor"),
	}
	i.publish = i.mqttPublish
	return i
}

func (i *Ingestor) Start(ctx context.Context) error {
	mc := i.cfg.MQTT

	clientID := mc.ClientID
	if mc.SharedGroup != "" {
		// replicas in a shared group need distinct client ids
		clientID = fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])
	}

	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.GetMQTTBrokerURL()).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetKeepAlive(mc.KeepAlive).
		SetPingTimeout(mc.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if mc.BrokerUser != "" {
		opts.SetUsername(mc.BrokerUser)
		opts.SetPassword(mc.BrokerPass)
	}

	if mc.UseTLS {
		tlsCfg, err := tlsConfig(mc.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		topic := subscriptionTopic(mc.Topic, mc.SharedGroup)
		i.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	i.mqttClient = mqtt.NewClient(opts)
	if tk := i.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	i.runBatchWriter(ctx)
	return nil
}

func (i *Ingestor) runBatchWriter(ctx context.Context) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.batchWriter(ctx)
	}()
}

// Stop disconnects, flushes what is queued and waits for the batch writer
func (i *Ingestor) Stop() {
	if i.mqttClient != nil && i.mqttClient.IsConnected() {
		i.mqttClient.Disconnect(500)
	}
	i.stopOnce.Do(func() { close(i.stopCh) })
	i.wg.Wait()
}

func (i *Ingestor) IsConnected() bool {
	return i.mqttClient != nil && i.mqttClient.IsConnected()
}

func subscriptionTopic(topic, sharedGroup string) string {
	if sharedGroup == "" {
		return topic
	}
	return fmt.Sprintf("$share/%s/%s", sharedGroup, topic)
}

// parseTopic extracts the alat id from monitoring/<idalat>
func parseTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return "", false
	}
	idalat := strings.TrimSpace(parts[len(parts)-1])
	if idalat == "" {
		return "", false
	}
	return idalat, true
}

// decodePayload keeps non-JSON payloads under "raw"
func decodePayload(raw []byte) map[string]interface{} {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return map[string]interface{}{"raw": string(raw)}
	}
	return payload
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.handleMessage(m.Topic(), m.Payload())
}

func (i *Ingestor) handleMessage(topic string, raw []byte) {
	i.logger.Logger.Debug().Str("topic", topic).Int("bytes", len(raw)).Msg("Received MQTT message")

	idalat, ok := parseTopic(topic)
	if !ok {
		i.logger.Logger.Warn().Str("topic", topic).Str("expected", "monitoring/<idalat>").Msg("Invalid topic format")
		i.publishError("unknown", "invalid_topic", fmt.Sprintf("Invalid topic format: %s, expected: monitoring/<idalat>", topic))
		return
	}

	reading := hardware_models.ReadingWithTopic{
		ReadingID:  uuid.NewString(),
		IDAlat:     idalat,
		Topic:      topic,
		Payload:    decodePayload(raw),
		ReceivedAt: time.Now().UTC(),
	}

	select {
	case i.msgCh <- reading:
	case <-i.stopCh:
		i.logger.Logger.Warn().Str("idalat", idalat).Msg("Dropping reading, ingestor stopping")
	}
}

func (i *Ingestor) batchWriter(ctx context.Context) {
	batch := make([]hardware_models.ReadingWithTopic, 0, i.cfg.Batch.Size)
	timer := time.NewTimer(i.cfg.Batch.Window)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		i.flush(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-i.stopCh:
			// drain what is already queued
			for {
				select {
				case rd := <-i.msgCh:
					batch = append(batch, rd)
				default:
					flush()
					return
				}
			}
		case rd := <-i.msgCh:
			batch = append(batch, rd)
			if len(batch) >= i.cfg.Batch.Size {
				flush()
				// Reset discards a pending fire since go1.23
				timer.Reset(i.cfg.Batch.Window)
			}
		case <-timer.C:
			flush()
			timer.Reset(i.cfg.Batch.Window)
		}
	}
}

// flush forwards a batch. Each alat is validated once per batch.
func (i *Ingestor) flush(ctx context.Context, batch []hardware_models.ReadingWithTopic) {
	i.logger.Logger.Info().Int("batch_size", len(batch)).Msg("Flushing batch to API Service")

	known := make(map[string]bool)
	forwarded := 0

	for _, rd := range batch {
		reqCtx := logger.ContextWithRequestID(ctx, uuid.NewString())

		exists, checked := known[rd.IDAlat]
		if !checked {
			var err error
			exists, err = i.forwarder.ValidateAlat(reqCtx, rd.IDAlat)
			if err != nil {
				i.logger.Logger.Error().Err(err).Str("idalat", rd.IDAlat).Msg("Failed to validate alat via API")
				i.publishError(rd.IDAlat, "alat_validation_error", fmt.Sprintf("Failed to validate alat %s: %v", rd.IDAlat, err))
				continue
			}
			known[rd.IDAlat] = exists
		}
		if !exists {
			i.logger.Logger.Warn().Str("idalat", rd.IDAlat).Msg("Skipping reading: alat not registered")
			i.publishError(rd.IDAlat, "alat_not_found", fmt.Sprintf("Alat %s is not registered", rd.IDAlat))
			continue
		}

		if err := i.forwarder.CreateReading(reqCtx, rd); err != nil {
			i.logger.Logger.Error().Err(err).Str("idalat", rd.IDAlat).Msg("Error creating reading via API")
			i.publishError(rd.IDAlat, "create_reading_error", fmt.Sprintf("Failed to create reading: %v", err))
			continue
		}
		forwarded++
	}

	i.logger.Logger.Info().Int("count", forwarded).Int("skipped", len(batch)-forwarded).Msg("Processed readings")
}

func tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}

// publishError sends an error report back to the alat on ingestor/errors/<idalat>
func (i *Ingestor) publishError(idalat, errorType, message string) {
	errorPayload := map[string]interface{}{
		"error_type": errorType,
		"message":    message,
		"idalat":     idalat,
		"timestamp":  time.Now().UTC(),
	}

	payloadJSON, err := json.Marshal(errorPayload)
	if err != nil {
		i.logger.Logger.Error().Err(err).Msg("Failed to marshal error payload")
		return
	}

	errorTopic := fmt.Sprintf("ingestor/errors/%s", idalat)
	if err := i.publish(errorTopic, payloadJSON); err != nil {
		i.logger.Logger.Error().Err(err).Str("topic", errorTopic).Msg("Failed to publish error")
		return
	}
	i.logger.Logger.Info().Str("topic", errorTopic).Str("message", message).Msg("Published error")
}

func (i *Ingestor) mqttPublish(topic string, payload []byte) error {
	if i.mqttClient == nil || !i.mqttClient.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	token := i.mqttClient.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}
