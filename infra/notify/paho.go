// Package notify publishes board change messages over MQTT using Eclipse
// Paho. Wall displays subscribe to the change topic and refetch the board
// when a message arrives; the last message is retained so late joiners catch
// up immediately.
package notify

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT notifier.
type Config struct {
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Topic      string      `json:"topic"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	QoS        byte        `json:"qos"`
	Retain     bool        `json:"retain"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// DefaultTopic is used when the config leaves the topic empty.
const DefaultTopic = "motorpool/board/changes"

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoNotifier publishes change messages to a single MQTT topic.
type PahoNotifier struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewPahoNotifier connects to the MQTT broker.
func NewPahoNotifier(cfg Config) (*PahoNotifier, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("notify")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	n := &PahoNotifier{
		topic:      topic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "motorpool-board"
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type changeMessage struct {
	Op      string `json:"op"`
	EntryID int    `json:"entry_id,omitempty"`
	Summary string `json:"summary,omitempty"`
	Records int    `json:"records"`
	Time    int64  `json:"timestamp"`
}

// NotifyChange publishes the change to the topic, retrying transient publish
// failures with exponential backoff.
func (n *PahoNotifier) NotifyChange(ev events.MutationEvent) error {
	payload, err := json.Marshal(changeMessage{
		Op:      ev.Op,
		EntryID: ev.EntryID,
		Summary: ev.Summary,
		Records: ev.Records,
		Time:    time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	maxRetries := n.maxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := n.backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		token := n.cli.Publish(n.topic, n.qos, n.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			n.log.Debugf("published %s change to %s", ev.Op, n.topic)
			return nil
		}
		n.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (n *PahoNotifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
