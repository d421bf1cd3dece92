// Package mqtt carries plan requests and computed plans over an MQTT broker.
// Drivers (or the charge point backend acting for them) publish PlanRequest
// JSON on the request topic; the service answers on a per-session plan topic.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled         bool        `json:"enabled"`
	Broker          string      `json:"broker"`
	ClientID        string      `json:"client_id"`
	Username        string      `json:"username"`
	Password        string      `json:"password"`
	RequestTopic    string      `json:"request_topic"`
	PlanTopicPrefix string      `json:"plan_topic_prefix"`
	QoS             byte        `json:"qos"`
	UseTLS          bool        `json:"use_tls"`
	ClientCert      string      `json:"client_cert"`
	ClientKey       string      `json:"client_key"`
	CABundle        string      `json:"ca_bundle"`
	TLSConfig       *tls.Config `json:"-"`
}

// SetDefaults fills unset fields with working values.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = "chargeplan"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "chargeplan/request"
	}
	if c.PlanTopicPrefix == "" {
		c.PlanTopicPrefix = "chargeplan/plan"
	}
}

// RequestHandler receives decoded plan requests from the request topic.
type RequestHandler func(req model.PlanRequest)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Client wraps an Eclipse Paho connection for plan request/response traffic.
type Client struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger
}

// NewClient connects to the broker.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	opts, err := newClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	opts.OnConnect = func(_ paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Client{cli: c, cfg: cfg, logger: log}, nil
}

func newClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
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

// SubscribeRequests registers the handler for incoming plan requests.
// Malformed payloads are logged and dropped.
func (c *Client) SubscribeRequests(handler RequestHandler) error {
	token := c.cli.Subscribe(c.cfg.RequestTopic, c.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		var req model.PlanRequest
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			c.logger.Errorf("failed to decode plan request: %v", err)
			return
		}
		handler(req)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	c.logger.Infof("subscribed to %s", c.cfg.RequestTopic)
	return nil
}

// PublishPlan publishes a computed plan on the session specific topic.
func (c *Client) PublishPlan(sessionID string, plan model.ChargingPlan) error {
	payload, err := json.Marshal(struct {
		SessionID string             `json:"session_id"`
		Plan      model.ChargingPlan `json:"plan"`
		Timestamp int64              `json:"timestamp"`
	}{SessionID: sessionID, Plan: plan, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s", c.cfg.PlanTopicPrefix, sessionID)
	token := c.cli.Publish(topic, c.cfg.QoS, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	c.logger.Debugf("published plan for session %s to %s", sessionID, topic)
	return nil
}

// Disconnect gracefully closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
