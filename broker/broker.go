package broker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gr-butler/highlow/config"
	logger "github.com/sirupsen/logrus"
)

const (
	connectTimeout = time.Second * 10
	publishTimeout = time.Second * 5
	quiesceMs      = 250
)

// Handler is called with the payload of every message on a subscribed topic.
type Handler func(topic string, payload []byte)

// Client is a thin wrapper round a paho client that remembers its
// subscriptions so they are restored after a reconnect.
type Client struct {
	client mqtt.Client
	qos    byte
	prefix string

	lock sync.Mutex
	subs map[string]Handler
}

func Connect(cfg config.MQTTConfig) (*Client, error) {
	b := &Client{
		qos:    cfg.QoS,
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		subs:   map[string]Handler{},
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnf("MQTT connection lost [%v]", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	b.client = mqtt.NewClient(opts)
	logger.Infof("Connecting to MQTT broker [%v]", cfg.Broker)
	tok := b.client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to [%v]", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect to [%v]: %w", cfg.Broker, err)
	}
	return b, nil
}

func (b *Client) onConnect(c mqtt.Client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	logger.Infof("MQTT connected, restoring [%v] subscriptions", len(b.subs))
	for topic, h := range b.subs {
		if err := b.subscribe(topic, h); err != nil {
			logger.Errorf("Resubscribe to [%v] failed [%v]", topic, err)
		}
	}
}

// Topic joins parts onto the configured prefix.
func (b *Client) Topic(parts ...string) string {
	return Topic(b.prefix, parts...)
}

func Topic(prefix string, parts ...string) string {
	all := append([]string{prefix}, parts...)
	return strings.Join(all, "/")
}

func (b *Client) Subscribe(topic string, h Handler) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subs[topic] = h
	return b.subscribe(topic, h)
}

func (b *Client) subscribe(topic string, h Handler) error {
	tok := b.client.Subscribe(topic, b.qos, func(_ mqtt.Client, m mqtt.Message) {
		h(m.Topic(), m.Payload())
	})
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out subscribing to [%v]", topic)
	}
	return tok.Error()
}

func (b *Client) Publish(topic string, payload []byte, retained bool) error {
	tok := b.client.Publish(topic, b.qos, retained, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to [%v]", topic)
	}
	return tok.Error()
}

func (b *Client) Close() {
	b.client.Disconnect(quiesceMs)
}
