// Package mqtt carries orb lifecycle messages between the studio and the
// strategy runners: it publishes retained orb status and ingests
// performance reports.
package mqtt

import (
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/OrbFi/internal/events"
)

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 10 * time.Second
)

// Conn is the part of the broker connection the notifier and subscriber use.
type Conn interface {
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, handler paho.MessageHandler) error
	IsConnected() bool
}

// Client wraps the Paho MQTT client for the studio.
type Client struct {
	client paho.Client
	broker string
	mu     sync.Mutex

	onConnect []func()
	onLost    []func(error)
}

// NewClient creates a client for broker but does not connect. Handlers
// registered with OnConnect run after every (re)connect.
func NewClient(broker, clientID string) *Client {
	c := &Client{broker: broker}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetOnConnectHandler(func(paho.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { c.handleLost(err) })

	c.client = paho.NewClient(opts)
	return c
}

// OnConnect registers fn to run after each successful connect.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// OnConnectionLost registers fn to run when the broker connection drops.
func (c *Client) OnConnectionLost(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLost = append(c.onLost, fn)
}

func (c *Client) handleConnect() {
	log.Printf("mqtt: connected to %s", c.broker)
	events.Emit("info", "mqtt.connected", "", map[string]interface{}{"broker": c.broker})

	c.mu.Lock()
	handlers := append([]func(){}, c.onConnect...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (c *Client) handleLost(err error) {
	log.Printf("mqtt: connection to %s lost: %v", c.broker, err)
	events.Emit("warning", "mqtt.disconnected", "", map[string]interface{}{
		"broker": c.broker,
		"error":  err.Error(),
	})

	c.mu.Lock()
	handlers := append([]func(error){}, c.onLost...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

// Connect attempts to connect to the broker without blocking indefinitely.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return &ConnectTimeoutError{Broker: c.broker}
	}
	return token.Error()
}

// Publish sends payload at QoS 1.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	token := c.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(operationTimeout) {
		return &TimeoutError{Op: "publish", Topic: topic}
	}
	return token.Error()
}

// Subscribe subscribes to a topic filter at QoS 1.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(operationTimeout) {
		return &TimeoutError{Op: "subscribe", Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.client.Disconnect(1000)
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// ConnectTimeoutError indicates the broker did not answer in time.
type ConnectTimeoutError struct {
	Broker string
}

func (e *ConnectTimeoutError) Error() string {
	return "mqtt connect timeout: " + e.Broker
}

// TimeoutError indicates a publish or subscribe was not acknowledged in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout: " + e.Topic
}
