package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/panel"
)

const (
	defaultNetworkTimeout = 30 * time.Second
	DefaultPrefix         = "touchpanel"

	StatusOnline  = "online"
	StatusOffline = "offline"
)

type MQTTConfig struct {
	Broker            string `hcl:"broker"`
	ClientID          string `hcl:"client_id"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"`
	Prefix            string `hcl:"prefix"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	LogDebug          bool   `hcl:"log_debug"`
}

// MQTT feeds env, time, sleep, widget state, QR text and page commands
// from broker topics into the panel and publishes unhandled clicks.
//
// Topics under prefix:
//   env         "<t> <h>" or {"t":..,"h":..}
//   time        HH:MM:SS
//   sleep       on|off
//   state/<id>  on|off
//   qr/<id>     text
//   page        next|prev|N
//   click/<id>  published on tap of widget without callback
//   status      retained online, will offline
type MQTT struct {
	Log *log2.Log

	// NewClient is replaced in tests.
	NewClient func(*mqtt.ClientOptions) mqtt.Client

	config  MQTTConfig
	poster  Poster
	m       mqtt.Client
	mopt    *mqtt.ClientOptions
	alive   *alive.Alive
	timeout time.Duration
	backoff helpers.Backoff

	topicPrefix string
	topicStatus string
	topicClick  string
}

func NewMQTT(config MQTTConfig, poster Poster, log *log2.Log) (*MQTT, error) {
	if config.Broker == "" {
		return nil, errors.NotValidf("mqtt broker empty")
	}
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	config.Prefix = strings.TrimRight(config.Prefix, "/")
	if config.ClientID == "" {
		config.ClientID = config.Prefix
	}
	self := &MQTT{
		Log:         log,
		NewClient:   mqtt.NewClient,
		config:      config,
		poster:      poster,
		topicPrefix: config.Prefix,
		topicStatus: config.Prefix + "/status",
		topicClick:  config.Prefix + "/click/",
	}
	self.timeout = helpers.IntSecondDefault(config.NetworkTimeoutSec, defaultNetworkTimeout)
	if self.timeout < 1*time.Second {
		self.timeout = 1 * time.Second
	}
	return self, nil
}

// Start connects in background and keeps subscriptions across reconnects.
// Returns immediately, broker may be unreachable for a long time.
func (self *MQTT) Start(a *alive.Alive) {
	mqttLog := self.Log.Clone(log2.LDebug)
	mqtt.CRITICAL = mqttLog
	mqtt.ERROR = mqttLog
	mqtt.WARN = mqttLog
	if self.config.LogDebug {
		mqtt.DEBUG = mqttLog
	}

	connectTimeout := self.timeout * 3
	keepaliveTimeout := helpers.IntSecondDefault(self.config.KeepaliveSec, self.timeout/2)
	self.backoff = helpers.Backoff{Min: 1 * time.Second, Max: connectTimeout, K: 2, Res: 100 * time.Millisecond}

	defaultHandler := func(_ mqtt.Client, msg mqtt.Message) {
		self.Log.Errorf("feed mqtt unexpected message topic=%s", msg.Topic())
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(self.config.Broker).
		SetAutoReconnect(true).
		SetBinaryWill(self.topicStatus, []byte(StatusOffline), 1, true).
		SetCleanSession(true).
		SetClientID(self.config.ClientID).
		SetConnectTimeout(connectTimeout).
		SetDefaultPublishHandler(defaultHandler).
		SetKeepAlive(keepaliveTimeout).
		SetMaxReconnectInterval(connectTimeout).
		SetOnConnectHandler(self.onConnect).
		SetConnectionLostHandler(self.onConnectionLost).
		SetOrderMatters(false).
		SetPingTimeout(self.timeout).
		SetWriteTimeout(self.timeout)
	if self.config.Username != "" {
		self.mopt.SetUsername(self.config.Username)
		self.mopt.SetPassword(self.config.Password)
	}
	self.m = self.NewClient(self.mopt)
	self.alive = a

	if !a.Add(1) {
		return
	}
	go func() {
		defer a.Done()
		self.online()
		<-a.StopChan()
		self.stop()
	}()
}

func (self *MQTT) online() {
	for self.alive.IsRunning() {
		self.Log.Debugf("feed mqtt connect broker=%s", self.config.Broker)
		t := self.m.Connect()
		if self.tokenWait(t, "connect") == nil {
			self.backoff.Reset()
			return // success path
		}
		self.backoff.Failure()
		delay := self.backoff.Next()
		self.Log.Debugf("feed mqtt connect retry in %s", delay)
		select {
		case <-time.After(delay):
		case <-self.alive.StopChan():
		}
	}
}

func (self *MQTT) stop() {
	if self.m.IsConnected() {
		t := self.m.Publish(self.topicStatus, 1, true, []byte(StatusOffline))
		_ = self.tokenWait(t, "publish status")
	}
	self.m.Disconnect(uint(self.timeout / time.Millisecond))
	self.Log.Debugf("feed mqtt stop")
}

// onConnect runs on every (re)connect, paho calls it in separate goroutine.
func (self *MQTT) onConnect(c mqtt.Client) {
	self.Log.Infof("feed mqtt connected broker=%s", self.config.Broker)
	subs := []struct {
		suffix  string
		handler mqtt.MessageHandler
	}{
		{"env", self.onEnv},
		{"time", self.onTime},
		{"sleep", self.onSleep},
		{"state/+", self.onState},
		{"qr/+", self.onQR},
		{"page", self.onPage},
	}
	for _, s := range subs {
		topic := self.topicPrefix + "/" + s.suffix
		t := c.Subscribe(topic, 1, s.handler)
		if err := self.tokenWait(t, "subscribe:"+topic); err != nil {
			return
		}
	}
	t := c.Publish(self.topicStatus, 1, true, []byte(StatusOnline))
	_ = self.tokenWait(t, "publish status")
}

func (self *MQTT) onConnectionLost(_ mqtt.Client, err error) {
	self.Log.Errorf("feed mqtt connection lost err=%v", err)
}

// PublishClick does not block caller, frame loop must keep running.
func (self *MQTT) PublishClick(id string) {
	if self.m == nil || !self.m.IsConnected() {
		self.Log.Debugf("feed mqtt click id=%s dropped, not connected", id)
		return
	}
	t := self.m.Publish(self.topicClick+id, 0, false, []byte("1"))
	go func() { _ = self.tokenWait(t, "publish click") }()
}

func (self *MQTT) onEnv(_ mqtt.Client, msg mqtt.Message) {
	temperature, humidity, err := ParseEnv(msg.Payload())
	if self.reject(msg, err) {
		return
	}
	self.poster.Post(func(p *panel.Panel) { p.SetEnv(temperature, humidity) })
	msg.Ack()
}

func (self *MQTT) onTime(_ mqtt.Client, msg mqtt.Message) {
	h, m, s, err := ParseTime(msg.Payload())
	if self.reject(msg, err) {
		return
	}
	self.poster.Post(func(p *panel.Panel) { p.SetTime(h, m, s) })
	msg.Ack()
}

func (self *MQTT) onSleep(_ mqtt.Client, msg mqtt.Message) {
	on, err := ParseOnOff(msg.Payload())
	if self.reject(msg, err) {
		return
	}
	self.poster.Post(func(p *panel.Panel) { p.RequestSleep(on) })
	msg.Ack()
}

func (self *MQTT) onState(_ mqtt.Client, msg mqtt.Message) {
	id, err := self.topicID(msg.Topic(), "state/")
	if err == nil {
		var on bool
		on, err = ParseOnOff(msg.Payload())
		if err == nil {
			self.poster.Post(func(p *panel.Panel) { p.SetButtonState(id, on) })
		}
	}
	if self.reject(msg, err) {
		return
	}
	msg.Ack()
}

func (self *MQTT) onQR(_ mqtt.Client, msg mqtt.Message) {
	id, err := self.topicID(msg.Topic(), "qr/")
	if self.reject(msg, err) {
		return
	}
	text := string(msg.Payload())
	self.poster.Post(func(p *panel.Panel) { p.SetQRText(id, text) })
	msg.Ack()
}

func (self *MQTT) onPage(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := ParsePage(msg.Payload())
	if self.reject(msg, err) {
		return
	}
	self.poster.Post(func(p *panel.Panel) {
		switch {
		case cmd.Next:
			p.NextPage()
		case cmd.Prev:
			p.PrevPage()
		default:
			p.SetPage(cmd.Page)
		}
	})
	msg.Ack()
}

// reject logs invalid payload and acks it so broker does not redeliver garbage.
func (self *MQTT) reject(msg mqtt.Message, err error) bool {
	if err == nil {
		return false
	}
	self.Log.Errorf("feed mqtt topic=%s payload=%s err=%v", msg.Topic(), strconv.Quote(string(msg.Payload())), err)
	msg.Ack()
	return true
}

func (self *MQTT) topicID(topic, kind string) (string, error) {
	prefix := self.topicPrefix + "/" + kind
	if !strings.HasPrefix(topic, prefix) || len(topic) == len(prefix) {
		return "", errors.NotValidf("topic=%s", topic)
	}
	return topic[len(prefix):], nil
}

func (self *MQTT) tokenWait(t mqtt.Token, tag string) error {
	if !t.WaitTimeout(self.timeout) {
		err := errors.Timeoutf("%s", tag)
		self.Log.Errorf("feed mqtt %s", err.Error())
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotate(err, tag)
		self.Log.Errorf("feed mqtt %s", err.Error())
		return err
	}
	return nil
}

func (self *MQTT) String() string {
	return fmt.Sprintf("mqtt(broker=%s prefix=%s)", self.config.Broker, self.topicPrefix)
}
