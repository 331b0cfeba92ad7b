package feed

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/panel"
)

func newTestPanel(t testing.TB) (*panel.Panel, *touch.Mock) {
	tch := touch.NewMock(true)
	config := panel.DefaultConfig()
	config.Calibration = touch.Calibration{RawX1: 480, RawY1: 320, ZMin: 5, ZMax: 4095}
	p := panel.New(config, display.NewMock(image.Pt(480, 320)), tch, log2.NewTest(t, log2.LDebug))
	return p, tch
}

func TestClockPush(t *testing.T) {
	t.Parallel()

	p, _ := newTestPanel(t)
	clock := p.AddClock("clock", 0, 0, 1, 1, 0)
	now := time.Date(2020, 1, 2, 13, 14, 15, 0, time.Local)
	c := NewClock(log2.NewTest(t, log2.LDebug))
	c.Now = func() time.Time { return now }

	assert.True(t, c.Push(p))
	assert.False(t, c.Push(p), "same second must not repost")
	h, m, s := clock.Time()
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{h, m, s}, "applied only on frame")
	p.Step(0)
	h, m, s = clock.Time()
	assert.Equal(t, [3]int{13, 14, 15}, [3]int{h, m, s})

	now = now.Add(time.Second)
	assert.True(t, c.Push(p))
	p.Step(20)
	h, m, s = clock.Time()
	assert.Equal(t, [3]int{13, 14, 16}, [3]int{h, m, s})
}

func TestClockRun(t *testing.T) {
	t.Parallel()

	p, _ := newTestPanel(t)
	clock := p.AddClock("clock", 0, 0, 1, 1, 0)
	c := NewClock(log2.NewTest(t, log2.LDebug))
	c.Now = func() time.Time { return time.Date(2020, 1, 2, 7, 8, 9, 0, time.Local) }
	c.Interval = time.Millisecond
	a := alive.NewAlive()
	go c.Run(a, p)
	time.Sleep(10 * time.Millisecond)
	a.Stop()
	a.Wait()
	p.Step(0)
	h, m, s := clock.Time()
	assert.Equal(t, [3]int{7, 8, 9}, [3]int{h, m, s})
}

func startMQTT(t testing.TB, p *panel.Panel) (*MQTT, *MqttMock, *alive.Alive) {
	mock := NewMqttMock()
	m, err := NewMQTT(MQTTConfig{Broker: "tcp://broker:1883", Prefix: "home/panel/"}, p, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	m.NewClient = mock.MockNew
	a := alive.NewAlive()
	m.Start(a)
	select {
	case msg := <-mock.Pub:
		require.Equal(t, "home/panel/status", msg.T)
		require.Equal(t, StatusOnline, string(msg.P))
		require.True(t, msg.Retained())
	case <-time.After(5 * time.Second):
		t.Fatal("online status not published")
	}
	return m, mock, a
}

func stopWait(a *alive.Alive) {
	a.Stop()
	a.Wait()
}

// mqtt package loggers are global, no t.Parallel
func TestMQTTOptions(t *testing.T) {
	p, _ := newTestPanel(t)
	m, mock, a := startMQTT(t, p)
	defer stopWait(a)
	assert.Equal(t, "home/panel", m.config.ClientID)
	assert.Equal(t, "home/panel/status", mock.Opt.WillTopic)
	assert.Equal(t, []byte(StatusOffline), mock.Opt.WillPayload)
	assert.True(t, mock.Opt.WillRetained)
	assert.Equal(t, []string{
		"home/panel/env",
		"home/panel/time",
		"home/panel/sleep",
		"home/panel/state/+",
		"home/panel/qr/+",
		"home/panel/page",
	}, mock.Patterns())
}

func TestMQTTBrokerRequired(t *testing.T) {
	t.Parallel()

	_, err := NewMQTT(MQTTConfig{}, nil, nil)
	assert.Error(t, err)
}

// mqtt package loggers are global, no t.Parallel
func TestMQTTFeed(t *testing.T) {
	p, _ := newTestPanel(t)
	env := p.AddEnv("env", 0, 0, 1, 1, 0)
	clock := p.AddClock("clock", 1, 0, 1, 1, 0)
	light := p.AddLight("lamp", "Lamp", 2, 0, 1, 1, 0)
	qr := p.AddQR("qr", "", 0, 1, 1, 1, 0)
	p.AddButton("far", "Far", 0, 0, 1, 1, 2)
	_, mock, a := startMQTT(t, p)
	defer stopWait(a)

	mock.TestPublish(t, "home/panel/env", []byte(`{"t":23.5,"h":41}`))
	mock.TestPublish(t, "home/panel/time", []byte("10:20:30"))
	mock.TestPublish(t, "home/panel/state/lamp", []byte("on"))
	mock.TestPublish(t, "home/panel/qr/qr", []byte("https://example.com/pay"))
	mock.TestPublish(t, "home/panel/page", []byte("next"))
	p.Step(0)

	temperature, humidity := env.Values()
	assert.Equal(t, 23.5, temperature)
	assert.Equal(t, 41.0, humidity)
	h, m, s := clock.Time()
	assert.Equal(t, [3]int{10, 20, 30}, [3]int{h, m, s})
	assert.True(t, light.State())
	assert.Equal(t, "https://example.com/pay", qr.Text())
	assert.Equal(t, 1, p.Page())

	mock.TestPublish(t, "home/panel/page", []byte("prev"))
	p.Step(20)
	assert.Equal(t, 0, p.Page())
	mock.TestPublish(t, "home/panel/page", []byte("2"))
	p.Step(40)
	assert.Equal(t, 2, p.Page())

	// invalid payloads are acked and ignored
	mock.TestPublish(t, "home/panel/env", []byte("hot"))
	mock.TestPublish(t, "home/panel/state/lamp", []byte("dim"))
	mock.TestPublish(t, "home/panel/time", []byte("25:00"))
	p.Step(60)
	assert.True(t, light.State())
	h, m, s = clock.Time()
	assert.Equal(t, [3]int{10, 20, 30}, [3]int{h, m, s})
}

// mqtt package loggers are global, no t.Parallel
func TestMQTTSleep(t *testing.T) {
	p, _ := newTestPanel(t)
	_, mock, a := startMQTT(t, p)
	defer stopWait(a)

	mock.TestPublish(t, "home/panel/sleep", []byte("on"))
	assert.False(t, p.SleepRequested(), "applied only on frame")
	p.Step(0)
	assert.True(t, p.SleepRequested())
	assert.Equal(t, panel.StateGoingOff, p.PowerState())
	mock.TestPublish(t, "home/panel/sleep", []byte("off"))
	p.Step(20)
	assert.False(t, p.SleepRequested())
}

// mqtt package loggers are global, no t.Parallel
func TestMQTTClick(t *testing.T) {
	p, tch := newTestPanel(t)
	p.AddButton("fan", "Fan", 0, 0, 1, 1, 0)
	handled := 0
	p.AddButton("door", "Door", 1, 0, 1, 1, 0)
	p.SetItemClick("door", func() { handled++ })
	m, mock, a := startMQTT(t, p)
	defer stopWait(a)
	p.OnUnhandledClick(m.PublishClick)

	tch.Touch(touch.Raw{X: 50, Y: 50, Z: 100})
	p.Step(0)
	select {
	case msg := <-mock.Pub:
		assert.Equal(t, "home/panel/click/fan", msg.T)
	case <-time.After(5 * time.Second):
		t.Fatal("click not published")
	}

	tch.Touch(touch.Raw{X: 200, Y: 50, Z: 100})
	p.Step(20)
	assert.Equal(t, 1, handled)
	select {
	case msg := <-mock.Pub:
		t.Errorf("unexpected publish topic=%s", msg.T)
	default:
	}
}

// mqtt package loggers are global, no t.Parallel
func TestMQTTStop(t *testing.T) {
	p, _ := newTestPanel(t)
	_, mock, a := startMQTT(t, p)
	a.Stop()
	a.Wait()
	msg := <-mock.Pub
	assert.Equal(t, "home/panel/status", msg.T)
	assert.Equal(t, StatusOffline, string(msg.P))
	assert.False(t, mock.IsConnected())
}

func TestMQTTTopicID(t *testing.T) {
	t.Parallel()

	m, err := NewMQTT(MQTTConfig{Broker: "tcp://b:1883", Prefix: "p"}, nil, nil)
	require.NoError(t, err)
	type Case struct {
		topic  string
		expect string
		err    bool
	}
	cases := []Case{
		{"p/state/lamp", "lamp", false},
		{"p/state/", "", true},
		{"q/state/lamp", "", true},
	}
	for _, c := range cases {
		id, err := m.topicID(c.topic, "state/")
		if c.err {
			assert.Error(t, err, c.topic)
			continue
		}
		require.NoError(t, err, c.topic)
		assert.Equal(t, c.expect, id)
	}
}
