package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/model"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakeClient struct {
	connected bool
	published map[string][]byte
	handlers  map[string]paho.MessageHandler
}

func newFakeClient() *fakeClient {
	return &fakeClient{published: make(map[string][]byte), handlers: make(map[string]paho.MessageHandler)}
}

func (f *fakeClient) IsConnected() bool { return f.connected }
func (f *fakeClient) Connect() paho.Token {
	f.connected = true
	return fakeToken{}
}
func (f *fakeClient) Disconnect(uint) { f.connected = false }
func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	f.published[topic] = payload.([]byte)
	return fakeToken{}
}
func (f *fakeClient) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	f.handlers[topic] = cb
	return fakeToken{}
}

type fakeMessage struct{ payload []byte }

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "chargeplan/request" }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func withFake(t *testing.T) (*Client, *fakeClient) {
	t.Helper()
	fake := newFakeClient()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return fake }
	t.Cleanup(func() { newMQTTClient = orig })

	c, err := NewClient(Config{Broker: "tcp://test:1883", ClientID: "test"})
	require.NoError(t, err)
	return c, fake
}

func TestSubscribeRequestsDecodesPayload(t *testing.T) {
	c, fake := withFake(t)

	var got model.PlanRequest
	require.NoError(t, c.SubscribeRequests(func(req model.PlanRequest) { got = req }))

	req := model.PlanRequest{
		SessionID: "sess-1",
		Vehicle:   model.VehicleState{ID: "veh-1", BatteryCapacityKWh: 60},
		Charger:   model.ChargerCapability{ID: "chg-1", SiteID: "site-a"},
	}
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	handler := fake.handlers["chargeplan/request"]
	require.NotNil(t, handler)
	handler(nil, fakeMessage{payload: payload})

	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "veh-1", got.Vehicle.ID)

	// Malformed payloads are dropped without touching the handler.
	got = model.PlanRequest{}
	handler(nil, fakeMessage{payload: []byte("{broken")})
	assert.Empty(t, got.SessionID)
}

func TestPublishPlanUsesSessionTopic(t *testing.T) {
	c, fake := withFake(t)

	plan := model.ChargingPlan{ExtraEnergyKWh: 10, Feasible: true, Type: model.PlanStandard}
	require.NoError(t, c.PublishPlan("sess-42", plan))

	raw, ok := fake.published["chargeplan/plan/sess-42"]
	require.True(t, ok, "plan not published on session topic")

	var envelope struct {
		SessionID string             `json:"session_id"`
		Plan      model.ChargingPlan `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, "sess-42", envelope.SessionID)
	assert.Equal(t, plan, envelope.Plan)
}
