package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/darkprince558/tether/internal/auth"
)

// Topic layout on the relay. Inbound topics are scoped to the device token
// so the broker fans events out to exactly one pairing.
const (
	topicRegister        = "tether/" + EventRegister
	topicAnswer          = "tether/" + EventAnswer
	topicMobileConnected = "tether/" + EventMobileConnected
)

func deviceTopic(deviceToken, event string) string {
	return fmt.Sprintf("tether/device/%s/%s", deviceToken, event)
}

// Handlers are the inbound relay events the session controller subscribes
// to. They fire on the MQTT client's event goroutine.
type Handlers struct {
	OnOffer       func(offerJSON string, fromDeviceID string)
	OnPeerOnline  func(deviceID string)
	OnPeerOffline func(deviceID string)
}

// Client maintains the persistent relay connection over MQTT. Reconnection
// is delegated to the MQTT library; registration is re-emitted every time
// the connection (re)establishes, since the relay may have lost it.
type Client struct {
	client      mqtt.Client
	loginToken  string
	deviceToken string
	handlers    Handlers
}

// Options configure the relay connection.
type Options struct {
	Endpoint    string // AWS IoT endpoint hostname
	Region      string
	LoginToken  string
	DeviceToken string
}

// NewClient connects to the relay and wires the inbound event handlers.
// The WSS URL is SigV4-signed with Cognito-vended credentials, the same
// scheme the broker's authorizer expects.
func NewClient(ctx context.Context, opts Options, handlers Handlers) (*Client, error) {
	identityPoolID := os.Getenv("TETHER_IDENTITY_POOL_ID")

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load base aws config: %w", err)
	}

	if identityPoolID != "" {
		credsProvider := auth.NewCognitoProvider(cfg, identityPoolID)
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(opts.Region),
			awsconfig.WithCredentialsProvider(credsProvider),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config with cognito: %w", err)
		}
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve aws credentials: %w", err)
	}

	// Sign the websocket URL. IoT Core accepts WSS on 443 with SigV4;
	// payload hash for GET is the empty-string hash.
	signer := v4.NewSigner()
	req, _ := http.NewRequest("GET", fmt.Sprintf("wss://%s/mqtt", opts.Endpoint), nil)
	emptyHash := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	err = signer.SignHTTP(ctx, creds, req, emptyHash, "iotdevicegateway", opts.Region, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to sign websocket request: %w", err)
	}

	c := &Client{
		loginToken:  opts.LoginToken,
		deviceToken: opts.DeviceToken,
		handlers:    handlers,
	}

	mqttOpts := mqtt.NewClientOptions()
	mqttOpts.AddBroker(req.URL.String())
	mqttOpts.SetClientID("tether-" + opts.DeviceToken)
	mqttOpts.SetCleanSession(true)
	mqttOpts.SetAutoReconnect(true)
	mqttOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		fmt.Printf("Relay connection lost: %v\n", err)
	})
	// Subscriptions and registration are redone on every (re)connect:
	// a clean session drops both on the broker side.
	mqttOpts.SetOnConnectHandler(func(_ mqtt.Client) {
		if err := c.subscribeAll(); err != nil {
			fmt.Printf("Relay resubscribe failed: %v\n", err)
		}
		if err := c.Register(); err != nil {
			fmt.Printf("Relay re-register failed: %v\n", err)
		}
	})

	c.client = mqtt.NewClient(mqttOpts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("relay connect failed: %w", token.Error())
	}

	return c, nil
}

func (c *Client) subscribeAll() error {
	subs := map[string]mqtt.MessageHandler{
		deviceTopic(c.deviceToken, EventOffer):               c.handleOffer,
		deviceTopic(c.deviceToken, EventDesktopConnected):    c.handlePresenceOnline,
		deviceTopic(c.deviceToken, EventDesktopDisconnected): c.handlePresenceOffline,
	}
	for topic, handler := range subs {
		if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s failed: %w", topic, token.Error())
		}
	}
	return nil
}

func (c *Client) handleOffer(_ mqtt.Client, msg mqtt.Message) {
	var payload OfferPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		fmt.Printf("Invalid offer payload: %v\n", err)
		return
	}
	if c.handlers.OnOffer != nil {
		c.handlers.OnOffer(payload.Offer, payload.CallbackDeviceID)
	}
}

func (c *Client) handlePresenceOnline(_ mqtt.Client, msg mqtt.Message) {
	var payload PresencePayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		fmt.Printf("Invalid presence payload: %v\n", err)
		return
	}
	if c.handlers.OnPeerOnline != nil {
		c.handlers.OnPeerOnline(payload.DeviceID)
	}
}

func (c *Client) handlePresenceOffline(_ mqtt.Client, msg mqtt.Message) {
	var payload PresencePayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		fmt.Printf("Invalid presence payload: %v\n", err)
		return
	}
	if c.handlers.OnPeerOffline != nil {
		c.handlers.OnPeerOffline(payload.DeviceID)
	}
}

// Register announces the session credentials to the relay. Fire-and-forget;
// the relay does not acknowledge.
func (c *Client) Register() error {
	return c.publish(topicRegister, RegisterPayload{
		LoginToken:  c.loginToken,
		DeviceToken: c.deviceToken,
	})
}

// SendAnswer publishes the final debounced answer for the offering device.
func (c *Client) SendAnswer(toDeviceID, answerJSON string) error {
	return c.publish(topicAnswer, AnswerPayload{
		LoginToken:  c.loginToken,
		DeviceToken: c.deviceToken,
		DeviceID:    toDeviceID,
		Answer:      answerJSON,
	})
}

// SendMobileConnected acknowledges a desktop presence event.
func (c *Client) SendMobileConnected(desktopDeviceID string) error {
	return c.publish(topicMobileConnected, MobileConnectedPayload{
		DesktopDeviceID: desktopDeviceID,
		LoginToken:      c.loginToken,
		DeviceToken:     c.deviceToken,
	})
}

func (c *Client) publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	if token := c.client.Publish(topic, 1, false, data); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s failed: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the relay.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
}
