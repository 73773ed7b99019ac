package signaling

// Relay event names. Each maps to an MQTT topic segment; payloads are JSON.
const (
	EventRegister            = "register"
	EventOffer               = "webrtc_offer"
	EventAnswer              = "webrtc_answer"
	EventDesktopConnected    = "desktop_connected"
	EventDesktopDisconnected = "desktop_disconnected"
	EventMobileConnected     = "mobile_connected"
)

// RegisterPayload announces this device to the relay. Fire-and-forget: no
// acknowledgment is expected before proceeding.
type RegisterPayload struct {
	LoginToken  string `json:"loginToken"`
	DeviceToken string `json:"deviceToken"`
}

// OfferPayload is pushed by the relay when the desktop starts negotiating.
// Offer is an SDP descriptor JSON string; CallbackDeviceID identifies where
// the answer must go.
type OfferPayload struct {
	Offer            string `json:"offer"`
	CallbackDeviceID string `json:"callbackDeviceId"`
}

// AnswerPayload carries the debounced final answer back through the relay.
type AnswerPayload struct {
	LoginToken  string `json:"loginToken"`
	DeviceToken string `json:"deviceToken"`
	DeviceID    string `json:"deviceId"`
	Answer      string `json:"answer"`
}

// PresencePayload signals a peer coming online or going offline.
type PresencePayload struct {
	DeviceID string `json:"deviceId"`
}

// MobileConnectedPayload tells the relay (and through it, the desktop) that
// the mobile side saw the desktop come online.
type MobileConnectedPayload struct {
	DesktopDeviceID string `json:"desktopDeviceId"`
	LoginToken      string `json:"loginToken"`
	DeviceToken     string `json:"deviceToken"`
}
