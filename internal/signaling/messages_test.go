package signaling

import (
	"encoding/json"
	"testing"
)

func TestTopicLayout(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{topicRegister, "tether/register"},
		{topicAnswer, "tether/webrtc_answer"},
		{topicMobileConnected, "tether/mobile_connected"},
		{deviceTopic("tok-7", EventOffer), "tether/device/tok-7/webrtc_offer"},
		{deviceTopic("tok-7", EventDesktopConnected), "tether/device/tok-7/desktop_connected"},
		{deviceTopic("tok-7", EventDesktopDisconnected), "tether/device/tok-7/desktop_disconnected"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("Topic %q, want %q", c.got, c.want)
		}
	}
}

func TestOfferPayloadFieldNames(t *testing.T) {
	data, err := json.Marshal(OfferPayload{Offer: "sdp-json", CallbackDeviceID: "desk-1"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"offer":"sdp-json","callbackDeviceId":"desk-1"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, string(data))
	}
}

func TestAnswerPayloadFieldNames(t *testing.T) {
	data, err := json.Marshal(AnswerPayload{
		LoginToken: "lt", DeviceToken: "dt", DeviceID: "desk-1", Answer: "sdp-json",
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"loginToken":"lt","deviceToken":"dt","deviceId":"desk-1","answer":"sdp-json"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, string(data))
	}
}
