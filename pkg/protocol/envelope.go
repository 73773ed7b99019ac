package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// Sender roles. The wire format only knows these two ends of a pairing.
const (
	SenderMobile  = "mobile"
	SenderDesktop = "desktop"
)

// Envelope types carried over the data channel
const (
	TypeChat                = "chat"
	TypeClipboard           = "Clipboard"
	TypeDeviceState         = "DeviceStateInfo"
	TypeAppIconRequest      = "AppIcon:Request"
	TypeAppIconPackage      = "AppIcon:SinglePackage"
	TypeNotificationPosted  = "Notification:Posted"
	TypeNotificationRemoved = "Notification:Removed"
	TypeGalleryFolder       = "Gallery:Folder"
)

// Envelope is the frame wrapped around every payload crossing the data
// channel. Timestamp is sender-assigned epoch millis, carried as a decimal
// string. Immutable once created.
type Envelope struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
}

// NewEnvelope stamps a payload with the local role and the current time.
func NewEnvelope(msgType, content, sender string) Envelope {
	return Envelope{
		Type:      msgType,
		Content:   content,
		Timestamp: strconv.FormatInt(time.Now().UnixMilli(), 10),
		Sender:    sender,
	}
}

// Encode serializes the envelope to its UTF-8 JSON wire form.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses a received frame. Malformed frames return an error
// and are expected to be dropped by the caller, never retried.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	if !utf8.Valid(raw) {
		return Envelope{}, fmt.Errorf("decode envelope: frame is not valid UTF-8")
	}
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type field")
	}
	return e, nil
}

// Millis returns the timestamp as an integer for ordering. Timestamps must
// be compared numerically, not lexicographically ("10" < "9" otherwise).
// Unparseable timestamps sort to the beginning.
func (e Envelope) Millis() int64 {
	ms, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}
