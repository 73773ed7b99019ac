package sync

import (
	"os"
	"runtime"
)

// WifiDetails describes the network the device is currently on.
type WifiDetails struct {
	Ssid  string `json:"ssid,omitempty"`
	Bssid string `json:"bssid,omitempty"`
}

// SimInfo describes one SIM slot.
type SimInfo struct {
	Carrier        string `json:"carrier"`
	SimSlot        int    `json:"simSlot"`
	SignalStrength string `json:"signalStrength"`
}

// VolumeState carries the audio channel levels as reported by the device.
type VolumeState struct {
	MediaVolume        string `json:"mediaVolume"`
	CallVolume         string `json:"callVolume"`
	RingVolume         string `json:"ringVolume"`
	NotificationVolume string `json:"notificationVolume"`
	AlarmVolume        string `json:"alarmVolume"`
	VibrateMode        bool   `json:"vibrateMode"`
	SilentMode         bool   `json:"silentMode"`
}

// DeviceInfo is the display identity of the device.
type DeviceInfo struct {
	DeviceName  string `json:"deviceName"`
	DeviceModel string `json:"deviceModel"`
}

// DeviceState is the snapshot broadcast to the peer right after the data
// channel opens, and again whenever the peer asks.
type DeviceState struct {
	WifiDetails       *WifiDetails `json:"wifiDetails"`
	SimInfo           []SimInfo    `json:"simInfo"`
	VolumeState       VolumeState  `json:"volumeState"`
	DeviceInfo        DeviceInfo   `json:"deviceInfo"`
	BatteryLevel      int          `json:"batteryLevel"`
	IsBatteryCharging bool         `json:"isBatteryCharging"`
	NetworkType       string       `json:"networkType"`
	DoNotDisturb      bool         `json:"doNotDisturb"`
}

// DeviceStateProvider supplies the snapshot. The real provider is platform
// glue; the core only consumes the structured record.
type DeviceStateProvider interface {
	Snapshot() (DeviceState, error)
}

// HostStateProvider is the desktop-side provider: what the host OS can
// answer portably. Fields without a portable source stay zero.
type HostStateProvider struct{}

func (HostStateProvider) Snapshot() (DeviceState, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return DeviceState{
		SimInfo: []SimInfo{},
		DeviceInfo: DeviceInfo{
			DeviceName:  hostname,
			DeviceModel: runtime.GOOS + "/" + runtime.GOARCH,
		},
		BatteryLevel: 100,
		NetworkType:  "ethernet",
	}, nil
}
