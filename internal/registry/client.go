package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DeviceRecord is one paired device as stored by the registry service.
type DeviceRecord struct {
	ID           string `json:"id" dynamodbav:"id"`
	UserID       string `json:"userId" dynamodbav:"userId"`
	DeviceType   string `json:"deviceType" dynamodbav:"deviceType"` // "mobile" or "desktop"
	DeviceName   string `json:"deviceName" dynamodbav:"deviceName"`
	Model        string `json:"model,omitempty" dynamodbav:"model,omitempty"`
	OsName       string `json:"osName,omitempty" dynamodbav:"osName,omitempty"`
	OsVersion    string `json:"osVersion,omitempty" dynamodbav:"osVersion,omitempty"`
	UUID         string `json:"uuid" dynamodbav:"uuid"`
	SerialNumber string `json:"serialNumber,omitempty" dynamodbav:"serialNumber,omitempty"`
	BoardID      string `json:"boardId,omitempty" dynamodbav:"boardId,omitempty"`
	Timezone     string `json:"timezone,omitempty" dynamodbav:"timezone,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" dynamodbav:"manufacturer,omitempty"`
	CreatedAt    int64  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Client talks to the device registry HTTP API.
type Client struct {
	baseURL    string
	loginToken string
	httpClient *http.Client
}

func NewClient(baseURL, loginToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		loginToken: loginToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Devices fetches the devices registered under the caller's account.
func (c *Client) Devices(ctx context.Context) ([]DeviceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/devices", nil)
	if err != nil {
		return nil, fmt.Errorf("build devices request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.loginToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch devices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, string(body))
	}

	var records []DeviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode devices response: %w", err)
	}
	return records, nil
}

// Lookup fetches a single device by its registry id.
func (c *Client) Lookup(ctx context.Context, id string) (DeviceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/devices/"+id, nil)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.loginToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("lookup device: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DeviceRecord{}, fmt.Errorf("device %s not found", id)
	}
	if resp.StatusCode != http.StatusOK {
		return DeviceRecord{}, fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	var record DeviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return DeviceRecord{}, fmt.Errorf("decode lookup response: %w", err)
	}
	return record, nil
}

// Register creates or refreshes this device's registry entry and returns
// the stored record (with server-side timestamps filled in).
func (c *Client) Register(ctx context.Context, record DeviceRecord) (DeviceRecord, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("marshal device record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/devices", bytes.NewReader(payload))
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.loginToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DeviceRecord{}, fmt.Errorf("register device: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return DeviceRecord{}, fmt.Errorf("registry returned %d: %s", resp.StatusCode, string(body))
	}

	var stored DeviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return DeviceRecord{}, fmt.Errorf("decode register response: %w", err)
	}
	return stored, nil
}
