// Package device provides read access to the access-control devices of the
// authenticated tenant: paged listing with search and by-id lookup.
package device

import "errors"

// ErrNotFound is returned when the backend reports the device does not exist.
var ErrNotFound = errors.New("device not found")

// AccessType is the direction a device controls.
type AccessType int

const (
	AccessTypeUnknown AccessType = iota
	AccessTypeEntry
	AccessTypeExit
	AccessTypeBoth
)

// String implements fmt.Stringer.
func (a AccessType) String() string {
	switch a {
	case AccessTypeEntry:
		return "entry"
	case AccessTypeExit:
		return "exit"
	case AccessTypeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// WifiSettings is the device's WiFi network configuration.
type WifiSettings struct {
	IP      string `json:"ip"`
	Mask    string `json:"mask"`
	SSID    string `json:"ssid"`
	Gateway string `json:"gateway"`
	UseDHCP string `json:"use_dhcp"`
	UseWifi int    `json:"use_wifi"`
}

// EthernetSettings is the device's wired network configuration.
type EthernetSettings struct {
	IP      string `json:"ip"`
	Mask    string `json:"mask"`
	Gateway string `json:"gateway"`
	UseDHCP string `json:"use_dhcp"`
}

// Settings carries the device's operational configuration. Network
// configuration is either WiFi or Ethernet; the unused one is nil.
type Settings struct {
	Online           int               `json:"online"`
	Serial           string            `json:"serial"`
	Disabled         int               `json:"disabled,omitempty"`
	AccessType       AccessType        `json:"access_type,omitempty"`
	TimezoneID       int64             `json:"id_timezone"`
	ExitButtonPos    int               `json:"exit_btn_pos,omitempty"`
	StructureID      int64             `json:"id_structure"`
	TimeOpenDoorMs   int               `json:"time_open_door,omitempty"`
	ActionTypeID     int64             `json:"id_device_action_type,omitempty"`
	WifiSettings     *WifiSettings     `json:"wifi_settings,omitempty"`
	EthernetSettings *EthernetSettings `json:"ethernet_settings,omitempty"`
}

// Device is a managed access-control endpoint. The client holds no
// authoritative copy; everything here mirrors the backend.
type Device struct {
	ID            int64    `json:"id_device"`
	Name          string   `json:"device_name"`
	ModelID       int64    `json:"id_device_model"`
	Model         string   `json:"device_model"`
	FactoryFamily string   `json:"factory_family"`
	Settings      Settings `json:"settings_device"`
	Status        int      `json:"status"`
	Photo         string   `json:"photo,omitempty"`
	HasGroups     bool     `json:"hasGroups"`
}

// Online reports whether the device currently has a live connection.
func (d Device) Online() bool {
	return d.Settings.Online == 1
}

// Disabled reports whether the device has been administratively disabled.
func (d Device) Disabled() bool {
	return d.Settings.Disabled == 1
}

// ListPage is one offset-delimited slice of the device collection.
type ListPage struct {
	Devices []Device
	Count   int
	Limit   int
	Offset  int
}
