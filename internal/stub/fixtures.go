package stub

import (
	"fmt"

	"github.com/gatelink/gatelink/internal/device"
	"github.com/gatelink/gatelink/internal/session"
)

// Fixtures returns a seeded data set: one user, 27 devices and three
// modules. 27 devices makes the default page size produce a full page and
// a short one, which is handy when poking at pagination by hand.
func Fixtures() (session.User, []device.Device, []session.Module) {
	user := session.User{
		ID:         1,
		Email:      "demo@gatelink.dev",
		FirstName:  "Demo",
		LastName:   "Operator",
		Phone:      "+31600000000",
		Status:     1,
		Structures: []int64{1},
		Roles:      []int64{1},
	}

	devices := make([]device.Device, 0, 27)
	for i := 0; i < 27; i++ {
		d := device.Device{
			ID:            int64(i + 1),
			Name:          fmt.Sprintf("entrance-%02d", i+1),
			ModelID:       2,
			Model:         "GL-200",
			FactoryFamily: "gatelink",
			Status:        1,
			Settings: device.Settings{
				Online:         i % 3,
				Serial:         fmt.Sprintf("GL2-%05d", 1000+i),
				AccessType:     device.AccessType(i%3 + 1),
				TimezoneID:     1,
				StructureID:    1,
				TimeOpenDoorMs: 5000,
			},
		}
		if i%2 == 0 {
			d.Settings.EthernetSettings = &device.EthernetSettings{
				IP:      fmt.Sprintf("10.0.0.%d", i+10),
				Mask:    "255.255.255.0",
				Gateway: "10.0.0.1",
				UseDHCP: "0",
			}
		} else {
			d.Settings.WifiSettings = &device.WifiSettings{
				IP:      fmt.Sprintf("10.0.1.%d", i+10),
				Mask:    "255.255.255.0",
				SSID:    "gatelink-ops",
				Gateway: "10.0.1.1",
				UseDHCP: "1",
				UseWifi: 1,
			}
		}
		devices = append(devices, d)
	}

	modules := []session.Module{
		{ID: 5, Name: "doors", Path: "/doors", Order: 1, IsRender: 1, IsRenderMobile: 1,
			Config: session.ModuleConfig{Key: "doors", Icon: "door", Route: "/doors"}},
		{ID: 9, Name: "visitors", Path: "/visitors", Order: 2, IsRender: 1, IsRenderMobile: 1,
			Config: session.ModuleConfig{Key: "visitors", Icon: "people", Route: "/visitors"}},
		{ID: 12, Name: "reports", Path: "/reports", Order: 3, IsRender: 1, IsRenderMobile: 0,
			Config: session.ModuleConfig{Key: "reports", Icon: "chart", Route: "/reports"}},
	}

	return user, devices, modules
}
