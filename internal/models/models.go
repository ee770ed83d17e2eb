// internal/models/models.go
package models

// InstanceSummary is one row of the panel's instance list page.
// All values are the panel's rendered text, kept as-is.
type InstanceSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`     // free-text label, e.g. "运行中"
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"` // expiry
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// PortForward is a single forwarding rule on an instance.
type PortForward struct {
	ID           string `json:"id"`
	Protocol     string `json:"protocol"`      // tcp or udp
	InternalAddr string `json:"internal_addr"` // host:port inside the instance
	ExternalAddr string `json:"external_addr"` // public host:port
}

// InstanceDetail is the parsed instance control page. Fields absent from
// the source document are simply left empty, never filled with placeholders.
type InstanceDetail struct {
	BasicInfo  map[string]string `json:"basic_info"`  // panel-defined label -> value
	SystemInfo map[string]string `json:"system_info"` // live stats: IP, memory, disk, traffic, state
	Ports      []PortForward     `json:"ports"`
}

// PowerAction is a power management command accepted by the panel.
type PowerAction string

const (
	PowerBoot   PowerAction = "boot"
	PowerStop   PowerAction = "stop"
	PowerReboot PowerAction = "reboot"
)

// Valid reports whether a is one of the three panel power commands.
func (a PowerAction) Valid() bool {
	switch a {
	case PowerBoot, PowerStop, PowerReboot:
		return true
	}
	return false
}

// Protocol values accepted for port forwarding rules.
const (
	ProtocolTCP = "tcp"
	ProtocolUDP = "udp"
)

// ValidProtocol reports whether p is a supported forwarding protocol.
func ValidProtocol(p string) bool {
	return p == ProtocolTCP || p == ProtocolUDP
}
