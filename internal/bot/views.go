// internal/bot/views.go
package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Tanxunze/7inet-bot/internal/models"
)

// Button is one inline keyboard button: a label and its callback data.
type Button struct {
	Label string
	Data  string
}

// Keyboard is rows of buttons, as rendered by the chat transport.
type Keyboard [][]Button

const helpText = `Available commands:
/start - Start the bot
/cancel - Cancel current operation
/vps <name> - Show details of specific VPS
/help - Show this help message`

var powerActionText = map[models.PowerAction]string{
	models.PowerBoot:   "start",
	models.PowerStop:   "shutdown",
	models.PowerReboot: "restart",
}

func btn(label string, cb Callback) Button {
	return Button{Label: label, Data: cb.Encode()}
}

func welcomeKeyboard() Keyboard {
	return Keyboard{
		{btn("Login", Callback{Action: ActionLogin})},
		{btn("Help", Callback{Action: ActionHelp})},
	}
}

func loggedInKeyboard() Keyboard {
	return Keyboard{
		{btn("List Instances", Callback{Action: ActionList})},
		{btn("Logout", Callback{Action: ActionLogout})},
	}
}

func retryLoginKeyboard() Keyboard {
	return Keyboard{{btn("Try Again", Callback{Action: ActionLogin})}}
}

func backToDetailKeyboard(instanceID string) Keyboard {
	return Keyboard{{btn("Back to Details", Callback{Action: ActionDetail, InstanceID: instanceID})}}
}

// instanceListView renders the instance list with per-instance detail
// buttons. Credentials are shown the way the panel itself shows them.
func instanceListView(instances []models.InstanceSummary) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("Your VPS Instances:\n\n")
	if len(instances) == 0 {
		b.WriteString("No instances found.\n")
	}
	kb := Keyboard{}
	for _, inst := range instances {
		fmt.Fprintf(&b, "📌 Name: %s\n", inst.Name)
		fmt.Fprintf(&b, "Status: %s\n", inst.Status)
		fmt.Fprintf(&b, "Username: %s\n", inst.Username)
		fmt.Fprintf(&b, "Password: %s\n", inst.Password)
		fmt.Fprintf(&b, "Expires: %s\n", inst.EndTime)
		b.WriteString("───────────────\n")
		kb = append(kb, []Button{btn("Details: "+inst.Name, Callback{Action: ActionDetail, InstanceID: inst.ID})})
	}
	kb = append(kb, []Button{btn("Refresh", Callback{Action: ActionList})})
	kb = append(kb, []Button{btn("Logout", Callback{Action: ActionLogout})})
	return b.String(), kb
}

// instanceDetailView renders the control page for one instance with the
// full action keyboard.
func instanceDetailView(instanceID string, detail *models.InstanceDetail) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("📌 VPS Details\n\n")

	b.WriteString("🔹 Basic Information:\n")
	for _, key := range sortedKeys(detail.BasicInfo) {
		fmt.Fprintf(&b, "%s: %s\n", key, detail.BasicInfo[key])
	}
	b.WriteString("\n🔹 System Status:\n")
	for _, key := range sortedKeys(detail.SystemInfo) {
		if key == "用户名" {
			continue // already visible in the instance list
		}
		fmt.Fprintf(&b, "%s: %s\n", key, detail.SystemInfo[key])
	}

	b.WriteString("\n🔹 Port Forwarding:\n")
	if len(detail.Ports) > 0 {
		for _, p := range detail.Ports {
			fmt.Fprintf(&b, "#%s: %s %s → %s\n", p.ID, strings.ToUpper(p.Protocol), p.InternalAddr, p.ExternalAddr)
		}
	} else {
		b.WriteString("No port forwarding rules configured\n")
	}

	kb := Keyboard{
		{
			btn("▶️ Start", Callback{Action: ActionPower, PowerAction: models.PowerBoot, InstanceID: instanceID}),
			btn("🔄 Restart", Callback{Action: ActionPower, PowerAction: models.PowerReboot, InstanceID: instanceID}),
			btn("⏹ Stop", Callback{Action: ActionPower, PowerAction: models.PowerStop, InstanceID: instanceID}),
		},
		{
			btn("Port Management", Callback{Action: ActionPorts, InstanceID: instanceID}),
			btn("Change Password", Callback{Action: ActionPassword, InstanceID: instanceID}),
		},
		{
			btn("Reinstall System", Callback{Action: ActionReinstall, InstanceID: instanceID}),
			btn("Back to List", Callback{Action: ActionList}),
		},
	}
	return b.String(), kb
}

// portsView renders the port management screen: current rules, an add
// button, and a delete button per rule.
func portsView(instanceID string, detail *models.InstanceDetail) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("🔹 Port Management\n\n")
	if len(detail.Ports) > 0 {
		b.WriteString("Current Port Forwards:\n")
		for _, p := range detail.Ports {
			fmt.Fprintf(&b, "• %s: %s → %s\n", strings.ToUpper(p.Protocol), p.InternalAddr, p.ExternalAddr)
		}
		b.WriteString("\nSelect an action:\n")
	} else {
		b.WriteString("No port forwarding rules configured.\n\nSelect an action:\n")
	}

	kb := Keyboard{{btn("📌 Add Port Forward", Callback{Action: ActionPortAdd, InstanceID: instanceID})}}
	for _, p := range detail.Ports {
		kb = append(kb, []Button{btn(
			fmt.Sprintf("🗑️ Delete %s %s → %s", strings.ToUpper(p.Protocol), p.InternalAddr, p.ExternalAddr),
			Callback{
				Action:       ActionPortDelete,
				InstanceID:   instanceID,
				Protocol:     p.Protocol,
				InternalPort: portOf(p.InternalAddr),
				ExternalPort: portOf(p.ExternalAddr),
			},
		)})
	}
	kb = append(kb, []Button{btn("⬅️ Back to Details", Callback{Action: ActionDetail, InstanceID: instanceID})})
	return b.String(), kb
}

func protocolKeyboard(instanceID string) Keyboard {
	return Keyboard{
		{
			btn("TCP", Callback{Action: ActionPortProtocol, Protocol: models.ProtocolTCP, InstanceID: instanceID}),
			btn("UDP", Callback{Action: ActionPortProtocol, Protocol: models.ProtocolUDP, InstanceID: instanceID}),
		},
		{btn("Cancel", Callback{Action: ActionDetail, InstanceID: instanceID})},
	}
}

func powerConfirmKeyboard(action models.PowerAction, instanceID string) Keyboard {
	return Keyboard{{
		btn("Confirm", Callback{Action: ActionPowerConfirm, PowerAction: action, InstanceID: instanceID}),
		btn("Cancel", Callback{Action: ActionDetail, InstanceID: instanceID}),
	}}
}

func portDeleteConfirmKeyboard(cb Callback) Keyboard {
	confirm := cb
	confirm.Action = ActionPortDelConfirm
	return Keyboard{{
		btn("Confirm Delete", confirm),
		btn("Cancel", Callback{Action: ActionDetail, InstanceID: cb.InstanceID}),
	}}
}

// sortedKeys fixes map iteration order so consecutive renders of the
// same detail look identical.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// portOf extracts the port from a host:port address. Addresses without a
// colon are returned whole so a surprising panel rendering still yields
// a usable button instead of a crash.
func portOf(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 && i+1 < len(addr) {
		return addr[i+1:]
	}
	return addr
}
