// internal/bot/callback.go
package bot

import (
	"fmt"
	"strings"

	"github.com/Tanxunze/7inet-bot/internal/models"
)

// Action identifies what an inline button does. Callback data is the
// single wire format for buttons; Encode and ParseCallback are the only
// places that know its layout.
type Action string

const (
	ActionLogin          Action = "login"
	ActionHelp           Action = "help"
	ActionLogout         Action = "logout"
	ActionList           Action = "list"
	ActionDetail         Action = "detail"
	ActionPower          Action = "power"
	ActionPowerConfirm   Action = "powerok"
	ActionPorts          Action = "ports"
	ActionPortAdd        Action = "addport"
	ActionPortProtocol   Action = "proto"
	ActionPortDelete     Action = "delport"
	ActionPortDelConfirm Action = "delportok"
	ActionPassword       Action = "passwd"
	ActionReinstall      Action = "reinstall"
)

// Callback is a decoded inline-button payload.
type Callback struct {
	Action       Action
	InstanceID   string
	PowerAction  models.PowerAction
	Protocol     string
	InternalPort string
	ExternalPort string
}

// sep separates callback fields. None of the field values may contain
// it: instance ids and ports are numeric, protocols are tcp/udp.
const sep = ":"

// Encode renders the callback as Telegram callback data. The result
// stays well under Telegram's 64-byte callback data cap.
func (c Callback) Encode() string {
	switch c.Action {
	case ActionLogin, ActionHelp, ActionLogout, ActionList:
		return string(c.Action)
	case ActionDetail, ActionPorts, ActionPortAdd, ActionPassword, ActionReinstall:
		return string(c.Action) + sep + c.InstanceID
	case ActionPower, ActionPowerConfirm:
		return string(c.Action) + sep + string(c.PowerAction) + sep + c.InstanceID
	case ActionPortProtocol:
		return string(c.Action) + sep + c.Protocol + sep + c.InstanceID
	case ActionPortDelete, ActionPortDelConfirm:
		return strings.Join([]string{string(c.Action), c.InstanceID, c.Protocol, c.InternalPort, c.ExternalPort}, sep)
	}
	return string(c.Action)
}

// ParseCallback decodes callback data produced by Encode. Unknown or
// malformed payloads are an error; they come from buttons this process
// never rendered (or a stale incompatible build).
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, sep)
	cb := Callback{Action: Action(parts[0])}

	switch cb.Action {
	case ActionLogin, ActionHelp, ActionLogout, ActionList:
		if len(parts) != 1 {
			return Callback{}, fmt.Errorf("malformed callback '%s'", data)
		}
	case ActionDetail, ActionPorts, ActionPortAdd, ActionPassword, ActionReinstall:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, fmt.Errorf("malformed callback '%s'", data)
		}
		cb.InstanceID = parts[1]
	case ActionPower, ActionPowerConfirm:
		if len(parts) != 3 || parts[2] == "" {
			return Callback{}, fmt.Errorf("malformed callback '%s'", data)
		}
		cb.PowerAction = models.PowerAction(parts[1])
		cb.InstanceID = parts[2]
		if !cb.PowerAction.Valid() {
			return Callback{}, fmt.Errorf("unknown power action in callback '%s'", data)
		}
	case ActionPortProtocol:
		if len(parts) != 3 || parts[2] == "" {
			return Callback{}, fmt.Errorf("malformed callback '%s'", data)
		}
		cb.Protocol = parts[1]
		cb.InstanceID = parts[2]
		if !models.ValidProtocol(cb.Protocol) {
			return Callback{}, fmt.Errorf("unknown protocol in callback '%s'", data)
		}
	case ActionPortDelete, ActionPortDelConfirm:
		if len(parts) != 5 || parts[1] == "" {
			return Callback{}, fmt.Errorf("malformed callback '%s'", data)
		}
		cb.InstanceID = parts[1]
		cb.Protocol = parts[2]
		cb.InternalPort = parts[3]
		cb.ExternalPort = parts[4]
	default:
		return Callback{}, fmt.Errorf("unknown callback action '%s'", parts[0])
	}
	return cb, nil
}
