// internal/bot/callback_test.go
package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanxunze/7inet-bot/internal/models"
)

func TestCallbackRoundTrip(t *testing.T) {
	cases := []Callback{
		{Action: ActionLogin},
		{Action: ActionHelp},
		{Action: ActionLogout},
		{Action: ActionList},
		{Action: ActionDetail, InstanceID: "101"},
		{Action: ActionPorts, InstanceID: "101"},
		{Action: ActionPortAdd, InstanceID: "101"},
		{Action: ActionPassword, InstanceID: "101"},
		{Action: ActionReinstall, InstanceID: "101"},
		{Action: ActionPower, PowerAction: models.PowerBoot, InstanceID: "101"},
		{Action: ActionPowerConfirm, PowerAction: models.PowerStop, InstanceID: "101"},
		{Action: ActionPortProtocol, Protocol: "tcp", InstanceID: "101"},
		{Action: ActionPortDelete, InstanceID: "101", Protocol: "tcp", InternalPort: "8080", ExternalPort: "45000"},
		{Action: ActionPortDelConfirm, InstanceID: "101", Protocol: "udp", InternalPort: "53", ExternalPort: "40053"},
	}
	for _, want := range cases {
		got, err := ParseCallback(want.Encode())
		require.NoError(t, err, "callback %q", want.Encode())
		assert.Equal(t, want, got)
	}
}

func TestCallbackDataStaysShort(t *testing.T) {
	// Telegram rejects callback data over 64 bytes.
	cb := Callback{Action: ActionPortDelConfirm, InstanceID: "1234567890", Protocol: "tcp", InternalPort: "65535", ExternalPort: "65500"}
	assert.LessOrEqual(t, len(cb.Encode()), 64)
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{
		"",
		"frobnicate",
		"detail",
		"detail:",
		"power:stop",
		"power:explode:101",
		"proto:icmp:101",
		"delport:101:tcp:8080",
		"login:extra",
	} {
		_, err := ParseCallback(data)
		assert.Error(t, err, "data %q", data)
	}
}
