// internal/bot/controller.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/Tanxunze/7inet-bot/internal/models"
	"github.com/Tanxunze/7inet-bot/internal/panel"
	"github.com/Tanxunze/7inet-bot/internal/session"
)

// PanelAPI is the narrow surface of the hosting panel the controller
// needs. *panel.Client satisfies it; tests substitute a stub.
type PanelAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListInstances(ctx context.Context, token string) ([]models.InstanceSummary, error)
	InstanceDetail(ctx context.Context, token, instanceID string) (*models.InstanceDetail, error)
	PowerControl(ctx context.Context, token, instanceID string, action models.PowerAction) error
	AddPortForward(ctx context.Context, token, instanceID, protocol, internalPort, externalPort string) error
	DeletePortForward(ctx context.Context, token, instanceID, protocol, internalPort, externalPort string) error
	ChangePassword(ctx context.Context, token, instanceID, newPassword string) error
}

// MessageRef identifies a delivered chat message so it can be edited or
// deleted later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Transport delivers outbound content. The Telegram adapter implements
// it; tests record calls instead.
type Transport interface {
	Send(chatID int64, text string, kb Keyboard) (MessageRef, error)
	Edit(ref MessageRef, text string, kb Keyboard) error
	Delete(ref MessageRef) error
}

// EventKind discriminates inbound events.
type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventCallback
)

// Event is one inbound chat event, already stripped of transport detail.
type Event struct {
	Identity int64
	Kind     EventKind
	Command  string // command name without slash, for EventCommand
	Args     string // remainder of the command line
	Text     string // message text, for EventText
	Data     string // raw callback data, for EventCallback
	Message  MessageRef
	Origin   MessageRef // message the pressed button is attached to
}

// Controller drives the conversation state machine. It owns the session
// store and is the only component that mutates it.
type Controller struct {
	panel   PanelAPI
	store   *session.Store
	tp      Transport
	allowed map[int64]bool
}

func NewController(p PanelAPI, store *session.Store, tp Transport, allowedIDs []int64) *Controller {
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Controller{panel: p, store: store, tp: tp, allowed: allowed}
}

// Store exposes the session store for the status API.
func (c *Controller) Store() *session.Store {
	return c.store
}

// Handle processes one inbound event to completion. Events for the same
// identity serialize on the store's per-identity lock; distinct
// identities proceed concurrently. A failure never escapes: every error
// path ends in a message to the user.
func (c *Controller) Handle(ctx context.Context, ev Event) {
	if !c.allowed[ev.Identity] {
		log.Warnf("Rejected event from unauthorized user %d", ev.Identity)
		c.send(ev.Identity, "You are not authorized to use this bot.", nil)
		return
	}

	c.store.Lock(ev.Identity)
	defer c.store.Unlock(ev.Identity)

	switch ev.Kind {
	case EventCommand:
		c.handleCommand(ctx, ev)
	case EventText:
		c.handleText(ctx, ev)
	case EventCallback:
		c.handleCallback(ctx, ev)
	}
}

func (c *Controller) handleCommand(ctx context.Context, ev Event) {
	switch ev.Command {
	case "start":
		c.send(ev.Identity, "Welcome to 7iNet VPS Manager! Please choose an option:", welcomeKeyboard())
	case "help":
		c.send(ev.Identity, helpText, nil)
	case "cancel":
		c.store.ClearPending(ev.Identity)
		if sess := c.store.Get(ev.Identity); sess != nil {
			sess.Wizard = nil
		}
		c.store.SetState(ev.Identity, session.StateIdle)
		c.send(ev.Identity, "Operation cancelled. Type /start to begin again.", nil)
	case "vps":
		c.handleVPSCommand(ctx, ev)
	default:
		log.Debugf("Ignoring unknown command '/%s' from user %d", ev.Command, ev.Identity)
	}
}

// handleVPSCommand resolves /vps <name> by case-insensitive name match
// against the live instance list.
func (c *Controller) handleVPSCommand(ctx context.Context, ev Event) {
	name := strings.TrimSpace(ev.Args)
	if name == "" {
		c.send(ev.Identity, "Please provide a VPS instance name!\nUsage: /vps <instance_name>", nil)
		return
	}

	sess := c.store.Get(ev.Identity)
	if sess == nil {
		c.send(ev.Identity, "Please login first!", nil)
		return
	}

	instances, err := c.panel.ListInstances(ctx, sess.Token)
	if err != nil && !errors.Is(err, panel.ErrNoInstanceTable) {
		log.Errorf("vps lookup failed for user %d: %v", ev.Identity, err)
		c.send(ev.Identity, fmt.Sprintf("Failed to get instances: %s", userErr(err)), nil)
		return
	}

	for _, inst := range instances {
		if strings.EqualFold(inst.Name, name) {
			sess.SelectedInstance = inst.ID
			kb := Keyboard{
				{btn("Show Details", Callback{Action: ActionDetail, InstanceID: inst.ID})},
				{btn("Back to List", Callback{Action: ActionList})},
			}
			c.send(ev.Identity, fmt.Sprintf("Found VPS: %s\nStatus: %s", inst.Name, inst.Status), kb)
			return
		}
	}
	c.send(ev.Identity, fmt.Sprintf("No VPS instance found with name: %s", name), nil)
}

func (c *Controller) handleText(ctx context.Context, ev Event) {
	switch c.store.State(ev.Identity) {
	case session.StateAwaitUsername:
		c.receiveUsername(ev)
	case session.StateAwaitPassword:
		c.receivePassword(ctx, ev)
	case session.StateAwaitNewPassword:
		c.receiveNewPassword(ctx, ev)
	case session.StateAwaitInternalPort:
		c.receiveInternalPort(ev)
	case session.StateAwaitExternalPort:
		c.receiveExternalPort(ctx, ev)
	default:
		log.Debugf("Ignoring text from user %d outside a conversation", ev.Identity)
	}
}

func (c *Controller) receiveUsername(ev Event) {
	c.store.SetPendingUsername(ev.Identity, ev.Text)
	c.scrub(ev.Message)
	c.store.SetState(ev.Identity, session.StateAwaitPassword)
	c.send(ev.Identity, "Please enter your 7iNet password:", nil)
}

// receivePassword completes the login attempt. The pending username is
// removed whatever the outcome, so a failed login leaves nothing behind.
func (c *Controller) receivePassword(ctx context.Context, ev Event) {
	c.scrub(ev.Message)
	c.store.SetState(ev.Identity, session.StateIdle)

	username, ok := c.store.PendingUsername(ev.Identity)
	if !ok {
		c.send(ev.Identity, "Login process expired. Please start again.", retryLoginKeyboard())
		return
	}

	token, err := c.panel.Login(ctx, username, ev.Text)
	c.store.ClearPending(ev.Identity)

	if err != nil {
		log.Infof("Login failed for user %d: %v", ev.Identity, err)
		c.send(ev.Identity, fmt.Sprintf("Login failed: %s", userErr(err)), retryLoginKeyboard())
		return
	}

	c.store.Create(ev.Identity, token)
	log.Infof("User %d logged in to the panel", ev.Identity)
	c.send(ev.Identity, "Login successful! What would you like to do?", loggedInKeyboard())
}

func (c *Controller) receiveNewPassword(ctx context.Context, ev Event) {
	newPassword := strings.TrimSpace(ev.Text)
	c.scrub(ev.Message)

	// Counted in characters, not bytes: multibyte input must not slip
	// past the minimum.
	if utf8.RuneCountInString(newPassword) < 6 {
		// Stay in the same state; the attempt loops, never advances.
		c.send(ev.Identity, "Password must be at least 6 characters long. Please try again:", nil)
		return
	}

	sess := c.store.Get(ev.Identity)
	if sess == nil || sess.SelectedInstance == "" {
		c.store.SetState(ev.Identity, session.StateIdle)
		c.send(ev.Identity, "Please login first!", nil)
		return
	}

	instanceID := sess.SelectedInstance
	c.store.SetState(ev.Identity, session.StateIdle)

	if err := c.panel.ChangePassword(ctx, sess.Token, instanceID, newPassword); err != nil {
		log.Errorf("Password change failed for user %d on instance %s: %v", ev.Identity, instanceID, err)
		kb := Keyboard{{
			btn("Try Again", Callback{Action: ActionPassword, InstanceID: instanceID}),
			btn("Back to Details", Callback{Action: ActionDetail, InstanceID: instanceID}),
		}}
		c.send(ev.Identity, fmt.Sprintf("Failed to change password: %s", userErr(err)), kb)
		return
	}
	c.send(ev.Identity, "Password changed successfully!", backToDetailKeyboard(instanceID))
}

func (c *Controller) receiveInternalPort(ev Event) {
	sess := c.store.Get(ev.Identity)
	if sess == nil || sess.Wizard == nil {
		c.store.SetState(ev.Identity, session.StateIdle)
		c.send(ev.Identity, "Please login first!", nil)
		return
	}

	port := strings.TrimSpace(ev.Text)
	n, err := strconv.Atoi(port)
	if err != nil {
		c.send(ev.Identity, "Invalid input. Please enter a valid port number:", nil)
		return
	}
	if n < 1 || n > 65535 {
		c.send(ev.Identity, "Invalid port number. Please enter a number between 1 and 65535:", nil)
		return
	}

	sess.Wizard.InternalPort = port
	c.store.SetState(ev.Identity, session.StateAwaitExternalPort)
	c.send(ev.Identity, "Please enter external port number (40000-65500):", nil)
}

// receiveExternalPort finishes the wizard: the accumulated fields are
// submitted exactly once and the wizard is discarded either way.
func (c *Controller) receiveExternalPort(ctx context.Context, ev Event) {
	sess := c.store.Get(ev.Identity)
	if sess == nil || sess.Wizard == nil {
		c.store.SetState(ev.Identity, session.StateIdle)
		c.send(ev.Identity, "Please login first!", nil)
		return
	}

	port := strings.TrimSpace(ev.Text)
	n, err := strconv.Atoi(port)
	if err != nil {
		c.send(ev.Identity, "Invalid input. Please enter a valid port number:", nil)
		return
	}
	if n < 40000 || n > 65500 {
		c.send(ev.Identity, "Invalid port number. Please enter a number between 40000 and 65500:", nil)
		return
	}

	wiz := sess.Wizard
	sess.Wizard = nil
	c.store.SetState(ev.Identity, session.StateIdle)

	if err := c.panel.AddPortForward(ctx, sess.Token, wiz.InstanceID, wiz.Protocol, wiz.InternalPort, port); err != nil {
		log.Errorf("Add port forward failed for user %d on instance %s: %v", ev.Identity, wiz.InstanceID, err)
		c.send(ev.Identity, fmt.Sprintf("Failed to add port forward: %s", userErr(err)), backToDetailKeyboard(wiz.InstanceID))
		return
	}
	c.send(ev.Identity, "Port forward rule added successfully!", backToDetailKeyboard(wiz.InstanceID))
}

func (c *Controller) handleCallback(ctx context.Context, ev Event) {
	cb, err := ParseCallback(ev.Data)
	if err != nil {
		log.Warnf("Dropping bad callback from user %d: %v", ev.Identity, err)
		return
	}

	switch cb.Action {
	case ActionLogin:
		// Entry to the login flow needs no prior session.
		c.store.SetState(ev.Identity, session.StateAwaitUsername)
		c.edit(ev.Origin, "Please enter your 7iNet username:", nil)
	case ActionHelp:
		c.edit(ev.Origin, helpText, nil)
	case ActionLogout:
		c.store.Delete(ev.Identity)
		log.Infof("User %d logged out", ev.Identity)
		c.edit(ev.Origin, "Logged out successfully!", Keyboard{{btn("Login Again", Callback{Action: ActionLogin})}})
	case ActionList:
		c.showInstances(ctx, ev)
	case ActionDetail:
		if sess := c.requireSession(ev); sess != nil {
			sess.SelectedInstance = cb.InstanceID
			c.showInstanceDetail(ctx, ev, sess, cb.InstanceID)
		}
	case ActionPower:
		if c.requireSession(ev) != nil {
			c.edit(ev.Origin,
				fmt.Sprintf("Are you sure you want to %s this VPS?", powerActionText[cb.PowerAction]),
				powerConfirmKeyboard(cb.PowerAction, cb.InstanceID))
		}
	case ActionPowerConfirm:
		c.confirmPower(ctx, ev, cb)
	case ActionPorts:
		c.showPorts(ctx, ev, cb.InstanceID)
	case ActionPortAdd:
		if sess := c.requireSession(ev); sess != nil {
			sess.Wizard = &session.PortWizard{InstanceID: cb.InstanceID}
			c.edit(ev.Origin, "Please select protocol:", protocolKeyboard(cb.InstanceID))
		}
	case ActionPortProtocol:
		if sess := c.requireSession(ev); sess != nil {
			if sess.Wizard == nil {
				sess.Wizard = &session.PortWizard{InstanceID: cb.InstanceID}
			}
			sess.Wizard.Protocol = cb.Protocol
			c.store.SetState(ev.Identity, session.StateAwaitInternalPort)
			c.edit(ev.Origin,
				fmt.Sprintf("Selected protocol: %s\nPlease enter internal port number (1-65535):", strings.ToUpper(cb.Protocol)),
				nil)
		}
	case ActionPortDelete:
		if c.requireSession(ev) != nil {
			c.edit(ev.Origin,
				fmt.Sprintf("Are you sure you want to delete port forwarding rule?\nProtocol: %s\nInternal Port: %s\nExternal Port: %s",
					strings.ToUpper(cb.Protocol), cb.InternalPort, cb.ExternalPort),
				portDeleteConfirmKeyboard(cb))
		}
	case ActionPortDelConfirm:
		c.confirmPortDelete(ctx, ev, cb)
	case ActionPassword:
		if sess := c.requireSession(ev); sess != nil {
			sess.SelectedInstance = cb.InstanceID
			c.store.SetState(ev.Identity, session.StateAwaitNewPassword)
			c.edit(ev.Origin, "Please enter new password for your VPS:\n(Password must be at least 6 characters long)", nil)
		}
	case ActionReinstall:
		// Rendered by the panel's own UI but not exposed through its API.
		c.edit(ev.Origin, "Reinstall is not available through this bot yet.", backToDetailKeyboard(cb.InstanceID))
	}
}

// confirmPower is the only place a power command reaches the panel; the
// initial action button merely renders the confirmation.
func (c *Controller) confirmPower(ctx context.Context, ev Event, cb Callback) {
	sess := c.requireSession(ev)
	if sess == nil {
		return
	}

	log.Infof("User %d confirmed power action '%s' on instance %s", ev.Identity, cb.PowerAction, cb.InstanceID)
	if err := c.panel.PowerControl(ctx, sess.Token, cb.InstanceID, cb.PowerAction); err != nil {
		log.Errorf("Power action '%s' failed for user %d on instance %s: %v", cb.PowerAction, ev.Identity, cb.InstanceID, err)
		c.edit(ev.Origin, fmt.Sprintf("Failed to execute power action: %s", userErr(err)), backToDetailKeyboard(cb.InstanceID))
		return
	}
	c.edit(ev.Origin,
		fmt.Sprintf("Power action %s initiated successfully.\nPlease wait a moment...", cb.PowerAction),
		backToDetailKeyboard(cb.InstanceID))
}

func (c *Controller) confirmPortDelete(ctx context.Context, ev Event, cb Callback) {
	sess := c.requireSession(ev)
	if sess == nil {
		return
	}

	if err := c.panel.DeletePortForward(ctx, sess.Token, cb.InstanceID, cb.Protocol, cb.InternalPort, cb.ExternalPort); err != nil {
		log.Errorf("Delete port forward failed for user %d on instance %s: %v", ev.Identity, cb.InstanceID, err)
		c.edit(ev.Origin, fmt.Sprintf("Failed to delete port: %s", userErr(err)), backToDetailKeyboard(cb.InstanceID))
		return
	}

	// Refresh the detail view so the removed rule disappears immediately.
	sess.SelectedInstance = cb.InstanceID
	c.showInstanceDetail(ctx, ev, sess, cb.InstanceID)
}

func (c *Controller) showInstances(ctx context.Context, ev Event) {
	sess := c.requireSession(ev)
	if sess == nil {
		return
	}

	instances, err := c.panel.ListInstances(ctx, sess.Token)
	if errors.Is(err, panel.ErrNoInstanceTable) {
		// The panel omits the table for accounts with no instances.
		instances, err = nil, nil
	}
	if err != nil {
		log.Errorf("List instances failed for user %d: %v", ev.Identity, err)
		c.edit(ev.Origin, fmt.Sprintf("Failed to get instances: %s", userErr(err)), nil)
		return
	}

	text, kb := instanceListView(instances)
	c.edit(ev.Origin, text, kb)
}

func (c *Controller) showInstanceDetail(ctx context.Context, ev Event, sess *session.Session, instanceID string) {
	detail, err := c.panel.InstanceDetail(ctx, sess.Token, instanceID)
	if err != nil {
		log.Errorf("Instance detail failed for user %d on instance %s: %v", ev.Identity, instanceID, err)
		c.edit(ev.Origin, fmt.Sprintf("Failed to get instance details: %s", userErr(err)), nil)
		return
	}

	text, kb := instanceDetailView(instanceID, detail)
	c.edit(ev.Origin, text, kb)
}

func (c *Controller) showPorts(ctx context.Context, ev Event, instanceID string) {
	sess := c.requireSession(ev)
	if sess == nil {
		return
	}

	detail, err := c.panel.InstanceDetail(ctx, sess.Token, instanceID)
	if err != nil {
		log.Errorf("Port view failed for user %d on instance %s: %v", ev.Identity, instanceID, err)
		c.edit(ev.Origin, fmt.Sprintf("Failed to get instance details: %s", userErr(err)), nil)
		return
	}

	text, kb := portsView(instanceID, detail)
	c.edit(ev.Origin, text, kb)
}

// requireSession resolves the caller's session, answering the stale or
// replayed interactions that arrive after logout or a restart.
func (c *Controller) requireSession(ev Event) *session.Session {
	sess := c.store.Get(ev.Identity)
	if sess == nil {
		c.edit(ev.Origin, "Please login first!", nil)
	}
	return sess
}

// userErr renders an error for the chat. Panel error text is passed
// through verbatim.
func userErr(err error) string {
	return err.Error()
}

func (c *Controller) send(chatID int64, text string, kb Keyboard) {
	if _, err := c.tp.Send(chatID, text, kb); err != nil {
		log.Errorf("Failed to send message to chat %d: %v", chatID, err)
	}
}

func (c *Controller) edit(ref MessageRef, text string, kb Keyboard) {
	if err := c.tp.Edit(ref, text, kb); err != nil {
		log.Errorf("Failed to edit message %d in chat %d: %v", ref.MessageID, ref.ChatID, err)
	}
}

// scrub removes a message containing raw credentials from the chat
// transcript. Best effort: deletion can fail on old messages.
func (c *Controller) scrub(ref MessageRef) {
	if err := c.tp.Delete(ref); err != nil {
		log.Warnf("Failed to delete credential message %d in chat %d: %v", ref.MessageID, ref.ChatID, err)
	}
}
