package testhelper

import (
	"sync"

	"github.com/dappforge/walletbridge/notify"
	"github.com/dappforge/walletbridge/types"
)

var _ notify.Sink = (*RecordingSink)(nil)

type Notification struct {
	Message  string
	Severity types.Severity
}

// RecordingSink captures every UI directive for assertions.
type RecordingSink struct {
	lk sync.Mutex

	buttons       []types.Account
	notifications []Notification
	installs      []types.InstallPrompt
	reloads       []string
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) UpdateWalletButton(account types.Account) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.buttons = append(s.buttons, account)
}

func (s *RecordingSink) ShowNotification(message string, severity types.Severity) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.notifications = append(s.notifications, Notification{Message: message, Severity: severity})
}

func (s *RecordingSink) PromptInstall(prompt types.InstallPrompt) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.installs = append(s.installs, prompt)
}

func (s *RecordingSink) RequestReload(reason string) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.reloads = append(s.reloads, reason)
}

func (s *RecordingSink) Buttons() []types.Account {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]types.Account, len(s.buttons))
	copy(out, s.buttons)
	return out
}

func (s *RecordingSink) LastButton() (types.Account, bool) {
	s.lk.Lock()
	defer s.lk.Unlock()
	if len(s.buttons) == 0 {
		return types.NoAccount, false
	}
	return s.buttons[len(s.buttons)-1], true
}

func (s *RecordingSink) Notifications() []Notification {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *RecordingSink) NotificationsWith(severity types.Severity) []Notification {
	s.lk.Lock()
	defer s.lk.Unlock()
	var out []Notification
	for _, n := range s.notifications {
		if n.Severity == severity {
			out = append(out, n)
		}
	}
	return out
}

func (s *RecordingSink) Installs() []types.InstallPrompt {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]types.InstallPrompt, len(s.installs))
	copy(out, s.installs)
	return out
}

func (s *RecordingSink) Reloads() []string {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]string, len(s.reloads))
	copy(out, s.reloads)
	return out
}

func (s *RecordingSink) Reset() {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.buttons = nil
	s.notifications = nil
	s.installs = nil
	s.reloads = nil
}
