package notify

import (
	logging "github.com/ipfs/go-log/v2"

	"github.com/dappforge/walletbridge/types"
)

var log = logging.Logger("notify")

// Sink is the presentation-agnostic surface for user-visible wallet status.
// Implementations must swallow their own delivery failures; callers never
// handle sink errors.
type Sink interface {
	// UpdateWalletButton renders the wallet button for the given account.
	// A zero account means disconnected.
	UpdateWalletButton(account types.Account)
	ShowNotification(message string, severity types.Severity)
	PromptInstall(prompt types.InstallPrompt)
	// RequestReload tells page-side listeners to perform a full reload,
	// the recovery used after a live chain swap.
	RequestReload(reason string)
}

var _ Sink = (*LogSink)(nil)

// LogSink writes status to the log, for headless runs and tests.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) UpdateWalletButton(account types.Account) {
	if account.IsZero() {
		log.Info("wallet button: disconnected")
		return
	}
	log.Infof("wallet button: %s", account.Truncate())
}

func (s *LogSink) ShowNotification(message string, severity types.Severity) {
	switch severity {
	case types.SeverityError:
		log.Errorf("notification: %s", message)
	default:
		log.Infof("notification [%s]: %s", severity, message)
	}
}

func (s *LogSink) PromptInstall(prompt types.InstallPrompt) {
	log.Infow("install prompt", "mobile", prompt.Mobile, "installUrl", prompt.InstallURL, "deepLink", prompt.DeepLink)
}

func (s *LogSink) RequestReload(reason string) {
	log.Warnf("reload requested: %s", reason)
}

var _ Sink = (Multi)(nil)

// Multi fans out to several sinks.
type Multi []Sink

func (m Multi) UpdateWalletButton(account types.Account) {
	for _, s := range m {
		s.UpdateWalletButton(account)
	}
}

func (m Multi) ShowNotification(message string, severity types.Severity) {
	for _, s := range m {
		s.ShowNotification(message, severity)
	}
}

func (m Multi) PromptInstall(prompt types.InstallPrompt) {
	for _, s := range m {
		s.PromptInstall(prompt)
	}
}

func (m Multi) RequestReload(reason string) {
	for _, s := range m {
		s.RequestReload(reason)
	}
}
