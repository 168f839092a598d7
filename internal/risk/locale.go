package risk

import "fmt"

// Localizer resolves a message key plus positional arguments to display text.
// The engine owns only the selection and ordering of keys; rendering belongs
// to the localization collaborator.
type Localizer interface {
	Localize(key string, args ...interface{}) string
}

// Message keys selected by the engine.
const (
	MsgFactorAccountFailures = "risk.factor.account_failed_logins"
	MsgFactorIPFailures      = "risk.factor.ip_failed_logins"
	MsgFactorNewSignals      = "risk.factor.new_device_or_location"
	MsgFactorNewNetwork      = "risk.factor.new_network"
	MsgFactorNewLocation     = "risk.factor.new_location"
	MsgFactorNewBrowser      = "risk.factor.new_browser"
	MsgFactorUnusualTime     = "risk.factor.unusual_time"

	MsgAdviceNoActionNeeded   = "risk.advice.no_action_needed"
	MsgAdviceReviewActivity   = "risk.advice.review_recent_activity"
	MsgAdviceEnableMFA        = "risk.advice.enable_mfa"
	MsgAdviceChangePassword   = "risk.advice.change_password"
	MsgAdviceChangePasswordNow = "risk.advice.change_password_now"
	MsgAdviceReviewDevices    = "risk.advice.review_devices"
	MsgAdviceContactSupport   = "risk.advice.contact_support"
	MsgAdviceRotatePassword   = "risk.advice.rotate_password"
	MsgAdviceVerifyNewDevice  = "risk.advice.verify_new_device"
	MsgAdviceSecureAccount    = "risk.advice.secure_account"
)

var englishMessages = map[string]string{
	MsgFactorAccountFailures: "%d failed login attempts on this account within %d minutes",
	MsgFactorIPFailures:      "IP %s made %d failed attempts against %d different accounts",
	MsgFactorNewSignals:      "first successful login from %s",
	MsgFactorNewNetwork:      "new network %s",
	MsgFactorNewLocation:     "new location %s",
	MsgFactorNewBrowser:      "new browser %s",
	MsgFactorUnusualTime:     "login at unusual hour %s",

	MsgAdviceNoActionNeeded:    "No action needed; keep your password private",
	MsgAdviceReviewActivity:    "Review your recent sign-in activity",
	MsgAdviceEnableMFA:         "Enable two-factor authentication",
	MsgAdviceChangePassword:    "Change your password",
	MsgAdviceChangePasswordNow: "Change your password immediately",
	MsgAdviceReviewDevices:     "Review and remove unrecognized devices",
	MsgAdviceContactSupport:    "Contact support if you do not recognize this activity",
	MsgAdviceRotatePassword:    "Rotate your password and avoid reuse across sites",
	MsgAdviceVerifyNewDevice:   "Verify that the new device or location is yours",
	MsgAdviceSecureAccount:     "Secure your account if this sign-in time looks unfamiliar",
}

type catalogLocalizer struct {
	messages map[string]string
}

// NewEnglishLocalizer returns a Localizer backed by the built-in English
// catalog. Unknown keys render as the key itself.
func NewEnglishLocalizer() Localizer {
	return &catalogLocalizer{messages: englishMessages}
}

func (l *catalogLocalizer) Localize(key string, args ...interface{}) string {
	format, ok := l.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
