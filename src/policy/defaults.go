package policy

// Permission defaults use the Chromium content-setting values.
const (
	ContentAllow = 1
	ContentBlock = 2
	ContentAsk   = 3
)

var dnsOverHTTPSModes = []string{"off", "automatic", "secure"}

// Defaults returns the privacy-focused policy catalogue. The order here is
// the render order of every platform.
func Defaults() *Model {
	return MustModel(
		// features
		Setting{Name: "BraveRewardsDisabled", Group: GroupFeatures, Value: Bool(true)},
		Setting{Name: "BraveWalletDisabled", Group: GroupFeatures, Value: Bool(true)},
		Setting{Name: "BraveVPNDisabled", Group: GroupFeatures, Value: Bool(true), Since: "1.49.0"},
		Setting{Name: "BraveAIChatEnabled", Group: GroupFeatures, Value: Bool(false), Since: "1.62.0"},
		Setting{Name: "BraveNewsDisabled", Group: GroupFeatures, Value: Bool(true), Since: "1.78.0"},
		Setting{Name: "BraveTalkDisabled", Group: GroupFeatures, Value: Bool(true), Since: "1.78.0"},
		Setting{Name: "TorDisabled", Group: GroupFeatures, Value: Bool(true)},
		Setting{Name: "IPFSEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "PasswordManagerEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "AutofillAddressEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "AutofillCreditCardEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "PromotionalTabsEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "ShoppingListEnabled", Group: GroupFeatures, Value: Bool(false)},
		Setting{Name: "DnsOverHttpsMode", Group: GroupFeatures, Value: Enum("automatic"), Allowed: dnsOverHTTPSModes},

		// telemetry
		Setting{Name: "MetricsReportingEnabled", Group: GroupTelemetry, Value: Bool(false)},
		Setting{Name: "BraveP3AEnabled", Group: GroupTelemetry, Value: Bool(false), Since: "1.49.0"},
		Setting{Name: "BraveStatsPingEnabled", Group: GroupTelemetry, Value: Bool(false), Since: "1.49.0"},
		Setting{Name: "BraveWebDiscoveryEnabled", Group: GroupTelemetry, Value: Bool(false), Since: "1.49.0"},
		Setting{Name: "UrlKeyedAnonymizedDataCollectionEnabled", Group: GroupTelemetry, Value: Bool(false)},
		Setting{Name: "FeedbackSurveysEnabled", Group: GroupTelemetry, Value: Bool(false)},
		Setting{Name: "SafeBrowsingExtendedReportingEnabled", Group: GroupTelemetry, Value: Bool(false)},
		Setting{Name: "ReportAppInventory", Group: GroupTelemetry, Value: StringList()},
		Setting{Name: "ReportWebsiteTelemetry", Group: GroupTelemetry, Value: StringList()},

		// permissions
		Setting{Name: "DefaultGeolocationSetting", Group: GroupPermissions, Value: Int(ContentBlock)},
		Setting{Name: "DefaultNotificationsSetting", Group: GroupPermissions, Value: Int(ContentBlock)},
		Setting{Name: "DefaultSensorsSetting", Group: GroupPermissions, Value: Int(ContentBlock)},
		Setting{Name: "DefaultSerialGuardSetting", Group: GroupPermissions, Value: Int(ContentBlock)},
		Setting{Name: "DefaultWebBluetoothGuardSetting", Group: GroupPermissions, Value: Int(ContentBlock)},

		// sync and background
		Setting{Name: "SyncDisabled", Group: GroupSync, Value: Bool(true)},
		Setting{Name: "BackgroundModeEnabled", Group: GroupSync, Value: Bool(false)},
		Setting{Name: "BrowserSignin", Group: GroupSync, Value: Int(0)},
	)
}
