package common

// Secure store keys.
const (
	KeySessionToken     = "session.token"
	KeySessionAccountID = "session.account_id"
	KeyMasterAccountID  = "master.account_id"
	KeyDirectLogin      = "session.direct_login"
	KeyLocale           = "app.locale"
	KeyDeviceID         = "device.id"
)

// DeviceIDHeaderName carries the device installation id on outbound requests.
const DeviceIDHeaderName = "X-Device-ID"
