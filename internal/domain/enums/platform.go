package enums

type Platform string

const (
	PlatformIOS Platform = "ios"
	PlatformWeb Platform = "web"
	// PlatformAndroid is reserved for a future Play Billing integration.
	PlatformAndroid Platform = "android"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformWeb, PlatformAndroid:
		return true
	default:
		return false
	}
}
