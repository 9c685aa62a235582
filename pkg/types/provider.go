package types

type PaymentProvider string

const (
	PaymentProviderNewebPay PaymentProvider = "newebpay"
)

// NotificationEndpoint names the gateway delivery channel a request arrived on.
type NotificationEndpoint string

const (
	// NotificationEndpointNotify is the server-to-server notification.
	NotificationEndpointNotify NotificationEndpoint = "notify"
	// NotificationEndpointCallback is the browser return after checkout.
	NotificationEndpointCallback NotificationEndpoint = "callback"
	// NotificationEndpointCustomer is the browser return after an offsite payment code was issued.
	NotificationEndpointCustomer NotificationEndpoint = "customer"
)
