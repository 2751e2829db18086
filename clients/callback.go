package clients

import (
	"net/url"
	"strings"
)

// CallbackOutcome tags the interpretation of a gateway redirect URL.
// Interpretation happens exactly once, here at the boundary; everything past
// this point works with the tagged event, never the raw URL.
type CallbackOutcome int

const (
	// CallbackUnrecognized means the URL carries no known marker. The
	// navigation proceeds unintercepted (fail-open on interception).
	CallbackUnrecognized CallbackOutcome = iota
	// CallbackResult means the URL carries a payment result to process.
	CallbackResult
	// CallbackFailed means the URL carries an explicit failure marker.
	CallbackFailed
)

// Markers the gateway is known to embed in its redirect URLs.
const (
	resultMarker       = "/payment/result"
	failMarker         = "/payment/fail"
	accessDeniedMarker = "access-denied"
	failedStatus       = "FAILED"
)

// CallbackEvent is the parsed outcome of a gateway redirect.
type CallbackEvent struct {
	Outcome       CallbackOutcome
	OrderID       string
	Status        string
	PaymentMethod string
}

// ParseCallbackURL classifies a gateway redirect URL. Ambiguous or
// unparseable URLs classify as Unrecognized: a broken redirect must behave
// like a normal page load, not like a payment outcome.
func ParseCallbackURL(raw string) CallbackEvent {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackEvent{Outcome: CallbackUnrecognized}
	}

	q := u.Query()
	orderID := q.Get("orderId")
	if orderID == "" {
		orderID = q.Get("order_id")
	}
	status := strings.ToUpper(q.Get("status"))

	path := strings.ToLower(u.Path)
	switch {
	case strings.Contains(path, failMarker), strings.Contains(path, accessDeniedMarker), status == failedStatus:
		return CallbackEvent{Outcome: CallbackFailed, OrderID: orderID, Status: failedStatus}
	case strings.Contains(path, resultMarker):
		if orderID == "" {
			return CallbackEvent{Outcome: CallbackUnrecognized}
		}
		method := q.Get("paymentMethod")
		if method == "" {
			method = q.Get("payment_method")
		}
		return CallbackEvent{Outcome: CallbackResult, OrderID: orderID, Status: status, PaymentMethod: method}
	}
	return CallbackEvent{Outcome: CallbackUnrecognized}
}
