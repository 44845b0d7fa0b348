package checkout

// State is a checkout flow state.
type State string

const (
	StateIdle               State = "idle"
	StatePreparingPayment   State = "preparing_payment"
	StateAwaitingSubmission State = "awaiting_submission"
	StateProcessing         State = "processing"
	StateSucceeded          State = "succeeded"
	StateFailed             State = "failed"
	// StateRedirectToCart is the outcome of opening checkout on an empty cart.
	StateRedirectToCart State = "redirect_to_cart"
)

// Terminal reports whether no further payment call can start from s without
// reopening the flow.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateRedirectToCart
}

func (s State) String() string { return string(s) }
