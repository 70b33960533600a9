package outbound

// Metrics records business events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RegistrationCompleted(role string)
	OTPIssued()
	OTPVerified(result string)
	AdminMutation(action, result string)
}

type NopMetrics struct{}

func (NopMetrics) RegistrationCompleted(string) {}
func (NopMetrics) OTPIssued()                   {}
func (NopMetrics) OTPVerified(string)           {}
func (NopMetrics) AdminMutation(string, string) {}
