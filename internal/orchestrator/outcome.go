package orchestrator

// OutcomeKind classifies what the queue adapter should do with a message.
type OutcomeKind int

const (
	// Ack removes the message from the queue; processing is complete or the
	// message is not actionable (malformed, unknown account, terminal record).
	Ack OutcomeKind = iota
	// Retry leaves the message in the queue for redelivery after the
	// visibility timeout. Used for transient failures, admission backpressure
	// and to drive polling of an in-flight provisioning job.
	Retry
	// DeadLetter removes the message like Ack but marks the request as
	// unprocessable; the adapter logs it at error level and bumps a metric.
	DeadLetter
)

func (k OutcomeKind) String() string {
	switch k {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	case DeadLetter:
		return "dead-letter"
	default:
		return "unknown"
	}
}

// Outcome is the per-message result the orchestrator hands back to the queue
// adapter. Retry is the only kind reported to SQS as a batch item failure.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func ack(reason string) Outcome        { return Outcome{Kind: Ack, Reason: reason} }
func retry(reason string) Outcome      { return Outcome{Kind: Retry, Reason: reason} }
func deadLetter(reason string) Outcome { return Outcome{Kind: DeadLetter, Reason: reason} }
