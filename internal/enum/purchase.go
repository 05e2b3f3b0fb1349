package enum

// PurchaseStep is the step currently reported for a purchase session.
type PurchaseStep string

const (
	StepGenerating  PurchaseStep = "generating"
	StepChecking    PurchaseStep = "checking"
	StepPurchasing  PurchaseStep = "purchasing"
	StepCloudflare  PurchaseStep = "cloudflare"
	StepNameservers PurchaseStep = "nameservers"
	StepCPanel      PurchaseStep = "cpanel"
	StepWordPress   PurchaseStep = "wordpress"
	StepCompleted   PurchaseStep = "completed"
	StepError       PurchaseStep = "error"
	StepCanceled    PurchaseStep = "canceled"
)

func (s PurchaseStep) String() string {
	return string(s)
}

// IsTerminal reports whether the session has reached a step after which no
// further progress writes are legitimate. Intermediate steps can carry a
// "completed" status (e.g. purchasing) without ending the session.
func (s PurchaseStep) IsTerminal() bool {
	return s == StepCompleted || s == StepError || s == StepCanceled
}

// PurchaseStatus qualifies the reported step.
type PurchaseStatus string

const (
	StatusInProgress PurchaseStatus = "in_progress"
	StatusCompleted  PurchaseStatus = "completed"
	StatusError      PurchaseStatus = "error"
	StatusCanceled   PurchaseStatus = "canceled"
)

func (s PurchaseStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further progress writes are legitimate
// for the session once this status is stored.
func (s PurchaseStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCanceled
}
