package domain

type Status string

const (
	StatusReceived        Status = "received"
	StatusVoucherRedeemed Status = "voucher_redeemed"
	StatusInPreparation   Status = "in_preparation"
	StatusServed          Status = "served"
)

// StatusFlow is the fixed order every stall order moves through.
var StatusFlow = []Status{
	StatusReceived,
	StatusVoucherRedeemed,
	StatusInPreparation,
	StatusServed,
}

var statusLabels = map[Status]string{
	StatusReceived:        "Received",
	StatusVoucherRedeemed: "Voucher redeemed",
	StatusInPreparation:   "In preparation",
	StatusServed:          "Served",
}

// InitialStatus returns the first stage of the flow
func InitialStatus() Status {
	return StatusFlow[0]
}

// Next returns the immediate successor of s. ok is false for the last stage
// and for values outside the flow.
func (s Status) Next() (next Status, ok bool) {
	for i, st := range StatusFlow {
		if st == s {
			if i == len(StatusFlow)-1 {
				return "", false
			}
			return StatusFlow[i+1], true
		}
	}
	return "", false
}

func (s Status) IsKnown() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) IsFinal() bool {
	return s == StatusFlow[len(StatusFlow)-1]
}

// Label returns a human readable name for terminals; unknown values are shown as-is.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// TransitionPolicy decides whether the registry checks status changes against StatusFlow.
type TransitionPolicy string

const (
	// PolicyStrict accepts only the immediate successor of the current stage.
	PolicyStrict TransitionPolicy = "strict"
	// PolicyLegacy stores whatever status the terminal sends.
	PolicyLegacy TransitionPolicy = "legacy"
)
