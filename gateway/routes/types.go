package routes

type amountRequest struct {
	Amount string `json:"amount"`
}

type signedUpdateRequest struct {
	Subject    string `json:"subject"`
	Cumulative string `json:"cumulative"`
	WindowID   string `json:"windowId"`
	Deadline   string `json:"deadline"`
	Signature  string `json:"signature"`
}

type participateRequest struct {
	Identity string `json:"identity"`
	Amount   string `json:"amount"`
	RightID  string `json:"rightId"`
}

type claimRequest struct {
	Epoch      uint64   `json:"epoch"`
	Cumulative string   `json:"cumulative"`
	Proof      []string `json:"proof"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type identityRequest struct {
	Identity string `json:"identity"`
}

type roleRequest struct {
	Role    string `json:"role"`
	Member  string `json:"member"`
	Enabled bool   `json:"enabled"`
}

type rightRequest struct {
	RightID     string `json:"rightId"`
	Destination string `json:"destination"`
}

type rootRequest struct {
	Epoch uint64 `json:"epoch"`
	Root  string `json:"root"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type accountResponse struct {
	Identity                   string `json:"identity"`
	Exists                     bool   `json:"exists"`
	Balance                    string `json:"balance"`
	ReservedTotal              string `json:"reservedTotal"`
	ReservedConsumed           string `json:"reservedConsumed"`
	ReservedAvail              string `json:"reservedAvail"`
	Withdrawable               string `json:"withdrawable"`
	ClaimableBuffer            string `json:"claimableBuffer"`
	CumulativeRoyalty          string `json:"cumulativeRoyalty"`
	Available                  string `json:"available"`
	LastUpdate                 uint64 `json:"lastUpdate"`
	AccumulatedReservedSeconds string `json:"accumulatedReservedSeconds"`
}

type totalsResponse struct {
	Deposits           string `json:"deposits"`
	ConsumedForRoyalty string `json:"consumedForRoyalty"`
	RoyaltyAllocated   string `json:"royaltyAllocated"`
	RoyaltyPaid        string `json:"royaltyPaid"`
	Holdings           string `json:"holdings"`
	ExcessSweepable    string `json:"excessSweepable"`
}

type paramsResponse struct {
	Admin      string `json:"admin"`
	Treasury   string `json:"treasury,omitempty"`
	DepositCap string `json:"depositCap"`
	Paused     bool   `json:"paused"`
}

type domainResponse struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           string `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
	Separator         string `json:"separator"`
}

type roleResponse struct {
	Role    string `json:"role"`
	Member  string `json:"member"`
	Enabled bool   `json:"enabled"`
}

type rightResponse struct {
	RightID     string `json:"rightId"`
	Bound       bool   `json:"bound"`
	Destination string `json:"destination,omitempty"`
}

type epochResponse struct {
	Epoch uint64 `json:"epoch"`
	Set   bool   `json:"set"`
	Root  string `json:"root,omitempty"`
}

type claimedResponse struct {
	Epoch    uint64 `json:"epoch"`
	Identity string `json:"identity"`
	Claimed  string `json:"claimed"`
}

type claimResponse struct {
	Paid string `json:"paid"`
}

type balanceResponse struct {
	Asset    string `json:"asset"`
	Identity string `json:"identity"`
	Balance  string `json:"balance"`
}

type auditRecord struct {
	Sequence    uint64            `json:"sequence"`
	ID          string            `json:"id"`
	Operation   string            `json:"operation"`
	Type        string            `json:"type"`
	Subject     string            `json:"subject,omitempty"`
	WindowID    string            `json:"windowId,omitempty"`
	Attributes  map[string]string `json:"attributes"`
	CommittedAt string            `json:"committedAt"`
}
