package params

// Admission consensus parameters.
const (
	// ConsensusThreshold is the registered-airline count at which admission
	// switches from immediate registration to multiparty voting.
	ConsensusThreshold uint64 = 4

	// MultiPartyRate divides the registered count to obtain the distinct
	// vote count required to admit an airline once voting is in effect.
	// Rate 2 means simple majority of the registered count (integer division).
	MultiPartyRate uint64 = 2
)

// Oracle consensus parameters.
const (
	// MinOracleResponses is the number of distinct oracle reports carrying
	// the same status code that finalizes a flight status.
	MinOracleResponses = 3

	// OracleIndexCount is the number of distinct response indexes assigned
	// to each oracle at registration.
	OracleIndexCount = 3

	// OracleIndexRange bounds assigned indexes to [0, OracleIndexRange).
	OracleIndexRange uint8 = 10
)

// Fee and premium parameters, in grain.
const (
	// JoinFee is the membership fund an admitted airline must escrow before
	// it may vote, register flights or be counted as a funding participant.
	JoinFee uint64 = 10 * Sure

	// OracleRegistrationFee is the payment required to register an oracle.
	// The full payment is retained by the oracle fee pot.
	OracleRegistrationFee uint64 = 1 * Sure

	// MaxInsurancePremium caps the declared premium of a single policy.
	MaxInsurancePremium uint64 = 1 * Sure
)

// Payout parameters. A delayed flight credits each insured passenger
// premium*PayoutNumerator/PayoutDenominator, rounded down.
const (
	PayoutNumerator   uint64 = 3
	PayoutDenominator uint64 = 2
)
