package params

// These are the multipliers for value denominations.
// Example: To get the grain value of an amount in 'sure', use
//
//	amount * params.Sure
const (
	Grain uint64 = 1
	Sure  uint64 = 1e9
)
