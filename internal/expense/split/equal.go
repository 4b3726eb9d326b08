package split

// Equal divides the converted total evenly among every participant.
// Shares are not rounded.
type Equal struct{}

// Method returns the split method tag
func (Equal) Method() Method {
	return MethodEqual
}

func (Equal) allocate(total, rate float64, participants []string) (Shares, error) {
	share := total * rate / float64(len(participants))

	shares := make(Shares, len(participants))
	for _, p := range participants {
		shares[p] = share
	}
	return shares, nil
}
