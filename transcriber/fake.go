package transcriber

import "context"

// Fake returns a fixed pair or error and counts calls.
type Fake struct {
	Pair  Pair
	Err   error
	Calls int

	LastContainer string
}

func NewFake(pair Pair, err error) *Fake {
	return &Fake{Pair: pair, Err: err}
}

func (f *Fake) Transcribe(_ context.Context, _ []byte, container string) (Pair, error) {
	f.Calls++
	f.LastContainer = container
	if f.Err != nil {
		return Pair{}, f.Err
	}
	return f.Pair, nil
}
