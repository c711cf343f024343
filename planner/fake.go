package planner

import "context"

// Fake records requests and returns a fixed result or error.
type Fake struct {
	Result Result
	Err    error
	Calls  []Request
}

func NewFake(result Result, err error) *Fake {
	return &Fake{Result: result, Err: err}
}

func (f *Fake) Generate(_ context.Context, req Request) (Result, error) {
	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return Result{}, f.Err
	}
	return f.Result, nil
}

// LastRequest returns the most recent request, or a zero Request.
func (f *Fake) LastRequest() Request {
	if len(f.Calls) == 0 {
		return Request{}
	}
	return f.Calls[len(f.Calls)-1]
}
