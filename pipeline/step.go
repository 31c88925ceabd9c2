package pipeline

import (
	"fmt"
)

type Step string

const (
	StepRead      Step = "read"
	StepConvert   Step = "convert"
	StepGrayscale Step = "grayscale"
	StepDetect    Step = "detect"
	StepBlur      Step = "blur"
	StepResize    Step = "resize"
	StepEncode    Step = "encode"
	StepIndicate  Step = "indicate"
)

var Steps = []Step{StepRead, StepConvert, StepGrayscale, StepDetect, StepBlur, StepResize, StepEncode, StepIndicate}

// StepError is a failure of one step for one frame, the loop skips the frame and goes on
type StepError struct {
	Step  Step
	Frame uint64
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d: %s: %v", e.Frame, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// guard runs fn and turns both a returned error and a panic into a *StepError
func guard(step Step, frame uint64, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StepError{Step: step, Frame: frame, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if e := fn(); e != nil {
		return &StepError{Step: step, Frame: frame, Err: e}
	}

	return nil
}
