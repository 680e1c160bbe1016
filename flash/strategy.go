package flash

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Attempt is one named step of a fixed fallback sequence.
type Attempt struct {
	Name string
	Run  func() (*Result, error)
}

// Observer is notified around every attempt of a sequence. The scan view
// implements it; a nil Observer is allowed.
type Observer interface {
	AttemptStarted(name string)
	AttemptFinished(name string, res *Result, err error)
}

// FirstSuccess runs attempts left to right and stops at the first one that
// returns at least one bank. Attempts that fail or come back empty are skipped.
//
// When no attempt produced banks, the first attempt that succeeded with an
// empty result is returned with a nil error; when every attempt failed, the
// joined failures are returned.
func FirstSuccess(attempts []Attempt, obs Observer) (*Result, string, error) {
	var (
		errs      []error
		firstOK   *Result
		firstName string
	)
	for _, a := range attempts {
		if obs != nil {
			obs.AttemptStarted(a.Name)
		}
		res, err := a.Run()
		if obs != nil {
			obs.AttemptFinished(a.Name, res, err)
		}
		switch {
		case err != nil:
			log.WithField("attempt", a.Name).Debugf("attempt failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
		case res == nil || len(res.Banks) == 0:
			log.WithField("attempt", a.Name).Debug("attempt returned no banks")
			if firstOK == nil && res != nil {
				firstOK, firstName = res, a.Name
			}
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, ErrEmpty))
		default:
			return res, a.Name, nil
		}
	}
	if firstOK != nil {
		return firstOK, firstName, nil
	}
	if len(errs) == 0 {
		return nil, "", ErrEmpty
	}
	return nil, "", errors.Join(errs...)
}

// FirstOK runs attempts left to right and stops at the first one that does
// not fail, even when its result has no banks. When every attempt failed,
// the joined failures are returned.
func FirstOK(attempts []Attempt, obs Observer) (*Result, string, error) {
	var errs []error
	for _, a := range attempts {
		if obs != nil {
			obs.AttemptStarted(a.Name)
		}
		res, err := a.Run()
		if err == nil && res == nil {
			res = &Result{}
		}
		if obs != nil {
			obs.AttemptFinished(a.Name, res, err)
		}
		if err == nil {
			return res, a.Name, nil
		}
		log.WithField("attempt", a.Name).Infof("attempt failed: %v", err)
		errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
	}
	if len(errs) == 0 {
		return nil, "", ErrEmpty
	}
	return nil, "", errors.Join(errs...)
}
