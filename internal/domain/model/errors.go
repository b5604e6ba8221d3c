package model

import "errors"

var (
	// ErrScanExecution means the scanner could not run or crashed. Finding
	// vulnerabilities is not an execution error.
	ErrScanExecution = errors.New("scan execution failed")

	// ErrMalformedAdvisory means scanner output could not be parsed into advisories.
	ErrMalformedAdvisory = errors.New("malformed advisory data")
)
