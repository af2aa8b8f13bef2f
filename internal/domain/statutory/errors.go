package statutory

import "errors"

var (
	ErrNoRateConfigured  = errors.New("no statutory rate configured")
	ErrNoBandsConfigured = errors.New("no tax bands configured")
	ErrInvalidTaxBands   = errors.New("invalid tax band table")
)
