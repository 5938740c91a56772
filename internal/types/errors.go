package types

import "errors"

var (
	errNoOrbitProvider = errors.New("types: orbital agent state has no orbit provider")
	errNoAccessWindow  = errors.New("types: no future access window to target")
)
