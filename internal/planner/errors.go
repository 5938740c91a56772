package planner

import "errors"

var (
	errNoReplySocket    = errors.New("planner module has no reply socket")
	errNoSubscribeSocket = errors.New("planner module has no subscribe socket")
)
