package edit

import "errors"

var (
	NoAnswerSelected     = errors.New("no answer alternative selected")
	NoKnownCorrectAnswer = errors.New("page does not reveal a correct answer")
)
