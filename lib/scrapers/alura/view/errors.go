package view

import "errors"

var (
	// the course requires a manual evaluation before it can be
	// accessed, there is nothing to automate
	ManualEvaluationRequired = errors.New("course requires manual evaluation")
	// the course page rendered without an enrollable access button
	CourseNotVisible = errors.New("course is not visible to this account")
	// the access button pointed at a flow this scraper doesn't know
	UnsupportedCourseState = errors.New("unsupported course state")

	UnknownItemKind = errors.New("unknown item kind")
	ItemNotFound    = errors.New("item not found in its section")
	ContentNotFound = errors.New("task content block not found")
)
