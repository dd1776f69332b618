package port

type ProgressReporter interface {
	Start(total int, description string)
	Advance()
	Finish()
}
