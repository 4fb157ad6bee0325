package session

// Observer receives status and level updates. Calls must not block.
type Observer interface {
	Status(State)
	Level(float64)
	Transcribed(text string)
	Error(error)
}

// Observers fans every call out in order.
type Observers []Observer

func (o Observers) Status(s State) {
	for _, x := range o {
		x.Status(s)
	}
}

func (o Observers) Level(l float64) {
	for _, x := range o {
		x.Level(l)
	}
}

func (o Observers) Transcribed(text string) {
	for _, x := range o {
		x.Transcribed(text)
	}
}

func (o Observers) Error(err error) {
	for _, x := range o {
		x.Error(err)
	}
}

// NopObserver can be embedded to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) Status(State)       {}
func (NopObserver) Level(float64)      {}
func (NopObserver) Transcribed(string) {}
func (NopObserver) Error(error)        {}
