package shared

// LoaderOp identifies an async operation that can show a spinner.
type LoaderOp string

const (
	OpStart   LoaderOp = "start"
	OpStop    LoaderOp = "stop"
	OpConnect LoaderOp = "connect"
)

// Loaders tracks the in-flight operations and their labels.
type Loaders map[LoaderOp]string

func (l Loaders) Start(op LoaderOp, label string) Loaders {
	if l == nil {
		l = Loaders{}
	}
	l[op] = label
	return l
}

func (l Loaders) Stop(op LoaderOp) {
	delete(l, op)
}

func (l Loaders) Active() bool {
	return len(l) > 0
}

// Label returns the label of the most important active operation.
func (l Loaders) Label() string {
	for _, op := range []LoaderOp{OpStart, OpStop, OpConnect} {
		if label, ok := l[op]; ok {
			return label
		}
	}
	return ""
}
