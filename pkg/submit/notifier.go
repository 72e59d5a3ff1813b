package submit

import (
	"fmt"
	"io"
)

// Notifier surfaces a message to the user. Each submission produces exactly one notice.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// WriterNotifier prints each notice followed by a newline.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(msg string) {
	fmt.Fprintln(n.W, msg)
}
