// Package layout derives the visual shape of a text node: its connection ports
// and its width and height. Everything here is a pure function of its inputs.
package layout
