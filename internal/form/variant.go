// Package form holds the state of one book-request form session: the chosen
// group, student and book, the copy codes attached to the request, and the
// controller that validates and submits it. It has no rendering surface; the
// terminal UI and the non-interactive commands both drive it.
package form

import "github.com/blackwell-systems/libreq/internal/config"

// Order is the sequence in which the user picks the student and the book.
type Order int

const (
	// OrderBookFirst picks group, then book, then student.
	OrderBookFirst Order = iota
	// OrderStudentFirst picks group, then student, then book. Copies depend
	// on the student, so clearing the student drops them.
	OrderStudentFirst
)

// Mode is how copy codes are attached to the request.
type Mode int

const (
	// ModeQuantity slices the first N codes of the book's copy list.
	ModeQuantity Mode = iota
	// ModeManual accumulates typed or scanned codes.
	ModeManual
)

// Variant collapses the form's historical variants into flags.
type Variant struct {
	Order Order
	Mode  Mode
	// Strict requires the attached set to match a separately declared
	// quantity at submit time. Only meaningful in ModeManual.
	Strict bool
}

// VariantFromConfig maps the form section of the config to a Variant.
func VariantFromConfig(fc config.FormConfig) Variant {
	v := Variant{Order: OrderBookFirst, Mode: ModeQuantity, Strict: fc.Strict}
	if fc.StudentFirst() {
		v.Order = OrderStudentFirst
	}
	if !fc.QuantityMode() {
		v.Mode = ModeManual
	}
	return v
}

// SendsQuantity reports whether the submission carries a quantity field.
func (v Variant) SendsQuantity() bool {
	return v.Mode == ModeQuantity || v.Strict
}
