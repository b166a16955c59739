package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/libreq/internal/directory"
)

// Phase is the submission controller's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Submit button labels.
const (
	LabelSubmit  = "Отправить запрос"
	LabelSending = "Отправка..."
)

// ErrBusy is returned when a submission is started while one is in flight.
var ErrBusy = errors.New("запрос уже отправляется")

// ValidationError is a problem found before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SendError wraps a transport failure during submission.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "Ошибка отправки: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

// Submitter sends a book request. *directory.Client implements it.
type Submitter interface {
	SubmitRequest(ctx context.Context, r directory.BookRequest) (*directory.Receipt, error)
}

// Validate checks a selection in the order the user fills the form.
func Validate(s *State) error {
	switch {
	case s.Group() == nil:
		return &ValidationError{"Ошибка: Сначала выберите группу"}
	case strings.TrimSpace(s.StudentText()) == "" && s.Student() == nil:
		return &ValidationError{"Ошибка: Введите ФИО студента"}
	case s.Student() == nil:
		return &ValidationError{"Ошибка: Студент не найден. Выберите из списка или проверьте ФИО"}
	case s.Book() == nil:
		return &ValidationError{"Ошибка: Выберите книгу"}
	case s.CopyCount() == 0:
		return &ValidationError{"Ошибка: Выберите хотя бы один экземпляр"}
	case s.Variant().Mode == ModeManual && len(s.Rejected()) > 0:
		return &ValidationError{fmt.Sprintf("Ошибка: Экземпляры недоступны: %s", strings.Join(s.Rejected(), ", "))}
	case s.Variant().Mode == ModeManual && s.Variant().Strict && s.CopyCount() != s.Quantity():
		return &ValidationError{fmt.Sprintf("Ошибка: Выбрано экземпляров: %d, а указано количество: %d", s.CopyCount(), s.Quantity())}
	}
	return nil
}

// Controller validates and submits the selection held in a State.
type Controller struct {
	state *State
	sub   Submitter
	log   *zap.Logger

	phase Phase
	busy  bool
}

// NewController creates a Controller over state.
func NewController(state *State, sub Submitter, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{state: state, sub: sub, log: log}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Busy reports whether a submission is in flight; the submit control is
// disabled while it is.
func (c *Controller) Busy() bool { return c.busy }

// Label returns the submit control's current label.
func (c *Controller) Label() string {
	if c.busy {
		return LabelSending
	}
	return LabelSubmit
}

// Begin validates the selection and marks the controller busy. It returns
// the request to send. Every successful Begin must be paired with Finish.
func (c *Controller) Begin() (directory.BookRequest, error) {
	if c.busy {
		return directory.BookRequest{}, ErrBusy
	}
	c.phase = PhaseValidating
	if err := Validate(c.state); err != nil {
		c.phase = PhaseIdle
		return directory.BookRequest{}, err
	}
	c.phase = PhaseSubmitting
	c.busy = true
	return c.state.Request(), nil
}

// Finish records the outcome of a send started with Begin. On success the
// selection is reset; on failure it is kept so the user can fix and retry.
func (c *Controller) Finish(receipt *directory.Receipt, err error) (*directory.Receipt, error) {
	c.busy = false
	if err != nil {
		c.phase = PhaseFailed
		var rejected *directory.RejectedError
		if errors.As(err, &rejected) {
			c.log.Info("request rejected", zap.Int("status", rejected.Status), zap.String("body", rejected.Body))
			return nil, err
		}
		c.log.Warn("request failed", zap.Error(err))
		return nil, &SendError{Err: err}
	}
	if receipt == nil {
		receipt = &directory.Receipt{}
	}
	c.phase = PhaseSucceeded
	c.log.Info("request accepted", zap.String("request_id", receipt.RequestID))
	c.state.Reset()
	return receipt, nil
}

// Submit runs Begin, the send, and Finish in one call. The busy flag is
// cleared on every path, including a panicking Submitter.
func (c *Controller) Submit(ctx context.Context) (*directory.Receipt, error) {
	req, err := c.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { c.busy = false }()
	return c.Finish(c.sub.SubmitRequest(ctx, req))
}

// Acknowledge returns the controller to idle after the outcome was shown.
func (c *Controller) Acknowledge() {
	c.phase = PhaseIdle
}
