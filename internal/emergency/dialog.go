// Package emergency implements the SOS flow: confirm, then hand an SMS and a
// phone call to the host platform.
package emergency

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/ngmaloney/port-navigator/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPhone     = "8848932872"
	DefaultCallDelay = 500 * time.Millisecond
)

// Step is where the dialog is in the SOS flow
type Step int

const (
	StepConfirm Step = iota
	StepSent
)

// Dispatcher hands intents to the host platform
type Dispatcher interface {
	ComposeSMS(number, body string) error
	Call(number string) error
}

// Message builds the SOS text with a map link, or "Unknown" without a position
func Message(pos *models.Coordinate) string {
	lat, lon := "Unknown", "Unknown"
	if pos != nil {
		lat = fmt.Sprintf("%.5f", pos.Lat)
		lon = fmt.Sprintf("%.5f", pos.Lon)
	}
	return fmt.Sprintf("SOS! I need HELP. heavy traffic/accident at location: https://www.google.com/maps?q=%s,%s", lat, lon)
}

// Dialog is the emergency overlay state
type Dialog struct {
	phone      string
	callDelay  time.Duration
	dispatcher Dispatcher
	logger     logrus.FieldLogger

	open bool
	step Step

	mu        sync.Mutex
	callTimer *time.Timer
}

// NewDialog creates a closed dialog for the given contact number
func NewDialog(phone string, callDelay time.Duration, dispatcher Dispatcher, logger logrus.FieldLogger) *Dialog {
	if phone == "" {
		phone = DefaultPhone
	}
	return &Dialog{phone: phone, callDelay: callDelay, dispatcher: dispatcher, logger: logger}
}

func (d *Dialog) Phone() string { return d.phone }
func (d *Dialog) IsOpen() bool  { return d.open }
func (d *Dialog) Step() Step    { return d.step }

// Open shows the dialog at the confirm step
func (d *Dialog) Open() {
	d.open = true
	d.step = StepConfirm
}

// Confirm sends the SMS, schedules the call and moves to the sent step.
// Platform failures are logged; the dialog reports sent either way.
func (d *Dialog) Confirm(pos *models.Coordinate) {
	if !d.open || d.step != StepConfirm {
		return
	}

	body := Message(pos)
	if err := d.dispatcher.ComposeSMS(d.phone, body); err != nil {
		d.logger.WithError(err).WithField("phone", d.phone).Error("Failed to open SMS composer")
	}

	d.mu.Lock()
	if d.callTimer != nil {
		d.callTimer.Stop()
	}
	d.callTimer = time.AfterFunc(d.callDelay, func() {
		if err := d.dispatcher.Call(d.phone); err != nil {
			d.logger.WithError(err).WithField("phone", d.phone).Error("Failed to start call")
		}
	})
	d.mu.Unlock()

	d.step = StepSent
}

// Close hides the dialog. A call that has not started yet is kept.
func (d *Dialog) Close() {
	d.open = false
}

// Shutdown cancels a pending call
func (d *Dialog) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.callTimer != nil {
		d.callTimer.Stop()
		d.callTimer = nil
	}
}

// OpenerDispatcher opens sms: and tel: URIs with the desktop URL opener
type OpenerDispatcher struct {
	opener string
}

// NewOpenerDispatcher picks xdg-open, or open on macOS
func NewOpenerDispatcher() *OpenerDispatcher {
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	return &OpenerDispatcher{opener: opener}
}

// SMSURI builds the composer link for number with a prefilled body
func SMSURI(number, body string) string {
	return "sms:" + number + "?&body=" + url.QueryEscape(body)
}

// TelURI builds the dialer link for number
func TelURI(number string) string {
	return "tel:" + number
}

func (o *OpenerDispatcher) ComposeSMS(number, body string) error {
	return o.launch(SMSURI(number, body))
}

func (o *OpenerDispatcher) Call(number string) error {
	return o.launch(TelURI(number))
}

func (o *OpenerDispatcher) launch(uri string) error {
	cmd := exec.Command(o.opener, uri)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s %s: %w", o.opener, uri, err)
	}
	go cmd.Wait()
	return nil
}
