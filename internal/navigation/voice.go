package navigation

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Speaker plays spoken text on the host
type Speaker interface {
	// Speak starts an utterance without waiting for it to finish
	Speak(text string) error
	// Cancel stops any utterance in flight
	Cancel()
}

// Phrase turns an instruction into the sentence that is spoken
func Phrase(text string) string {
	text = strings.Replace(text, "turn", "Turn", 1)
	return strings.Replace(text, "arrive", "You have arrived at", 1)
}

// Announcer speaks an instruction once each time it changes.
// Only the last spoken instruction is remembered.
type Announcer struct {
	speaker Speaker
	logger  logrus.FieldLogger
	muted   bool
	last    string
}

// NewAnnouncer creates an unmuted announcer
func NewAnnouncer(speaker Speaker, logger logrus.FieldLogger) *Announcer {
	if speaker == nil {
		speaker = NopSpeaker{}
	}
	return &Announcer{speaker: speaker, logger: logger}
}

// Announce speaks text unless it matches the last announcement or audio is
// muted. It reports whether speech was issued.
func (a *Announcer) Announce(text string) bool {
	if a.muted || text == "" || text == a.last {
		return false
	}

	a.speaker.Cancel()
	if err := a.speaker.Speak(Phrase(text)); err != nil {
		a.logger.WithError(err).WithField("instruction", text).Warn("Speech failed")
	}
	a.last = text
	return true
}

// SetMuted toggles audio. Muting also silences the current utterance.
func (a *Announcer) SetMuted(muted bool) {
	a.muted = muted
	if muted {
		a.speaker.Cancel()
	}
}

// Muted reports whether audio is off
func (a *Announcer) Muted() bool {
	return a.muted
}

// Last returns the most recently spoken instruction
func (a *Announcer) Last() string {
	return a.last
}

// Reset forgets the last instruction so the next one is always spoken
func (a *Announcer) Reset() {
	a.last = ""
}

// Close cancels speech in flight
func (a *Announcer) Close() {
	a.speaker.Cancel()
}

// NopSpeaker discards speech
type NopSpeaker struct{}

func (NopSpeaker) Speak(string) error { return nil }
func (NopSpeaker) Cancel()            {}

// CommandSpeaker runs a text-to-speech program such as espeak-ng or say,
// passing the text as the final argument. One utterance runs at a time.
type CommandSpeaker struct {
	name string
	args []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSpeaker parses a command line like "espeak-ng -s 150"
func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty speech command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("speech command %q: %w", fields[0], err)
	}
	return &CommandSpeaker{name: path, args: fields[1:]}, nil
}

// Speak starts the speech process and reaps it in the background
func (s *CommandSpeaker) Speak(text string) error {
	args := append(append([]string{}, s.args...), text)
	cmd := exec.Command(s.name, args...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.name, err)
	}
	s.cmd = cmd

	go func() {
		cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()
	return nil
}

// Cancel kills the running utterance, if any
func (s *CommandSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd = nil
	}
}
