package audio

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// CommandSpeaker implements Speaker by shelling out to an external
// text-to-speech program such as espeak-ng or say. The text is passed as the
// final argument; "{lang}" in the argument list is replaced with the
// language code.
type CommandSpeaker struct {
	mu      sync.Mutex
	command string
	args    []string
	voices  map[string]bool
	logger  *slog.Logger
	current *exec.Cmd
}

// NewCommandSpeaker creates a CommandSpeaker. voices lists the language
// codes the configured program has voices for; an empty list means every
// language is accepted.
func NewCommandSpeaker(command string, args []string, voices []string, logger *slog.Logger) *CommandSpeaker {
	if command == "" {
		panic("command cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	voiceSet := make(map[string]bool, len(voices))
	for _, v := range voices {
		voiceSet[strings.ToLower(strings.TrimSpace(v))] = true
	}

	return &CommandSpeaker{
		command: command,
		args:    args,
		voices:  voiceSet,
		logger:  logger.With(slog.String("component", "command_speaker")),
	}
}

// Verify interface compliance at compile time.
var _ Speaker = (*CommandSpeaker)(nil)

// Speak implements Speaker.Speak by running the configured program and
// blocking until it exits or ctx is cancelled.
func (s *CommandSpeaker) Speak(ctx context.Context, text, languageCode string) error {
	if !s.SupportsLanguage(languageCode) {
		return ErrLanguageNotSupported
	}

	args := make([]string, 0, len(s.args)+1)
	for _, a := range s.args {
		args = append(args, strings.ReplaceAll(a, "{lang}", languageCode))
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, s.command, args...)

	s.mu.Lock()
	s.current = cmd
	s.mu.Unlock()

	err := cmd.Run()

	s.mu.Lock()
	if s.current == cmd {
		s.current = nil
	}
	s.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		s.logger.Warn("tts command failed",
			slog.String("command", s.command),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Stop implements Speaker.Stop by killing the in-flight process, if any.
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Process != nil {
		_ = s.current.Process.Kill()
		s.current = nil
	}
}

// SupportsLanguage implements Speaker.SupportsLanguage.
func (s *CommandSpeaker) SupportsLanguage(languageCode string) bool {
	if len(s.voices) == 0 {
		return true
	}
	return s.voices[strings.ToLower(languageCode)]
}
