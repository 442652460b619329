package service

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// SoundPlayer plays the notification cue.
type SoundPlayer interface {
	Play(ctx context.Context) error
}

// NopPlayer plays nothing.
type NopPlayer struct{}

// Play implements SoundPlayer.
func (NopPlayer) Play(context.Context) error { return nil }

// CommandPlayer runs an external command such as "paplay /usr/share/sounds/notify.oga".
type CommandPlayer struct {
	Command string
}

// NewSoundPlayer returns a CommandPlayer, or NopPlayer when command is blank.
func NewSoundPlayer(command string) SoundPlayer {
	if strings.TrimSpace(command) == "" {
		return NopPlayer{}
	}
	return CommandPlayer{Command: command}
}

// Play implements SoundPlayer.
func (p CommandPlayer) Play(ctx context.Context) error {
	fields := strings.Fields(p.Command)
	if len(fields) == 0 {
		return errors.New("empty sound command")
	}
	return exec.CommandContext(ctx, fields[0], fields[1:]...).Run()
}
