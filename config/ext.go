package config

import (
	"fmt"
	"os/exec"
	"strconv"
)

// ShellCommand
// An argv list, the first element is the program.
// Example: ["v4l2-ctl", "-d", "/dev/video0", "--set-fmt-video=width=1920,height=1080"]
type ShellCommand []string

func (s ShellCommand) Empty() bool {
	return len(s) == 0
}

func (s ShellCommand) First() string {
	if s.Empty() {
		return ""
	}
	return s[0]
}

func (s ShellCommand) ToCommand() *exec.Cmd {
	if s.Empty() {
		return nil
	}

	return exec.Command(s[0], s[1:]...)
}

// ToShellCommand accepts "/dev/video0", 0 or ["ffmpeg", "-i", ...]
func ToShellCommand(value any) (ShellCommand, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		return ShellCommand{v}, nil
	case int64:
		return ShellCommand{strconv.FormatInt(v, 10)}, nil
	case []any:
		cmd := make(ShellCommand, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d should be a string, got %T", i, item)
			}
			cmd = append(cmd, str)
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("should be a string, an integer or an array of strings, got %T", value)
	}
}
