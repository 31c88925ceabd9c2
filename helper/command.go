package helper

import (
	"errors"
	"strings"

	"github.com/allape/faceblur/config"
)

// RunSetupCommands runs each command to completion, the first failure stops the rest
func RunSetupCommands(commands []config.ShellCommand) ([]string, error) {
	outputs := make([]string, 0, len(commands))

	for _, command := range commands {
		cmd := command.ToCommand()
		if cmd == nil {
			continue
		}
		output, err := cmd.CombinedOutput()
		o := strings.TrimSpace(string(output))
		outputs = append(outputs, o)
		if err != nil {
			if o == "" {
				return outputs, err
			}
			return outputs, errors.New(o)
		}
	}

	return outputs, nil
}
