package prompt

import (
	"github.com/AlecAivazis/survey/v2"
)

// LogLevels are the choices offered by SelectLogLevel
var LogLevels = []string{"debug", "info", "warn", "error"}

// SelectLogLevel prompts user to select a log level
func SelectLogLevel(defaultVal string) (string, error) {
	var selected string

	prompt := &survey.Select{
		Message: "Diagnostic log level:",
		Options: LogLevels,
		Default: defaultVal,
	}

	err := survey.AskOne(prompt, &selected)
	return selected, err
}

// InputString prompts for text input
func InputString(message, defaultVal string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultVal,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}

// InputValidated prompts for text input and re-asks until validate passes
func InputValidated(message, defaultVal string, validate func(string) error) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultVal,
	}
	err := survey.AskOne(prompt, &result, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return validate(s)
	}))
	return result, err
}

// Confirm prompts for yes/no
func Confirm(message string, defaultVal bool) (bool, error) {
	var result bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultVal,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}
