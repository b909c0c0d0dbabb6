package setupwizard

import (
	"github.com/AlecAivazis/survey/v2"
)

// SurveyPrompter asks on the controlling terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	ok := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &ok)
	return ok, err
}

func (SurveyPrompter) Password(message string) (string, error) {
	var pw string
	err := survey.AskOne(&survey.Password{Message: message}, &pw)
	return pw, err
}

func (SurveyPrompter) Input(message, def string) (string, error) {
	var v string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &v)
	return v, err
}
