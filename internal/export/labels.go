package export

import "github.com/KevinKickass/OpenSequenceCore/internal/i18n"

// Labels are the localized header strings of the report.
type Labels struct {
	ConditionsSheet   string `json:"conditions_sheet"`
	SubprogramsSheet  string `json:"subprograms_sheet"`
	Description       string `json:"description"`
	SensorStates      string `json:"sensor_states"`
	ControlStates     string `json:"control_states"`
	SignOfTransition  string `json:"sign_of_transition"`
	TransitionAddress string `json:"transition_address"`
	SignOfBlocking    string `json:"sign_of_blocking"`
	Address           string `json:"address"`
	Operator          string `json:"operator"`
	SignOfFinish      string `json:"sign_of_finish"`
	SubprogramInitial string `json:"subprogram_initial"`
}

// FieldSource resolves language pack keys.
type FieldSource interface {
	GetField(key string) string
}

func LabelsFrom(src FieldSource) Labels {
	return Labels{
		ConditionsSheet:   src.GetField(i18n.KeySheetConditions),
		SubprogramsSheet:  src.GetField(i18n.KeySheetSubprograms),
		Description:       src.GetField(i18n.KeyDescription),
		SensorStates:      src.GetField(i18n.KeySensorStates),
		ControlStates:     src.GetField(i18n.KeyControlStates),
		SignOfTransition:  src.GetField(i18n.KeySignOfTransition),
		TransitionAddress: src.GetField(i18n.KeyTransitionAddress),
		SignOfBlocking:    src.GetField(i18n.KeySignOfBlocking),
		Address:           src.GetField(i18n.KeyAddress),
		Operator:          src.GetField(i18n.KeyOperator),
		SignOfFinish:      src.GetField(i18n.KeySignOfFinish),
		SubprogramInitial: src.GetField(i18n.KeySubprogramInitial),
	}
}

// DefaultLabels are the English headers.
func DefaultLabels() Labels {
	return Labels{
		ConditionsSheet:   "Conditions",
		SubprogramsSheet:  "Subprograms",
		Description:       "Description",
		SensorStates:      "Sensor states",
		ControlStates:     "Control states",
		SignOfTransition:  "Sign of transition",
		TransitionAddress: "Transition address",
		SignOfBlocking:    "Sign of blocking",
		Address:           "Address",
		Operator:          "Operator",
		SignOfFinish:      "Sign of finish",
		SubprogramInitial: "Initial step",
	}
}
