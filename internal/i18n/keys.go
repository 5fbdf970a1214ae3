package i18n

// Field keys of a language pack.
const (
	KeyInfo = "INFO"

	KeySheetConditions   = "TABLE_SHEET_CONDITIONS"
	KeySheetSubprograms  = "TABLE_SHEET_SUBPROGRAMS"
	KeyDescription       = "TABLE_CONTENT_DESCRIPTION"
	KeySensorStates      = "TABLE_CONTENT_SENSOR_STATES"
	KeyControlStates     = "TABLE_CONTENT_CONTROL_STATES"
	KeySignOfTransition  = "TABLE_CONTENT_SIGN_OF_TRANSITION"
	KeyTransitionAddress = "TABLE_CONTENT_TRANSITION_ADDRESS"
	KeySignOfBlocking    = "TABLE_CONTENT_SIGN_OF_BLOCKING"
	KeySignOfFinish      = "TABLE_CONTENT_SIGN_OF_FINISH"
	KeySubprogramInitial = "TABLE_CONTENT_SUBPROGRAM_INITIAL"
	KeyAddress           = "FIELD_ADDRESS"
	KeyOperator          = "OPERATOR"
)
